// Package authcore is the authentication-state core embedded in a host
// application: it represents the logged-in user's session, decides whether
// that session is still usable, refreshes an expiring credential exactly
// once under concurrent demand, and resolves the effective permission set
// a user holds from their role and subscription tier.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], and value types; storage tiers, the session record, the
// refresh coordinator, and the permission tables live in sub-packages and
// are wired together by [Builder.Build].
//
// # Failure policy
//
// No public operation lets a storage or parsing fault escape. Backend
// failures fall through to an in-process store, corrupt session data reads
// as "no session", malformed credentials read as expired, and a failed
// refresh is a structured result rather than an error. The one
// user-visible failure mode is a redirect to re-authentication, delivered
// through the host-supplied [Navigator].
//
// # Concurrency
//
// Engine methods are safe for concurrent use after Build. Refresh is
// single-flight: concurrent callers share one in-flight refresh and all
// observe the same settled outcome.
package authcore
