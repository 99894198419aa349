// Package token decides whether the session credential is still usable and
// coordinates its refresh. Expiry checks decode the credential's embedded
// exp claim without verifying the signature and fail closed: a malformed or
// absent credential is always treated as expired.
//
// Refresh is single-flight: concurrent callers share one in-flight refresh
// and observe the same settled result. No credential-renewal exchange
// exists in this design; a refresh re-derives the usable credential from
// the stored session record, and once that credential itself expires the
// only path forward is a full re-login.
package token
