package token

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/halcyonlabs/authcore/kvstore"
	"github.com/halcyonlabs/authcore/session"
)

const (
	// PrimaryKey is the storage slot holding the bare credential string.
	PrimaryKey = "primary-credential"

	// Legacy externally-issued auth blobs match this naming pattern. They
	// are read-only to the core except for removal on ClearTokens.
	legacyBlobPrefix = "sb-"
	legacyBlobSuffix = "-auth-token"

	refreshKey = "refresh"
)

// RefreshResult is the settled outcome of a refresh attempt, shared by all
// callers that awaited the same in-flight refresh. Failures are data, not
// errors: callers decide whether to redirect to re-authentication.
type RefreshResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Reason  string `json:"error,omitempty"`
}

// ReasonSessionExpired is the failure reason when no valid credential can
// be derived from the stored session.
const ReasonSessionExpired = "session expired, please login again"

// Config carries Coordinator construction parameters.
type Config struct {
	// RefreshBuffer is subtracted from the credential's exp claim when
	// deciding near-expiry. Defaults to 5m.
	RefreshBuffer time.Duration
	// Clock overrides the time source. Nil means time.Now.
	Clock func() time.Time
	// Hooks receive refresh outcomes.
	Hooks Hooks
}

// Hooks receives refresh lifecycle notifications. All fields are optional.
type Hooks struct {
	RefreshSuccess func()
	RefreshFailure func(reason string)
	RefreshShared  func()
}

// Coordinator guarantees that a caller needing a credential either gets a
// currently valid one or a definitive failure, and that concurrent callers
// never trigger redundant refresh work.
type Coordinator struct {
	kv       *kvstore.Store
	sessions *session.Store
	buffer   time.Duration
	hooks    Hooks
	now      func() time.Time

	group singleflight.Group

	// derive performs the actual refresh work. Swappable in tests to
	// observe single-flight behavior.
	derive func(ctx context.Context) RefreshResult
}

// NewCoordinator creates a refresh coordinator over the shared key-value
// layer and the session store.
func NewCoordinator(kv *kvstore.Store, sessions *session.Store, cfg Config) *Coordinator {
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	c := &Coordinator{
		kv:       kv,
		sessions: sessions,
		buffer:   cfg.RefreshBuffer,
		hooks:    cfg.Hooks,
		now:      cfg.Clock,
	}
	c.derive = c.deriveFromSession
	return c
}

// IsExpired decodes the credential's exp claim and reports whether it is
// past or within the refresh buffer of expiry. Fails closed: an empty,
// malformed, or exp-less credential is always expired.
func (c *Coordinator) IsExpired(tok string) bool {
	if strings.TrimSpace(tok) == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	// Signature verification is the server's job; only the embedded
	// expiry claim matters here.
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return exp.Time.Sub(c.now()) < c.buffer
}

// ValidToken returns a currently usable credential, preferring the primary
// slot and falling back to the session record. A still-valid session
// credential is promoted back into the primary slot. Returns ("", false)
// when no usable credential exists and the caller must re-authenticate.
func (c *Coordinator) ValidToken(ctx context.Context) (string, bool) {
	if tok, ok := c.kv.Get(ctx, PrimaryKey); ok && !c.IsExpired(tok) {
		return tok, true
	}

	tok := c.sessions.Token(ctx)
	if tok == "" || c.IsExpired(tok) {
		return "", false
	}

	c.kv.Set(ctx, PrimaryKey, tok)
	return tok, true
}

// Refresh is the single-flight refresh entry point. While one refresh is
// in flight every additional caller receives the same pending result; the
// in-flight marker is cleared once that work settles, success or failure.
//
// The outcome hooks fire exactly once per executed refresh, from inside
// the shared work; RefreshShared fires once per caller that joined an
// in-flight refresh instead of starting one. singleflight reports
// shared=true to the executing caller too, so the executing call tracks
// itself rather than trusting that flag.
func (c *Coordinator) Refresh(ctx context.Context) RefreshResult {
	executed := false
	v, _, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		executed = true
		res := c.derive(ctx)
		switch {
		case res.Success && c.hooks.RefreshSuccess != nil:
			c.hooks.RefreshSuccess()
		case !res.Success && c.hooks.RefreshFailure != nil:
			c.hooks.RefreshFailure(res.Reason)
		}
		return res, nil
	})

	if !executed && c.hooks.RefreshShared != nil {
		c.hooks.RefreshShared()
	}
	return v.(RefreshResult)
}

// deriveFromSession re-derives a usable credential from the session record.
// There is no renewal exchange: when the session credential is itself
// expired the session is torn down and the caller must log in again.
func (c *Coordinator) deriveFromSession(ctx context.Context) RefreshResult {
	tok := c.sessions.Token(ctx)
	if tok != "" && !c.IsExpired(tok) {
		c.kv.Set(ctx, PrimaryKey, tok)
		return RefreshResult{Success: true, Token: tok}
	}

	c.sessions.Clear(ctx)
	c.kv.Remove(ctx, PrimaryKey)
	return RefreshResult{Success: false, Reason: ReasonSessionExpired}
}

// ClearTokens removes the primary credential slot, clears the session, and
// removes any legacy externally-issued auth blobs matching the known
// naming pattern.
func (c *Coordinator) ClearTokens(ctx context.Context) {
	c.kv.Remove(ctx, PrimaryKey)
	c.sessions.Clear(ctx)

	for _, key := range c.kv.Keys(ctx) {
		if isLegacyBlobKey(key) {
			c.kv.Remove(ctx, key)
		}
	}
}

// HasRefreshToken best-effort inspects the legacy externally-issued auth
// blob for a refresh-capable field. Returns false on any parse failure.
func (c *Coordinator) HasRefreshToken(ctx context.Context) bool {
	for _, key := range c.kv.Keys(ctx) {
		if !isLegacyBlobKey(key) {
			continue
		}
		blob, ok := c.kv.Get(ctx, key)
		if !ok {
			continue
		}
		var parsed struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
			continue
		}
		if parsed.RefreshToken != "" {
			return true
		}
	}
	return false
}

func isLegacyBlobKey(key string) bool {
	return strings.HasPrefix(key, legacyBlobPrefix) &&
		strings.HasSuffix(key, legacyBlobSuffix) &&
		len(key) > len(legacyBlobPrefix)+len(legacyBlobSuffix)
}
