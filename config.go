package authcore

import (
	"errors"
	"time"
)

// Config groups every tunable of the session core. The zero value is not
// usable; start from [DefaultConfig] or a preset and adjust.
type Config struct {
	Session SessionConfig
	Token   TokenConfig
	Storage StorageConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// SessionConfig controls record lifetime and the activity tracker.
type SessionConfig struct {
	// Timeout is the absolute session lifetime (expiresAt = now + Timeout
	// at creation and on Extend).
	Timeout time.Duration
	// ActivityTimeout is the maximum idle gap before the session is
	// evicted.
	ActivityTimeout time.Duration
	// CheckInterval is the period of the tracker's validity check.
	CheckInterval time.Duration
}

// TokenConfig controls credential expiry decisions.
type TokenConfig struct {
	// RefreshBuffer is subtracted from the credential's exp claim when
	// deciding near-expiry.
	RefreshBuffer time.Duration
}

// StorageConfig controls the key-value layer.
type StorageConfig struct {
	// RedisPrefix namespaces every Redis key. Defaults to "ac".
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production baseline: 24h sessions, 30m idle
// eviction, 60s validity checks, 5m refresh buffer, audit and metrics on.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Timeout:         24 * time.Hour,
			ActivityTimeout: 30 * time.Minute,
			CheckInterval:   time.Minute,
		},
		Token: TokenConfig{
			RefreshBuffer: 5 * time.Minute,
		},
		Storage: StorageConfig{
			RedisPrefix: "ac",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DevelopmentConfig returns a preset with short lifetimes and synchronous-
// friendly audit buffering, for local iteration and tests.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.Timeout = time.Hour
	cfg.Session.ActivityTimeout = 10 * time.Minute
	cfg.Session.CheckInterval = 5 * time.Second
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = false
	return cfg
}

// Validate rejects configurations that would break the lifecycle
// invariants.
func (c Config) Validate() error {
	if c.Session.Timeout <= 0 {
		return errors.New("session timeout must be positive")
	}
	if c.Session.ActivityTimeout <= 0 {
		return errors.New("activity timeout must be positive")
	}
	if c.Session.ActivityTimeout > c.Session.Timeout {
		return errors.New("activity timeout cannot exceed session timeout")
	}
	if c.Session.CheckInterval < time.Second {
		return errors.New("check interval must be at least one second")
	}
	if c.Session.CheckInterval > c.Session.ActivityTimeout {
		return errors.New("check interval cannot exceed activity timeout")
	}
	if c.Token.RefreshBuffer <= 0 {
		return errors.New("refresh buffer must be positive")
	}
	if c.Token.RefreshBuffer > time.Hour {
		return errors.New("refresh buffer above one hour defeats token expiry")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size cannot be negative")
	}
	return nil
}
