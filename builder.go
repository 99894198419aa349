package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	internalaudit "github.com/halcyonlabs/authcore/internal/audit"
	"github.com/halcyonlabs/authcore/kvstore"
	"github.com/halcyonlabs/authcore/permission"
	"github.com/halcyonlabs/authcore/session"
	"github.com/halcyonlabs/authcore/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build; no I/O happens before the first Engine call.
type Builder struct {
	config Config

	redis      redis.UniversalClient
	sqlitePath string
	navigator  Navigator
	auditSink  AuditSink
	logger     *logrus.Logger
	clock      func() time.Time

	roles        map[string][]string
	tierRoles    map[string]string
	featureGates map[string]string
	routeGuards  map[string][]string

	built bool
}

// New creates a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the long-lived storage tier. Optional: without it the
// chain starts at SQLite or memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSQLitePath supplies the local durable storage tier. Optional.
func (b *Builder) WithSQLitePath(path string) *Builder {
	b.sqlitePath = path
	return b
}

// WithNavigator supplies the host's navigation surface. Defaults to
// [NoOpNavigator].
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithAuditSink supplies the audit destination. Defaults to [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the structured logger used by the storage layer and
// the activity tracker. Defaults to a discard logger.
func (b *Builder) WithLogger(log *logrus.Logger) *Builder {
	b.logger = log
	return b
}

// WithClock overrides the time source for the session store and token
// coordinator. Test hook.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithRoles replaces the flat role table.
func (b *Builder) WithRoles(roles map[string][]string) *Builder {
	b.roles = roles
	return b
}

// WithTierRoles replaces the subscription-tier-to-role map.
func (b *Builder) WithTierRoles(tiers map[string]string) *Builder {
	b.tierRoles = tiers
	return b
}

// WithFeatureGates replaces the feature gate table.
func (b *Builder) WithFeatureGates(gates map[string]string) *Builder {
	b.featureGates = gates
	return b
}

// WithRouteGuards replaces the route guard table.
func (b *Builder) WithRouteGuards(guards map[string][]string) *Builder {
	b.routeGuards = guards
	return b
}

// Build wires the storage chain, session store, activity tracker, refresh
// coordinator, permission resolver, audit dispatcher, and metrics into a
// ready [Engine]. A Builder can build once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver, err := permission.NewResolver(permission.Config{
		Roles:        b.roles,
		TierRoles:    b.tierRoles,
		FeatureGates: b.featureGates,
		RouteGuards:  b.routeGuards,
	})
	if err != nil {
		return nil, err
	}

	var backends []kvstore.Backend
	if b.redis != nil {
		backends = append(backends, kvstore.NewRedisBackend(b.redis, cfg.Storage.RedisPrefix))
	}
	if b.sqlitePath != "" {
		sqlite, err := kvstore.OpenSQLite(b.sqlitePath)
		if err != nil {
			return nil, err
		}
		backends = append(backends, sqlite)
	}
	kv := kvstore.NewStore(backends, b.logger)

	engine := &Engine{
		config:   cfg,
		kv:       kv,
		resolver: resolver,
		metrics:  NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	kv.OnFallback = func(backend string, err error) {
		engine.metrics.Inc(MetricStorageFallback)
		engine.emit(AuditEvent{
			EventType: EventStorageFallback,
			Success:   true,
			Error:     err.Error(),
			Metadata:  map[string]string{"backend": backend},
		})
	}

	engine.sessions = session.NewStore(kv, session.Config{
		SessionTTL:      cfg.Session.Timeout,
		ActivityTimeout: cfg.Session.ActivityTimeout,
		Clock:           b.clock,
		Hooks: session.Hooks{
			Created: func(rec *session.Record) {
				engine.metrics.Inc(MetricSessionCreated)
				engine.emit(AuditEvent{
					EventType: EventSessionCreated,
					UserID:    rec.User.ID,
					SessionID: rec.ID,
					Success:   true,
				})
			},
			Invalidated: func(reason session.InvalidReason, rec *session.Record) {
				engine.metrics.Inc(MetricSessionInvalidated)
				ev := AuditEvent{
					EventType: EventSessionInvalidated,
					Success:   true,
					Metadata:  map[string]string{"reason": string(reason)},
				}
				if rec != nil {
					ev.UserID = rec.User.ID
					ev.SessionID = rec.ID
				}
				engine.emit(ev)
			},
			Extended: func(rec *session.Record) {
				engine.metrics.Inc(MetricSessionExtended)
				engine.emit(AuditEvent{
					EventType: EventSessionExtended,
					UserID:    rec.User.ID,
					SessionID: rec.ID,
					Success:   true,
				})
			},
		},
	})

	engine.tracker = session.NewTracker(engine.sessions, session.TrackerConfig{
		CheckInterval: cfg.Session.CheckInterval,
		Navigator:     b.navigator,
		Logger:        b.logger,
	})
	engine.sessions.AttachTracker(engine.tracker)

	engine.tokens = token.NewCoordinator(kv, engine.sessions, token.Config{
		RefreshBuffer: cfg.Token.RefreshBuffer,
		Clock:         b.clock,
		Hooks: token.Hooks{
			RefreshSuccess: func() {
				engine.metrics.Inc(MetricRefreshSuccess)
				engine.emit(AuditEvent{EventType: EventRefreshSuccess, Success: true})
			},
			RefreshFailure: func(reason string) {
				engine.metrics.Inc(MetricRefreshFailure)
				engine.emit(AuditEvent{EventType: EventRefreshFailure, Error: reason})
			},
			RefreshShared: func() {
				engine.metrics.Inc(MetricRefreshShared)
			},
		},
	})

	b.built = true
	return engine, nil
}
