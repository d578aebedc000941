package tokengate

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokengate/internal/audit"
	"github.com/MrEthical07/tokengate/internal/flows"
	"github.com/MrEthical07/tokengate/internal/rate"
	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/permission"
	"github.com/MrEthical07/tokengate/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it with the With* methods and call
// Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory Directory
	store     revocation.Store
	passwords password.Verifier

	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecrets sets the access and refresh signing secrets.
func (b *Builder) WithSecrets(access, refresh []byte) *Builder {
	b.config.JWT.AccessSecret = cloneBytes(access)
	b.config.JWT.RefreshSecret = cloneBytes(refresh)
	return b
}

// WithRedis provides the client used by the login throttle and, when
// Revocation.Backend is "redis", by the refresh-session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user directory. Required.
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithRevocationStore overrides the store selected by Revocation.Backend,
// e.g. with a [revocation.Postgres].
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.store = store
	return b
}

// WithPasswordVerifier sets how stored secrets are compared. Defaults to
// [password.NewDefaultAuto].
func (b *Builder) WithPasswordVerifier(v password.Verifier) *Builder {
	b.passwords = v
	return b
}

// WithLogger sets the operational logger. Defaults to a discarding logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled in
// the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for token issuance, verification and
// store expiry. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine. A Builder can be
// built only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("directory required")
	}
	if cfg.Revocation.Backend == RevocationRedis && b.store == nil && b.redis == nil {
		return nil, errors.New("redis revocation backend requires redis client")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- CREDENTIALS --------
	pw := b.passwords
	if pw == nil {
		auto, err := password.NewDefaultAuto()
		if err != nil {
			return nil, err
		}
		pw = auto
	}
	verifier, err := NewCredentialVerifier(b.directory, pw)
	if err != nil {
		return nil, err
	}

	// -------- TOKEN CODECS --------
	pair, err := jwt.NewPair(jwt.Config{
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
		RequireExpiry: cfg.JWT.RefreshTTL > 0,
	}, cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, jwt.WithClock(now))
	if err != nil {
		return nil, err
	}

	// -------- REVOCATION STORE --------
	store := b.store
	var memory *revocation.Memory
	if store == nil {
		switch cfg.Revocation.Backend {
		case RevocationRedis:
			store = revocation.NewRedis(b.redis,
				revocation.WithRedisPrefix(cfg.Revocation.RedisPrefix),
				revocation.WithRedisClock(now),
			)
		default:
			memory = revocation.NewMemory(now)
			store = memory
		}
	}

	engine := &Engine{
		config:   cfg,
		pair:     pair,
		store:    store,
		verifier: verifier,
		logger:   logger,
		now:      now,
	}

	// -------- THROTTLE --------
	if cfg.Security.EnableLoginThrottle {
		if b.redis == nil {
			logger.Warn("tokengate: login throttle enabled without redis client; throttle disabled")
		} else {
			engine.limiter = rate.New(b.redis, rate.Config{
				EnableIPThrottle:      cfg.Security.EnableIPThrottle,
				MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
				LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
				KeyPrefix:             cfg.Security.ThrottlePrefix,
			})
		}
	}

	// -------- OBSERVABILITY --------
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.guard = &permission.Guard{OnDecision: engine.observeDecision}

	engine.flows = flows.New(engine.flowDeps())

	if memory != nil && cfg.Revocation.PruneInterval > 0 {
		engine.startPruner(memory, cfg.Revocation.PruneInterval)
	}

	b.built = true

	return engine, nil
}
