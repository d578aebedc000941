package tokengate

import (
	"bytes"
	"errors"
	"strings"
	"time"
)

const minSecretBytes = 32

// Config holds every tunable of an Engine. Obtain one from [DefaultConfig],
// adjust it, and hand it to [Builder.WithConfig]. The Engine keeps its own
// copy, so later changes to the caller's value have no effect.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures both token classes. The two secrets must differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	// RefreshTTL of zero issues refresh tokens without expiry. They then stay
	// valid until logout.
	RefreshTTL   time.Duration
	Issuer       string
	Audience     string
	// Leeway tolerates clock skew on exp and nbf. It defaults to zero, so an
	// access token is rejected as soon as its expiry passes.
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationBackend selects the default refresh-session store built when the
// caller does not supply one through [Builder.WithRevocationStore].
type RevocationBackend string

const (
	// RevocationMemory keeps sessions in process memory.
	RevocationMemory RevocationBackend = "memory"
	// RevocationRedis keeps sessions in Redis. Requires [Builder.WithRedis].
	RevocationRedis RevocationBackend = "redis"
)

// RevocationConfig configures the refresh-session store.
type RevocationConfig struct {
	Backend     RevocationBackend
	RedisPrefix string
	// PruneInterval enables a background sweep of expired entries for the
	// in-memory store. Zero disables it; expired entries are still rejected.
	PruneInterval time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig configures the failed-login throttle. The throttle needs a
// Redis client and is skipped when none was provided.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	ThrottlePrefix        string
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Secrets are left empty and
// must be set before Build.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:    20 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			Issuer:       "tokengate",
			MaxFutureIAT: 10 * time.Minute,
		},
		Revocation: RevocationConfig{
			Backend:       RevocationMemory,
			RedisPrefix:   "tg:rt",
			PruneInterval: 10 * time.Minute,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			ThrottlePrefix:        "tg",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found, or nil.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) < minSecretBytes {
		return errors.New("JWT AccessSecret must be at least 32 bytes")
	}
	if len(c.JWT.RefreshSecret) < minSecretBytes {
		return errors.New("JWT RefreshSecret must be at least 32 bytes")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL < 0 {
		return errors.New("JWT RefreshTTL must be >= 0")
	}
	if c.JWT.RefreshTTL > 0 && c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must not be shorter than AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}

	// Revocation
	switch c.Revocation.Backend {
	case RevocationMemory, RevocationRedis:
	default:
		return errors.New("Revocation Backend must be 'memory' or 'redis'")
	}
	if c.Revocation.Backend == RevocationRedis && strings.TrimSpace(c.Revocation.RedisPrefix) == "" {
		return errors.New("Revocation RedisPrefix must be set for the redis backend")
	}
	if c.Revocation.PruneInterval < 0 {
		return errors.New("Revocation PruneInterval must be >= 0")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
		if strings.TrimSpace(c.Security.ThrottlePrefix) == "" {
			return errors.New("Security ThrottlePrefix must be set")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
