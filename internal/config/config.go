package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/permission"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by the revocation and directory sections.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Dev        bool             `yaml:"dev"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	JWT        JWTConfig        `yaml:"jwt"`
	Revocation RevocationConfig `yaml:"revocation"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Security   SecurityConfig   `yaml:"security"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Seed       []SeedUser       `yaml:"seed"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// JWTConfig carries the signing secrets and token lifetimes.
type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	Leeway        time.Duration `yaml:"leeway"`
}

// RevocationConfig selects where refresh sessions live.
type RevocationConfig struct {
	Backend       string        `yaml:"backend"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// DirectoryConfig selects the user directory.
type DirectoryConfig struct {
	Backend string `yaml:"backend"`
}

// RedisConfig is the connection used by the redis revocation backend and
// the login throttle.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig is the Postgres connection.
type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

// SecurityConfig configures the failed-login throttle.
type SecurityConfig struct {
	LoginThrottle    bool          `yaml:"login_throttle"`
	IPThrottle       bool          `yaml:"ip_throttle"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LoginCooldown    time.Duration `yaml:"login_cooldown"`
}

// AuditConfig configures audit event delivery.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BufferSize int    `yaml:"buffer_size"`
	DropIfFull bool   `yaml:"drop_if_full"`
	Sink       string `yaml:"sink"`
}

// MetricsConfig configures engine counters and the /metrics route.
type MetricsConfig struct {
	Enabled           bool `yaml:"enabled"`
	LatencyHistograms bool `yaml:"latency_histograms"`
}

// SeedUser is an account created at startup.
type SeedUser struct {
	ID       string `yaml:"id"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	engine := tokengate.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 64 << 10,
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		JWT: JWTConfig{
			AccessTTL:  engine.JWT.AccessTTL,
			RefreshTTL: engine.JWT.RefreshTTL,
			Issuer:     engine.JWT.Issuer,
			Leeway:     engine.JWT.Leeway,
		},
		Revocation: RevocationConfig{
			Backend:       BackendMemory,
			RedisPrefix:   engine.Revocation.RedisPrefix,
			PruneInterval: engine.Revocation.PruneInterval,
		},
		Directory: DirectoryConfig{Backend: BackendMemory},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		Database:  DatabaseConfig{Migrate: true},
		Security: SecurityConfig{
			LoginThrottle:    engine.Security.EnableLoginThrottle,
			MaxLoginAttempts: engine.Security.MaxLoginAttempts,
			LoginCooldown:    engine.Security.LoginCooldownDuration,
		},
		Audit: AuditConfig{
			BufferSize: engine.Audit.BufferSize,
			DropIfFull: engine.Audit.DropIfFull,
			Sink:       "slog",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TOKENGATE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TOKENGATE_ACCESS_SECRET"); v != "" {
		cfg.JWT.AccessSecret = v
	}
	if v := os.Getenv("TOKENGATE_REFRESH_SECRET"); v != "" {
		cfg.JWT.RefreshSecret = v
	}
	if v := os.Getenv("TOKENGATE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TOKENGATE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TOKENGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TOKENGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TOKENGATE_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_DEV: %w", err)
		}
		cfg.Dev = dev
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "server.max_body_bytes must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	engineCfg := c.Engine()
	if err := engineCfg.Validate(); err != nil {
		errs = append(errs, "engine: "+err.Error())
	}

	switch c.Revocation.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" && !c.Dev {
			errs = append(errs, "redis.addr is required for the redis revocation backend")
		}
	case BackendPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres revocation backend")
		}
	default:
		errs = append(errs, "revocation.backend must be memory, redis or postgres")
	}

	switch c.Directory.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres directory")
		}
	default:
		errs = append(errs, "directory.backend must be memory or postgres")
	}

	switch c.Audit.Sink {
	case "slog", "stdout", "none":
	default:
		errs = append(errs, "audit.sink must be slog, stdout or none")
	}

	for i, u := range c.Seed {
		if u.ID == "" || u.Email == "" || u.Password == "" {
			errs = append(errs, fmt.Sprintf("seed[%d]: id, email and password are required", i))
		}
		if _, ok := permission.ParseRole(u.Role); !ok {
			errs = append(errs, fmt.Sprintf("seed[%d]: unknown role %q, want one of %v", i, u.Role, permission.Roles()))
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors: " + strings.Join(errs, "; "))
	}
	return nil
}

// NeedsRedis reports whether any component uses the redis connection.
func (c *Config) NeedsRedis() bool {
	return c.Revocation.Backend == BackendRedis || c.Security.LoginThrottle
}

// NeedsDatabase reports whether any component uses Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.Revocation.Backend == BackendPostgres || c.Directory.Backend == BackendPostgres
}

// Engine converts the file layout into a tokengate.Config. The postgres
// revocation backend maps to the memory backend here; the caller injects
// the Postgres store through the builder.
func (c *Config) Engine() tokengate.Config {
	out := tokengate.DefaultConfig()

	out.JWT.AccessSecret = []byte(c.JWT.AccessSecret)
	out.JWT.RefreshSecret = []byte(c.JWT.RefreshSecret)
	out.JWT.AccessTTL = c.JWT.AccessTTL
	out.JWT.RefreshTTL = c.JWT.RefreshTTL
	out.JWT.Issuer = c.JWT.Issuer
	out.JWT.Audience = c.JWT.Audience
	out.JWT.Leeway = c.JWT.Leeway

	out.Revocation.Backend = tokengate.RevocationMemory
	if c.Revocation.Backend == BackendRedis {
		out.Revocation.Backend = tokengate.RevocationRedis
	}
	out.Revocation.RedisPrefix = c.Revocation.RedisPrefix
	out.Revocation.PruneInterval = c.Revocation.PruneInterval

	out.Security.EnableLoginThrottle = c.Security.LoginThrottle
	out.Security.EnableIPThrottle = c.Security.IPThrottle
	out.Security.MaxLoginAttempts = c.Security.MaxLoginAttempts
	out.Security.LoginCooldownDuration = c.Security.LoginCooldown

	out.Audit.Enabled = c.Audit.Enabled && c.Audit.Sink != "none"
	out.Audit.BufferSize = c.Audit.BufferSize
	out.Audit.DropIfFull = c.Audit.DropIfFull

	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.LatencyHistograms
	return out
}

// ApplyDevDefaults fills missing secrets with random values when Dev is
// set. Tokens signed with them do not survive a restart.
func (c *Config) ApplyDevDefaults() {
	if !c.Dev {
		return
	}
	if c.JWT.AccessSecret == "" {
		c.JWT.AccessSecret = randomSecret()
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = randomSecret()
	}
}

func randomSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
