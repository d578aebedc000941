package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/tokengate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef-0123"
	testRefreshSecret = "refresh-secret-0123456789abcdef-012"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokengate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
  read_timeout: 5s
logging:
  level: debug
  format: text
jwt:
  access_secret: "`+testAccessSecret+`"
  refresh_secret: "`+testRefreshSecret+`"
  access_ttl: 5m
  refresh_ttl: 0s
revocation:
  backend: redis
  redis_prefix: "app:rt"
redis:
  addr: "redis:6379"
seed:
  - id: u1
    email: admin@example.com
    password: change-me
    role: admin
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep their defaults")
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Zero(t, cfg.JWT.RefreshTTL)
	assert.Len(t, cfg.Seed, 1)
	assert.True(t, cfg.NeedsRedis())
	assert.False(t, cfg.NeedsDatabase())

	engine := cfg.Engine()
	assert.Equal(t, tokengate.RevocationRedis, engine.Revocation.Backend)
	assert.Equal(t, "app:rt", engine.Revocation.RedisPrefix)
	assert.Equal(t, []byte(testAccessSecret), engine.JWT.AccessSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/tokengate.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TOKENGATE_ACCESS_SECRET", testAccessSecret)
	t.Setenv("TOKENGATE_REFRESH_SECRET", testRefreshSecret)
	t.Setenv("TOKENGATE_ADDR", ":7070")
	t.Setenv("TOKENGATE_DATABASE_DSN", "postgres://localhost/tg")
	t.Setenv("TOKENGATE_DEV", "true")

	cfg, err := Load(writeConfig(t, "jwt:\n  access_secret: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, testAccessSecret, cfg.JWT.AccessSecret)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/tg", cfg.Database.DSN)
	assert.True(t, cfg.Dev)
}

func TestEnvOverrideRejectsBadBool(t *testing.T) {
	t.Setenv("TOKENGATE_DEV", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.JWT.AccessSecret = testAccessSecret
		cfg.JWT.RefreshSecret = testRefreshSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with secrets", mutate: func(*Config) {}},
		{name: "missing secrets", mutate: func(c *Config) { c.JWT.AccessSecret = "" }, wantErr: "engine:"},
		{name: "shared secrets", mutate: func(c *Config) { c.JWT.RefreshSecret = testAccessSecret }, wantErr: "must differ"},
		{name: "unknown revocation backend", mutate: func(c *Config) { c.Revocation.Backend = "etcd" }, wantErr: "revocation.backend"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Revocation.Backend = BackendPostgres }, wantErr: "database.dsn"},
		{name: "postgres directory without dsn", mutate: func(c *Config) { c.Directory.Backend = BackendPostgres }, wantErr: "database.dsn"},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Revocation.Backend = BackendRedis
			c.Redis.Addr = ""
		}, wantErr: "redis.addr"},
		{name: "redis without addr in dev", mutate: func(c *Config) {
			c.Revocation.Backend = BackendRedis
			c.Redis.Addr = ""
			c.Dev = true
		}},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "bad audit sink", mutate: func(c *Config) { c.Audit.Sink = "kafka" }, wantErr: "audit.sink"},
		{name: "seed with unknown role", mutate: func(c *Config) {
			c.Seed = []SeedUser{{ID: "u1", Email: "a@b.c", Password: "x", Role: "root"}}
		}, wantErr: `unknown role "root", want one of [pending visitor admin]`},
		{name: "seed missing password", mutate: func(c *Config) {
			c.Seed = []SeedUser{{ID: "u1", Email: "a@b.c", Role: "admin"}}
		}, wantErr: "seed[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDevDefaults(t *testing.T) {
	cfg := Default()
	cfg.ApplyDevDefaults()
	assert.Empty(t, cfg.JWT.AccessSecret, "non-dev configs are left alone")

	cfg.Dev = true
	cfg.ApplyDevDefaults()
	assert.GreaterOrEqual(t, len(cfg.JWT.AccessSecret), 32)
	assert.NotEqual(t, cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
	assert.NoError(t, cfg.Validate())
}

func TestAuditSinkNoneDisablesEngineAudit(t *testing.T) {
	cfg := Default()
	cfg.Audit.Enabled = true
	cfg.Audit.Sink = "none"
	assert.False(t, cfg.Engine().Audit.Enabled)
}
