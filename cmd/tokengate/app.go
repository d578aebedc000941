package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/directory"
	"github.com/MrEthical07/tokengate/internal/config"
	"github.com/MrEthical07/tokengate/internal/httpapi"
	"github.com/MrEthical07/tokengate/metrics/export/prometheus"
	"github.com/MrEthical07/tokengate/migrations"
	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/permission"
	"github.com/MrEthical07/tokengate/revocation"
)

// app owns every long-lived resource of the process.
type app struct {
	logger *slog.Logger
	engine *tokengate.Engine
	server *httpapi.Server

	mini  *miniredis.Miniredis
	redis *redis.Client
	db    *sql.DB

	stopPurge context.CancelFunc
	purgeDone chan struct{}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	if err := a.init(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, cfg *config.Config) error {
	if cfg.NeedsRedis() {
		if err := a.openRedis(ctx, cfg); err != nil {
			return err
		}
	}
	if cfg.NeedsDatabase() {
		if err := a.openDatabase(ctx, cfg); err != nil {
			return err
		}
	}

	hasher, err := password.NewDefaultAuto()
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	dir, err := a.buildDirectory(ctx, cfg, hasher)
	if err != nil {
		return err
	}

	b := tokengate.New().
		WithConfig(cfg.Engine()).
		WithDirectory(dir).
		WithPasswordVerifier(hasher).
		WithLogger(a.logger)
	if a.redis != nil {
		b.WithRedis(a.redis)
	}
	if cfg.Revocation.Backend == config.BackendPostgres {
		store := revocation.NewPostgres(a.db)
		b.WithRevocationStore(store)
		a.startPurge(store, cfg.Revocation.PruneInterval)
	}
	switch cfg.Audit.Sink {
	case "slog":
		b.WithAuditSink(tokengate.NewSlogSink(a.logger.With("component", "audit")))
	case "stdout":
		b.WithAuditSink(tokengate.NewJSONWriterSink(os.Stdout))
	}

	a.engine, err = b.Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	report := a.engine.SecurityReport()
	a.logger.Info("engine ready",
		"revocation", report.RevocationBackend,
		"access_ttl", report.AccessTTL,
		"refresh_ttl", report.RefreshTTL,
		"refresh_unbounded", report.RefreshUnbounded,
		"login_throttle", report.LoginThrottleActive,
		"ip_throttle", report.IPThrottleActive,
		"audit", report.AuditEnabled,
	)

	deps := httpapi.Deps{
		Config: httpapi.Config{
			Addr:              cfg.Server.Addr,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
			MaxBodyBytes:      cfg.Server.MaxBodyBytes,
			TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		},
		Engine:  a.engine,
		Logger:  a.logger,
		Version: version,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = prometheus.NewPrometheusExporter(a.engine).Handler()
	}
	a.server, err = httpapi.New(deps)
	return err
}

func (a *app) openRedis(ctx context.Context, cfg *config.Config) error {
	addr := cfg.Redis.Addr
	if cfg.Dev {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("starting in-process redis: %w", err)
		}
		a.mini = mr
		addr = mr.Addr()
		a.logger.Info("using in-process redis", "address", addr)
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return nil
}

func (a *app) openDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.db = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if cfg.Database.Migrate {
		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		a.logger.Info("database migrations applied")
	}
	return nil
}

func (a *app) buildDirectory(ctx context.Context, cfg *config.Config, hasher password.Hasher) (tokengate.Directory, error) {
	if cfg.Directory.Backend == config.BackendPostgres {
		dir := directory.NewSQL(a.db)
		for _, u := range cfg.Seed {
			rec, err := seedRecord(hasher, u)
			if err != nil {
				return nil, err
			}
			if err := dir.Upsert(ctx, rec); err != nil {
				return nil, fmt.Errorf("seeding %s: %w", u.ID, err)
			}
		}
		return dir, nil
	}

	dir := directory.NewMemory()
	for _, u := range cfg.Seed {
		rec, err := seedRecord(hasher, u)
		if err != nil {
			return nil, err
		}
		if err := dir.Put(rec); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", u.ID, err)
		}
	}
	if len(cfg.Seed) == 0 {
		a.logger.Warn("memory directory has no accounts; add seed entries to the config")
	}
	return dir, nil
}

func seedRecord(hasher password.Hasher, u config.SeedUser) (tokengate.UserRecord, error) {
	role, ok := permission.ParseRole(u.Role)
	if !ok {
		return tokengate.UserRecord{}, fmt.Errorf("seed %s: unknown role %q", u.ID, u.Role)
	}
	hash, err := hasher.Hash(u.Password)
	if err != nil {
		return tokengate.UserRecord{}, fmt.Errorf("seed %s: %w", u.ID, err)
	}
	return tokengate.UserRecord{ID: u.ID, Identifier: u.Email, Role: role, SecretHash: hash}, nil
}

// startPurge deletes expired refresh sessions from Postgres every interval.
func (a *app) startPurge(store *revocation.Postgres, every time.Duration) {
	if every <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopPurge = cancel
	a.purgeDone = make(chan struct{})

	go func() {
		defer close(a.purgeDone)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.Purge(ctx)
				if err != nil {
					a.logger.Warn("purging expired sessions failed", "error", err)
					continue
				}
				if n > 0 {
					a.logger.Debug("purged expired sessions", "count", n)
				}
			}
		}
	}()
}

func (a *app) close() {
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			a.logger.Error("closing http server", "error", err)
		}
	}
	if a.stopPurge != nil {
		a.stopPurge()
		<-a.purgeDone
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mini != nil {
		a.mini.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
