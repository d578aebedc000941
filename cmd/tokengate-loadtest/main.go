// tokengate-loadtest measures Check and Refresh throughput against a
// Redis-backed engine. Without --redis-addr it runs on an in-process Redis.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/directory"
	"github.com/MrEthical07/tokengate/password"
)

const (
	accessSecret  = "loadtest-access-secret-0123456789abcdef"
	refreshSecret = "loadtest-refresh-secret-0123456789abcdef"
)

func main() {
	var (
		sessions    = pflag.Int("sessions", 10000, "number of sessions to log in")
		concurrency = pflag.Int("concurrency", 256, "number of concurrent workers")
		ops         = pflag.Int("ops", 200000, "operations per phase (check + refresh)")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "lt:rt", "refresh session key prefix")
	)
	pflag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	engine, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("logging in %d sessions...\n", *sessions)
	startSeed := time.Now()
	states, err := seedSessions(ctx, engine, *sessions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	checkStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		_, err := engine.Check(ctx, states[r.Intn(len(states))].AccessToken)
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		_, err := engine.Refresh(ctx, states[r.Intn(len(states))].RefreshToken)
		return err
	})

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("refresh", refreshStats)
}

func buildEngine(client *redis.Client, prefix string) (*tokengate.Engine, error) {
	hasher, err := password.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	dir := directory.NewMemory()
	if err := dir.AddUser(hasher, "u-load", "load@example.com", tokengate.RoleVisitor, "load-pw"); err != nil {
		return nil, err
	}

	cfg := tokengate.DefaultConfig()
	cfg.JWT.AccessSecret = []byte(accessSecret)
	cfg.JWT.RefreshSecret = []byte(refreshSecret)
	cfg.JWT.AccessTTL = time.Hour
	cfg.JWT.RefreshTTL = 24 * time.Hour
	cfg.Revocation.Backend = tokengate.RevocationRedis
	cfg.Revocation.RedisPrefix = prefix
	cfg.Security.EnableLoginThrottle = false

	return tokengate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(dir).
		WithPasswordVerifier(hasher).
		Build()
}

func seedSessions(ctx context.Context, engine *tokengate.Engine, n int) ([]*tokengate.LoginResult, error) {
	states := make([]*tokengate.LoginResult, n)
	for i := range states {
		res, err := engine.Login(ctx, "load@example.com", "load-pw")
		if err != nil {
			return nil, err
		}
		states[i] = res
	}
	return states, nil
}

func runPhase(ops, concurrency int, seedStep int64, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
