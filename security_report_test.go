package tokengate

import (
	"testing"
	"time"
)

func TestSecurityReportReflectsPosture(t *testing.T) {
	_, rdb := newMiniredis(t)
	cfg := testConfig()
	cfg.JWT.Audience = "api"
	cfg.Security.EnableLoginThrottle = true
	cfg.Security.EnableIPThrottle = true
	cfg.Audit.Enabled = true

	f := newEngineFixture(t, cfg, func(b *Builder) {
		b.WithRedis(rdb)
	})

	report := f.engine.SecurityReport()
	if report.SigningAlgorithm != "HS256" {
		t.Fatalf("expected HS256, got %s", report.SigningAlgorithm)
	}
	if !report.AudienceBound || report.Issuer != "tokengate" {
		t.Fatalf("unexpected claim binding: %+v", report)
	}
	if report.RefreshUnbounded || report.RefreshTTL != time.Hour {
		t.Fatalf("unexpected refresh posture: %+v", report)
	}
	if report.RevocationBackend != "memory" {
		t.Fatalf("expected memory backend, got %q", report.RevocationBackend)
	}
	if !report.LoginThrottleActive || !report.IPThrottleActive {
		t.Fatal("expected throttles active in report")
	}
	if !report.AuditEnabled || !report.MetricsEnabled {
		t.Fatal("expected audit and metrics enabled in report")
	}
}

func TestSecurityReportThrottleWithoutRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableLoginThrottle = true
	cfg.JWT.RefreshTTL = 0

	f := newEngineFixture(t, cfg, nil)

	report := f.engine.SecurityReport()
	if report.LoginThrottleActive {
		t.Fatal("throttle without redis must not report active")
	}
	if !report.RefreshUnbounded {
		t.Fatal("expected unbounded refresh tokens")
	}
	if report.AuditEnabled {
		t.Fatal("audit disabled by default")
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var e *Engine
	if r := e.SecurityReport(); r != (SecurityReport{}) {
		t.Fatalf("expected zero report, got %+v", r)
	}
}
