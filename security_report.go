package tokengate

import (
	"github.com/MrEthical07/tokengate/internal/security"
	"github.com/MrEthical07/tokengate/revocation"
)

// SecurityReport is a snapshot of the engine's effective security posture.
// It holds no secret material.
type SecurityReport = security.Report

// SecurityReport reports the posture the engine was built with.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return security.BuildReport(security.ReportInput{
		SigningAlgorithm:      "HS256",
		Issuer:                e.config.JWT.Issuer,
		Audience:              e.config.JWT.Audience,
		AccessTTL:             e.config.JWT.AccessTTL,
		RefreshTTL:            e.config.JWT.RefreshTTL,
		Leeway:                e.config.JWT.Leeway,
		RevocationBackend:     storeKind(e.store),
		ThrottleConfigured:    e.config.Security.EnableLoginThrottle,
		ThrottleWired:         e.limiter != nil,
		EnableIPThrottle:      e.config.Security.EnableIPThrottle,
		MaxLoginAttempts:      e.config.Security.MaxLoginAttempts,
		LoginCooldownDuration: e.config.Security.LoginCooldownDuration,
		AuditEnabled:          e.audit != nil,
		AuditDropIfFull:       e.config.Audit.DropIfFull,
		MetricsEnabled:        e.config.Metrics.Enabled,
	})
}

func storeKind(store revocation.Store) string {
	switch store.(type) {
	case *revocation.Memory:
		return "memory"
	case *revocation.Redis:
		return "redis"
	case *revocation.Postgres:
		return "postgres"
	default:
		return ""
	}
}
