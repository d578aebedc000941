package security

import "time"

// Report summarizes the effective security posture of an engine.
type Report struct {
	SigningAlgorithm    string
	Issuer              string
	AudienceBound       bool
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	RefreshUnbounded    bool
	Leeway              time.Duration
	RevocationBackend   string
	LoginThrottleActive bool
	IPThrottleActive    bool
	MaxLoginAttempts    int
	LoginCooldown       time.Duration
	AuditEnabled        bool
	AuditDropIfFull     bool
	MetricsEnabled      bool
}

// ReportInput is the raw configuration a Report is derived from.
type ReportInput struct {
	SigningAlgorithm      string
	Issuer                string
	Audience              string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	Leeway                time.Duration
	RevocationBackend     string
	ThrottleConfigured    bool
	ThrottleWired         bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	AuditEnabled          bool
	AuditDropIfFull       bool
	MetricsEnabled        bool
}

// BuildReport derives the posture from input. A throttle only counts as
// active when it is both configured and backed by a live counter store.
func BuildReport(input ReportInput) Report {
	throttle := input.ThrottleConfigured &&
		input.ThrottleWired &&
		input.MaxLoginAttempts > 0 &&
		input.LoginCooldownDuration > 0

	backend := input.RevocationBackend
	if backend == "" {
		backend = "custom"
	}

	r := Report{
		SigningAlgorithm:    input.SigningAlgorithm,
		Issuer:              input.Issuer,
		AudienceBound:       input.Audience != "",
		AccessTTL:           input.AccessTTL,
		RefreshTTL:          input.RefreshTTL,
		RefreshUnbounded:    input.RefreshTTL <= 0,
		Leeway:              input.Leeway,
		RevocationBackend:   backend,
		LoginThrottleActive: throttle,
		IPThrottleActive:    throttle && input.EnableIPThrottle,
		AuditEnabled:        input.AuditEnabled,
		AuditDropIfFull:     input.AuditEnabled && input.AuditDropIfFull,
		MetricsEnabled:      input.MetricsEnabled,
	}
	if throttle {
		r.MaxLoginAttempts = input.MaxLoginAttempts
		r.LoginCooldown = input.LoginCooldownDuration
	}
	return r
}
