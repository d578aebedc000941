package tokengate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	internalaudit "github.com/MrEthical07/tokengate/internal/audit"
	"github.com/MrEthical07/tokengate/internal/flows"
	"github.com/MrEthical07/tokengate/internal/rate"
	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/permission"
	"github.com/MrEthical07/tokengate/revocation"
)

// Engine issues, verifies, refreshes and revokes session credentials.
//
// An Engine is created by [Builder.Build] and is safe for concurrent use.
// Secrets and TTLs are fixed at build time; the revocation store is the only
// mutable shared state.
type Engine struct {
	config   Config
	pair     *jwt.Pair
	store    revocation.Store
	limiter  *rate.Limiter
	verifier *CredentialVerifier
	guard    *permission.Guard
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	flows    flows.Service

	stopPrune chan struct{}
	pruneWG   sync.WaitGroup
	closeOnce sync.Once
}

// Close stops background work and flushes the audit dispatcher. It is safe
// to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.stopPrune != nil {
			close(e.stopPrune)
			e.pruneWG.Wait()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// MetricsSnapshot returns a copy of the engine counters together with the
// audit delivery stats.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return emptySnapshot()
	}
	snap := e.metrics.Snapshot()
	st := e.audit.Stats()
	snap.Audit = AuditStats{Delivered: st.Delivered, Dropped: st.Dropped}
	return snap
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login verifies (identifier, secret) and opens a session: one access token
// and one refresh token registered in the revocation store.
//
// Unknown identifiers and wrong secrets both yield ErrUnauthorized. When the
// throttle is engaged the result is ErrRateLimited; backend failures yield
// ErrUnavailable and no tokens.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, identifier, secret)
	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureEmpty:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", auditErrMissingCredentials, nil)
		return nil, ErrUnauthorized
	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", auditErrRateLimited, nil)
		return nil, ErrRateLimited
	case flows.LoginFailureCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", auditErrInvalidCredentials, nil)
		return nil, ErrUnauthorized
	case flows.LoginFailureRole:
		e.metricInc(MetricLoginFailure)
		e.logger.Warn("tokengate: directory returned unknown role",
			"subject", res.Identity.SubjectID, "role", string(res.Identity.Role))
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Identity.SubjectID, "", auditErrInvalidRole, nil)
		return nil, ErrUnauthorized
	case flows.LoginFailureIssue:
		e.metricInc(MetricLoginFailure)
		e.logger.Error("tokengate: token issuance failed", "error", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Identity.SubjectID, "", auditErrInternal, nil)
		return nil, ErrUnavailable
	default:
		e.metricInc(MetricLoginFailure)
		e.metricInc(MetricBackendUnavailable)
		e.logger.Error("tokengate: login backend unavailable", "error", res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Identity.SubjectID, "", auditErrUnavailable, nil)
		return nil, ErrUnavailable
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.Identity.SubjectID, sessionRef(res.Refresh.Token), "", func() map[string]string {
		return map[string]string{"role": string(res.Identity.Role)}
	})

	return &LoginResult{
		AccessToken:      res.Access.Token,
		RefreshToken:     res.Refresh.Token,
		Role:             res.Identity.Role,
		AccessExpiresAt:  res.Access.ExpiresAt,
		RefreshExpiresAt: res.Refresh.ExpiresAt,
	}, nil
}

// Refresh mints a new access token for a live session. The role is looked
// up again in the directory; the refresh token is not rotated.
//
// A missing token is ErrUnauthorized. Tokens that were never issued, were
// logged out, are expired or badly signed, or whose subject is gone are all
// ErrForbidden, without distinction.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	ref := sessionRef(refreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureEmpty:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", auditErrMissingCredentials, nil)
		return nil, ErrUnauthorized
	case flows.RefreshFailureInvalid:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", ref, auditErrorCode(res.Err), nil)
		return nil, ErrForbidden
	case flows.RefreshFailureExpired:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricSessionInvalidated)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", ref, auditErrExpired, nil)
		return nil, ErrForbidden
	case flows.RefreshFailureNotActive:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.SubjectID, ref, auditErrSessionNotFound, nil)
		return nil, ErrForbidden
	case flows.RefreshFailureSubjectGone:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricSessionInvalidated)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.SubjectID, ref, auditErrSubjectNotFound, nil)
		return nil, ErrForbidden
	case flows.RefreshFailureRole:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricSessionInvalidated)
		e.logger.Warn("tokengate: directory returned unknown role",
			"subject", res.SubjectID, "role", string(res.Identity.Role))
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.SubjectID, ref, auditErrInvalidRole, nil)
		return nil, ErrForbidden
	case flows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		e.logger.Error("tokengate: token issuance failed", "error", res.Err)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.SubjectID, ref, auditErrInternal, nil)
		return nil, ErrUnavailable
	default:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricBackendUnavailable)
		e.logger.Error("tokengate: refresh backend unavailable", "error", res.Err)
		e.emitAudit(ctx, auditEventRefreshFailure, false, res.SubjectID, ref, auditErrUnavailable, nil)
		return nil, ErrUnavailable
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, res.SubjectID, ref, "", func() map[string]string {
		return map[string]string{"role": string(res.Identity.Role)}
	})

	return &RefreshResult{
		AccessToken:     res.Access.Token,
		Role:            res.Identity.Role,
		AccessExpiresAt: res.Access.ExpiresAt,
	}, nil
}

// Logout forgets refreshToken. It needs no valid signature and succeeds for
// tokens that were never issued or already logged out. Once Logout returns,
// Refresh with the same token fails.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	switch res.Failure {
	case flows.LogoutFailureNone:
	case flows.LogoutFailureEmpty:
		e.emitAudit(ctx, auditEventLogout, false, "", "", auditErrMissingCredentials, nil)
		return ErrUnauthorized
	default:
		e.metricInc(MetricBackendUnavailable)
		e.logger.Error("tokengate: logout backend unavailable", "error", res.Err)
		e.emitAudit(ctx, auditEventLogout, false, "", sessionRef(refreshToken), auditErrUnavailable, nil)
		return ErrUnavailable
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogout, true, "", sessionRef(refreshToken), "", nil)
	return nil
}

// Check verifies an access token. It is stateless: only the signature,
// expiry and role are examined. A missing token is ErrUnauthorized and any
// other failure is ErrForbidden.
func (e *Engine) Check(ctx context.Context, accessToken string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := e.flows.Check(accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricCheckLatency, time.Since(start))
	}

	switch res.Failure {
	case flows.CheckFailureNone:
		e.metricInc(MetricCheckSuccess)
		return res.Claims, nil
	case flows.CheckFailureEmpty:
		e.metricInc(MetricCheckFailure)
		return nil, ErrUnauthorized
	case flows.CheckFailureRole:
		e.metricInc(MetricCheckFailure)
		e.emitAudit(ctx, auditEventCheckFailure, false, "", "", auditErrInvalidRole, nil)
		return nil, ErrForbidden
	default:
		e.metricInc(MetricCheckFailure)
		e.emitAudit(ctx, auditEventCheckFailure, false, "", "", auditErrorCode(res.Err), nil)
		return nil, ErrForbidden
	}
}

// CheckHeader extracts the bearer token from an Authorization header value
// and checks it. A missing header or any scheme other than Bearer is
// ErrUnauthorized.
func (e *Engine) CheckHeader(ctx context.Context, authorization string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	token, ok := bearerToken(authorization)
	if !ok {
		e.metricInc(MetricCheckFailure)
		return nil, ErrUnauthorized
	}
	return e.Check(ctx, token)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Authorize evaluates pred for the holder of claims. Nil claims yield
// ErrUnauthorized and a denial yields ErrForbidden.
func (e *Engine) Authorize(claims *Claims, pred permission.Predicate) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	err := e.guard.Authorize(principalFromClaims(claims), pred)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, permission.ErrNoPrincipal):
		return ErrUnauthorized
	default:
		return ErrForbidden
	}
}

func (e *Engine) observeDecision(p permission.Principal, d permission.Decision) {
	if d.Allowed {
		e.metricInc(MetricAuthorizeAllow)
		return
	}
	e.metricInc(MetricAuthorizeDeny)
	e.logger.Debug("tokengate: authorization denied",
		"subject", p.SubjectID, "role", string(p.Role), "reason", d.Reason)
}

// Ready reports whether the revocation store answers. Stores without a
// health check are assumed ready.
func (e *Engine) Ready(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	pinger, ok := e.store.(interface {
		Ping(ctx context.Context) (time.Duration, error)
	})
	if !ok {
		return nil
	}
	if _, err := pinger.Ping(ctx); err != nil {
		e.logger.Error("tokengate: revocation store ping failed", "error", err)
		return ErrUnavailable
	}
	return nil
}

func (e *Engine) startPruner(m *revocation.Memory, every time.Duration) {
	e.stopPrune = make(chan struct{})
	e.pruneWG.Add(1)
	go func() {
		defer e.pruneWG.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Prune(e.now()); n > 0 {
					e.logger.Debug("tokengate: pruned expired refresh sessions", "count", n)
				}
			case <-e.stopPrune:
				return
			}
		}
	}()
}

// sessionRef is the log-safe handle of a refresh token.
func sessionRef(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	return revocation.Fingerprint(token)[:12]
}
