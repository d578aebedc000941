package tokengate

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokengate/jwt"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventRefreshSuccess   = "refresh_success"
	auditEventRefreshFailure   = "refresh_failure"
	auditEventLogout           = "logout"
	auditEventCheckFailure     = "check_failure"
)

// AuditErrorCode is the coarse failure reason recorded in [AuditEvent.Error].
// Codes never carry token material or secrets.
type AuditErrorCode string

const (
	auditErrMissingCredentials AuditErrorCode = "missing_credentials"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidRole        AuditErrorCode = "invalid_role"
	auditErrMalformedToken     AuditErrorCode = "malformed_token"
	auditErrBadSignature       AuditErrorCode = "bad_signature"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrSubjectNotFound    AuditErrorCode = "subject_not_found"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	sessionRef string,
	code AuditErrorCode,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	e.audit.Emit(ctx, AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		SubjectID:  subjectID,
		SessionRef: sessionRef,
		IP:         clientIPFromContext(ctx),
		Success:    success,
		Error:      string(code),
		Metadata:   metadata,
	})
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, jwt.ErrExpired):
		return auditErrExpired
	case errors.Is(err, jwt.ErrBadSignature):
		return auditErrBadSignature
	case errors.Is(err, jwt.ErrMalformed):
		return auditErrMalformedToken
	case errors.Is(err, ErrIdentityNotFound):
		return auditErrSubjectNotFound
	case errors.Is(err, ErrSecretMismatch):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
