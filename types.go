package tokengate

import (
	"context"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokengate/internal/audit"
	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/permission"
)

// Role is the closed set of roles an access token can carry.
type Role = permission.Role

const (
	// RolePending is assigned to accounts that have not been approved yet.
	RolePending = permission.RolePending
	// RoleVisitor is the regular viewer role.
	RoleVisitor = permission.RoleVisitor
	// RoleAdmin can manage users, recordings and live sessions.
	RoleAdmin = permission.RoleAdmin
)

// Claims is the verified payload of an access token.
type Claims = jwt.Claims

// principalFromClaims returns the authorization subject described by c.
func principalFromClaims(c *Claims) *permission.Principal {
	if c == nil {
		return nil
	}
	return &permission.Principal{SubjectID: c.Subject, Role: Role(c.Role)}
}

// UserRecord is what a Directory returns for one account. SecretHash is the
// stored representation the password verifiers understand (argon2id PHC or
// bcrypt); tokengate never writes it.
type UserRecord struct {
	ID         string
	Identifier string
	Role       Role
	SecretHash string
}

// Directory is the external user store. Implementations return
// ErrIdentityNotFound when no record matches; any other error is treated as
// the directory being unavailable. Both lookups receive the request context.
type Directory interface {
	FindByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
	FindByID(ctx context.Context, id string) (UserRecord, error)
}

// Identity is a verified account: subject id and the role resolved at
// verification time.
type Identity struct {
	SubjectID string
	Role      Role
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	AccessToken     string
	RefreshToken    string
	Role            Role
	AccessExpiresAt time.Time
	// RefreshExpiresAt is zero when refresh tokens are unbounded.
	RefreshExpiresAt time.Time
}

// RefreshResult is returned by [Engine.Refresh].
type RefreshResult struct {
	AccessToken     string
	Role            Role
	AccessExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that writes events through a [*slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] logging to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
