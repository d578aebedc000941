package jwt

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretBytes = 32

var (
	// ErrMalformed reports a token that is not structurally valid or carries
	// claims this codec does not accept (wrong kind, issuer, audience, subject).
	ErrMalformed = errors.New("token malformed")
	// ErrBadSignature reports a token whose signature does not verify under
	// the codec secret, including tokens signed with another algorithm.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrExpired reports a correctly signed token whose expiry has passed.
	ErrExpired = errors.New("token expired")
)

// Kind separates access tokens from refresh tokens inside the signed payload.
type Kind string

const (
	// KindAccess marks short-lived per-request credentials.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived credentials used only to mint access tokens.
	KindRefresh Kind = "refresh"
)

// Config defines how a Codec signs and verifies one token class.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Kind          Kind
	Secret        []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	RequireExpiry bool
}

// Claims is the signed payload shared by both token classes. Role is empty
// for refresh tokens.
type Claims struct {
	Role string `json:"role,omitempty"`
	Kind Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Claim is the identity a caller asks the codec to sign.
type Claim struct {
	Subject string
	Role    string
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec signs and verifies HS256 tokens of a single Kind with a single secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	config Config
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	switch cfg.Kind {
	case KindAccess, KindRefresh:
	default:
		return nil, errors.New("unsupported token kind")
	}
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("%s secret must be at least %d bytes", cfg.Kind, minSecretBytes)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	c := &Codec{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.RequireExpiry {
		options = append(options, jwt.WithExpirationRequired())
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	c.parser = jwt.NewParser(options...)

	return c, nil
}

// Issue signs claim with expiry now+ttl. A ttl of zero produces a token
// without an expiry claim; its validity then rests on external state only.
func (c *Codec) Issue(claim Claim, ttl time.Duration) (string, *Claims, error) {
	if strings.TrimSpace(claim.Subject) == "" {
		return "", nil, errors.New("claim subject is required")
	}
	if ttl < 0 {
		return "", nil, errors.New("ttl must not be negative")
	}

	now := c.now()
	claims := &Claims{
		Kind: c.config.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  claim.Subject,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
			Issuer:   c.config.Issuer,
		},
	}
	if c.config.Kind == KindAccess {
		claims.Role = claim.Role
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", c.config.Kind, err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and kind. Failures match exactly one of
// ErrMalformed, ErrBadSignature or ErrExpired under errors.Is.
func (c *Codec) Verify(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMalformed
	}

	parsed, err := c.parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Kind != c.config.Kind {
		return nil, fmt.Errorf("%w: unexpected token kind %q", ErrMalformed, claims.Kind)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if claims.IssuedAt != nil {
		if claims.IssuedAt.Time.After(c.now().Add(c.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrMalformed)
		}
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// Pair holds the access and refresh codecs. The two secrets must differ so a
// token of one class can never verify as the other.
type Pair struct {
	Access  *Codec
	Refresh *Codec
}

// NewPair builds both codecs from one shared base config and two secrets.
func NewPair(base Config, accessSecret, refreshSecret []byte, opts ...Option) (*Pair, error) {
	if len(accessSecret) > 0 && subtle.ConstantTimeCompare(accessSecret, refreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}

	accessCfg := base
	accessCfg.Kind = KindAccess
	accessCfg.Secret = accessSecret
	accessCfg.RequireExpiry = true
	access, err := NewCodec(accessCfg, opts...)
	if err != nil {
		return nil, err
	}

	refreshCfg := base
	refreshCfg.Kind = KindRefresh
	refreshCfg.Secret = refreshSecret
	refresh, err := NewCodec(refreshCfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Pair{Access: access, Refresh: refresh}, nil
}
