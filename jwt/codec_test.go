package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	testAccessSecret  = []byte("access-secret-0123456789abcdef-0123")
	testRefreshSecret = []byte("refresh-secret-0123456789abcdef-012")
)

func newTestPair(t *testing.T, opts ...Option) *Pair {
	t.Helper()
	pair, err := NewPair(Config{Issuer: "tokengate"}, testAccessSecret, testRefreshSecret, opts...)
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	return pair
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	pair := newTestPair(t)

	token, issued, err := pair.Access.Issue(Claim{Subject: "user-1", Role: "admin"}, 20*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := pair.Access.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Fatalf("expected jti %q, got %q", issued.ID, claims.ID)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != 20*time.Minute {
		t.Fatalf("expected 20m validity window, got %+v", claims.RegisteredClaims)
	}
}

func TestRefreshTokenCarriesNoRole(t *testing.T) {
	pair := newTestPair(t)

	token, _, err := pair.Refresh.Issue(Claim{Subject: "user-1", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := pair.Refresh.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != "" {
		t.Fatalf("refresh token must not embed a role, got %q", claims.Role)
	}
}

func TestUnboundedRefreshTokenHasNoExpiry(t *testing.T) {
	pair := newTestPair(t)

	token, issued, err := pair.Refresh.Issue(Claim{Subject: "user-1"}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.ExpiresAt != nil {
		t.Fatalf("expected no exp claim, got %v", issued.ExpiresAt)
	}
	if _, err := pair.Refresh.Verify(token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyDistinguishesFailures(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	pair := newTestPair(t, WithClock(clock))

	token, _, err := pair.Access.Issue(Claim{Subject: "user-1", Role: "visitor"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := pair.Access.Verify("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed, got %v", err)
	}

	other, err := NewCodec(Config{Kind: KindAccess, Secret: []byte("another-secret-0123456789abcdef-0"), Issuer: "tokengate"})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	forged, _, err := other.Issue(Claim{Subject: "user-1", Role: "admin"}, time.Minute)
	if err != nil {
		t.Fatalf("issue forged: %v", err)
	}
	if _, err := pair.Access.Verify(forged); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected bad signature, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := pair.Access.Verify(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestTokenClassesDoNotCrossVerify(t *testing.T) {
	pair := newTestPair(t)

	refresh, _, err := pair.Refresh.Issue(Claim{Subject: "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := pair.Access.Verify(refresh); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}

	access, _, err := pair.Access.Issue(Claim{Subject: "user-1", Role: "admin"}, time.Minute)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := pair.Refresh.Verify(access); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("access token must not verify as refresh, got %v", err)
	}
}

func TestVerifyRejectsKindMismatchUnderSameSecret(t *testing.T) {
	access, err := NewCodec(Config{Kind: KindAccess, Secret: testAccessSecret})
	if err != nil {
		t.Fatalf("new access codec: %v", err)
	}
	refresh, err := NewCodec(Config{Kind: KindRefresh, Secret: testAccessSecret})
	if err != nil {
		t.Fatalf("new refresh codec: %v", err)
	}

	token, _, err := refresh.Issue(Claim{Subject: "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := access.Verify(token); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected kind mismatch to be malformed, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	pair := newTestPair(t)

	claims := Claims{Kind: KindAccess, Role: "admin", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "tokengate",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testAccessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := pair.Access.Verify(token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected wrong algorithm to be rejected as bad signature, got %v", err)
	}

	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := pair.Access.Verify(none); err == nil {
		t.Fatal("expected alg=none to be rejected")
	}
}

func TestVerifyRejectsWrongIssuerAndMissingExpiry(t *testing.T) {
	pair := newTestPair(t)

	wrongIssuer := Claims{Kind: KindAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "other",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, wrongIssuer).SignedString(testAccessSecret)
	if _, err := pair.Access.Verify(token); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected wrong issuer to be malformed, got %v", err)
	}

	noExpiry := Claims{Kind: KindAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  "tokengate",
	}}
	token, _ = gjwt.NewWithClaims(gjwt.SigningMethodHS256, noExpiry).SignedString(testAccessSecret)
	if _, err := pair.Access.Verify(token); err == nil {
		t.Fatal("expected access token without exp to be rejected")
	}
}

func TestNewPairRejectsSharedSecret(t *testing.T) {
	if _, err := NewPair(Config{}, testAccessSecret, testAccessSecret); err == nil {
		t.Fatal("expected identical secrets to be rejected")
	}
	if _, err := NewPair(Config{}, []byte("short"), testRefreshSecret); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}
