package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/permission"
	"github.com/MrEthical07/tokengate/revocation"
)

var (
	errNotFound  = errors.New("not found")
	errMismatch  = errors.New("mismatch")
	errThrottled = errors.New("throttled")
	errDown      = errors.New("down")
)

type failingStore struct{ err error }

func (f failingStore) Add(context.Context, string, time.Time) error   { return f.err }
func (f failingStore) Remove(context.Context, string) error           { return f.err }
func (f failingStore) Contains(context.Context, string) (bool, error) { return false, f.err }

func issuer(prefix string) func(Identity) (IssuedToken, error) {
	return func(id Identity) (IssuedToken, error) {
		return IssuedToken{Token: prefix + ":" + id.SubjectID + ":" + string(id.Role), ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
}

func baseLoginDeps(store LoginSessionStore) LoginDeps {
	return LoginDeps{
		VerifyCredentials: func(_ context.Context, identifier, secret string) (Identity, error) {
			switch {
			case identifier == "down@example.com":
				return Identity{}, errDown
			case identifier != "alice@example.com":
				return Identity{}, errNotFound
			case secret != "correct":
				return Identity{}, errMismatch
			}
			return Identity{SubjectID: "u1", Role: permission.RoleVisitor}, nil
		},
		Rejected: func(err error) bool {
			return errors.Is(err, errNotFound) || errors.Is(err, errMismatch)
		},
		IssueAccess:  issuer("access"),
		IssueRefresh: issuer("refresh"),
		Sessions:     store,
	}
}

func TestRunLoginSuccessRegistersRefresh(t *testing.T) {
	store := revocation.NewMemory(nil)
	reset := 0
	deps := baseLoginDeps(store)
	deps.ResetThrottle = func(context.Context, string) error { reset++; return nil }

	res := RunLogin(context.Background(), "alice@example.com", "correct", deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.Identity.Role != permission.RoleVisitor || res.Access.Token == "" || res.Refresh.Token == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ok, _ := store.Contains(context.Background(), res.Refresh.Token); !ok {
		t.Fatal("expected refresh token registered in store")
	}
	if reset != 1 {
		t.Fatalf("expected throttle reset once, got %d", reset)
	}
}

func TestRunLoginFailureKinds(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewMemory(nil)

	cases := []struct {
		name       string
		identifier string
		secret     string
		deps       func() LoginDeps
		want       LoginFailureKind
	}{
		{"empty identifier", "", "x", func() LoginDeps { return baseLoginDeps(store) }, LoginFailureEmpty},
		{"empty secret", "alice@example.com", "", func() LoginDeps { return baseLoginDeps(store) }, LoginFailureEmpty},
		{"unknown identifier", "bob@example.com", "correct", func() LoginDeps { return baseLoginDeps(store) }, LoginFailureCredentials},
		{"wrong secret", "alice@example.com", "wrong", func() LoginDeps { return baseLoginDeps(store) }, LoginFailureCredentials},
		{"directory down", "down@example.com", "x", func() LoginDeps { return baseLoginDeps(store) }, LoginFailureUnavailable},
		{"store down", "alice@example.com", "correct", func() LoginDeps { return baseLoginDeps(failingStore{errDown}) }, LoginFailureStore},
		{"throttled", "alice@example.com", "correct", func() LoginDeps {
			d := baseLoginDeps(store)
			d.ThrottleTarget = errThrottled
			d.CheckThrottle = func(context.Context, string, string) error { return errThrottled }
			return d
		}, LoginFailureRateLimited},
		{"throttle backend down", "alice@example.com", "correct", func() LoginDeps {
			d := baseLoginDeps(store)
			d.ThrottleTarget = errThrottled
			d.CheckThrottle = func(context.Context, string, string) error { return errDown }
			return d
		}, LoginFailureUnavailable},
		{"unknown role", "alice@example.com", "correct", func() LoginDeps {
			d := baseLoginDeps(store)
			d.VerifyCredentials = func(context.Context, string, string) (Identity, error) {
				return Identity{SubjectID: "u1", Role: "superuser"}, nil
			}
			return d
		}, LoginFailureRole},
	}

	for _, tc := range cases {
		res := RunLogin(ctx, tc.identifier, tc.secret, tc.deps())
		if res.Failure != tc.want {
			t.Fatalf("%s: expected failure %v, got %v (%v)", tc.name, tc.want, res.Failure, res.Err)
		}
		if res.Failure != LoginFailureNone && (res.Access.Token != "" || res.Refresh.Token != "") {
			t.Fatalf("%s: tokens must not be returned on failure", tc.name)
		}
	}
}

func TestRunLoginRecordsRejectedAttempts(t *testing.T) {
	recorded := 0
	deps := baseLoginDeps(revocation.NewMemory(nil))
	deps.RecordFailure = func(_ context.Context, identifier, ip string) error {
		recorded++
		if ip != "10.1.1.1" {
			t.Fatalf("expected client ip passed through, got %q", ip)
		}
		return nil
	}
	deps.ClientIPFromContext = func(context.Context) string { return "10.1.1.1" }

	RunLogin(context.Background(), "alice@example.com", "wrong", deps)
	RunLogin(context.Background(), "down@example.com", "x", deps)

	if recorded != 1 {
		t.Fatalf("only credential rejections count as failures, got %d", recorded)
	}
}

func newRefreshDeps(t *testing.T, store RefreshSessionStore, users map[string]permission.Role) (RefreshDeps, *jwt.Pair) {
	t.Helper()
	pair, err := jwt.NewPair(jwt.Config{Issuer: "flows-test"},
		[]byte("flows-access-secret-0123456789abcdef"),
		[]byte("flows-refresh-secret-0123456789abcde"))
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	return RefreshDeps{
		VerifyRefresh: func(token string) (string, error) {
			claims, err := pair.Refresh.Verify(token)
			if err != nil {
				return "", err
			}
			return claims.Subject, nil
		},
		Expired:  func(err error) bool { return errors.Is(err, jwt.ErrExpired) },
		Sessions: store,
		LookupSubject: func(_ context.Context, id string) (Identity, error) {
			role, ok := users[id]
			if !ok {
				return Identity{}, errNotFound
			}
			return Identity{SubjectID: id, Role: role}, nil
		},
		SubjectMissing: func(err error) bool { return errors.Is(err, errNotFound) },
		IssueAccess:    issuer("access"),
	}, pair
}

func TestRunRefreshReResolvesRole(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewMemory(nil)
	users := map[string]permission.Role{"u1": permission.RolePending}
	deps, pair := newRefreshDeps(t, store, users)

	token, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Hour)
	_ = store.Add(ctx, token, time.Now().Add(time.Hour))

	users["u1"] = permission.RoleAdmin
	res := RunRefresh(ctx, token, deps)
	if res.Failure != RefreshFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.Identity.Role != permission.RoleAdmin {
		t.Fatalf("expected re-resolved admin role, got %q", res.Identity.Role)
	}
	if ok, _ := store.Contains(ctx, token); !ok {
		t.Fatal("refresh must not rotate or remove the refresh token")
	}
}

func TestRunRefreshFailureKinds(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewMemory(nil)
	users := map[string]permission.Role{"u1": permission.RoleVisitor, "u3": "ghost"}
	deps, pair := newRefreshDeps(t, store, users)

	live, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Hour)
	unregistered, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Hour)
	gone, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u2"}, time.Hour)
	badRole, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u3"}, time.Hour)
	access, _, _ := pair.Access.Issue(jwt.Claim{Subject: "u1", Role: "visitor"}, time.Hour)
	for _, tok := range []string{live, gone, badRole, access} {
		_ = store.Add(ctx, tok, time.Time{})
	}

	cases := []struct {
		name  string
		token string
		want  RefreshFailureKind
	}{
		{"empty", " ", RefreshFailureEmpty},
		{"garbage", "garbage", RefreshFailureInvalid},
		{"access token", access, RefreshFailureInvalid},
		{"not registered", unregistered, RefreshFailureNotActive},
		{"subject gone", gone, RefreshFailureSubjectGone},
		{"bad role", badRole, RefreshFailureRole},
		{"live", live, RefreshFailureNone},
	}
	for _, tc := range cases {
		if res := RunRefresh(ctx, tc.token, deps); res.Failure != tc.want {
			t.Fatalf("%s: expected %v, got %v (%v)", tc.name, tc.want, res.Failure, res.Err)
		}
	}

	for _, tok := range []string{gone, badRole} {
		if ok, _ := store.Contains(ctx, tok); ok {
			t.Fatal("dead sessions must be removed from the store")
		}
	}
}

func TestRunRefreshExpiredRemovesEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := revocation.NewMemory(nil)
	deps, _ := newRefreshDeps(t, store, map[string]permission.Role{"u1": permission.RoleVisitor})

	pair, err := jwt.NewPair(jwt.Config{Issuer: "flows-test"},
		[]byte("flows-access-secret-0123456789abcdef"),
		[]byte("flows-refresh-secret-0123456789abcde"),
		jwt.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	token, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Minute)
	_ = store.Add(ctx, token, time.Time{})

	now = now.Add(time.Hour)
	deps.VerifyRefresh = func(tok string) (string, error) {
		claims, err := pair.Refresh.Verify(tok)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}

	if res := RunRefresh(ctx, token, deps); res.Failure != RefreshFailureExpired {
		t.Fatalf("expected expired, got %v (%v)", res.Failure, res.Err)
	}
	if ok, _ := store.Contains(ctx, token); ok {
		t.Fatal("expected expired entry to be removed")
	}
}

func TestRunRefreshStoreDown(t *testing.T) {
	deps, pair := newRefreshDeps(t, failingStore{errDown}, map[string]permission.Role{"u1": permission.RoleVisitor})
	token, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Hour)

	if res := RunRefresh(context.Background(), token, deps); res.Failure != RefreshFailureUnavailable {
		t.Fatalf("expected unavailable, got %v", res.Failure)
	}
}

func TestRunLogout(t *testing.T) {
	ctx := context.Background()
	store := revocation.NewMemory(nil)
	_ = store.Add(ctx, "tok", time.Time{})
	deps := LogoutDeps{Sessions: store}

	if res := RunLogout(ctx, "", deps); res.Failure != LogoutFailureEmpty {
		t.Fatalf("expected empty failure, got %v", res.Failure)
	}
	if res := RunLogout(ctx, "tok", deps); res.Failure != LogoutFailureNone {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res := RunLogout(ctx, "tok", deps); res.Failure != LogoutFailureNone {
		t.Fatalf("second logout must be idempotent: %v", res.Err)
	}
	if ok, _ := store.Contains(ctx, "tok"); ok {
		t.Fatal("expected token removed")
	}
	if res := RunLogout(ctx, "tok", LogoutDeps{Sessions: failingStore{errDown}}); res.Failure != LogoutFailureUnavailable {
		t.Fatalf("expected unavailable, got %v", res.Failure)
	}
}

func TestRunCheck(t *testing.T) {
	pair, err := jwt.NewPair(jwt.Config{},
		[]byte("flows-access-secret-0123456789abcdef"),
		[]byte("flows-refresh-secret-0123456789abcde"))
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	deps := CheckDeps{VerifyAccess: pair.Access.Verify}

	good, _, _ := pair.Access.Issue(jwt.Claim{Subject: "u1", Role: "admin"}, time.Minute)
	unknownRole, _, _ := pair.Access.Issue(jwt.Claim{Subject: "u1", Role: "root"}, time.Minute)
	refresh, _, _ := pair.Refresh.Issue(jwt.Claim{Subject: "u1"}, time.Minute)

	if res := RunCheck("", deps); res.Failure != CheckFailureEmpty {
		t.Fatalf("expected empty, got %v", res.Failure)
	}
	if res := RunCheck(refresh, deps); res.Failure != CheckFailureInvalid {
		t.Fatalf("refresh token must not pass check, got %v", res.Failure)
	}
	if res := RunCheck(unknownRole, deps); res.Failure != CheckFailureRole {
		t.Fatalf("expected role failure, got %v", res.Failure)
	}
	res := RunCheck(good, deps)
	if res.Failure != CheckFailureNone || res.Claims.Subject != "u1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
