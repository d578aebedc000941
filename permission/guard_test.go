package permission

import (
	"errors"
	"testing"
)

func TestRequireRole(t *testing.T) {
	pred := RequireRole(RoleAdmin)

	if d := pred.Evaluate(Principal{SubjectID: "u1", Role: RoleAdmin}); !d.Allowed {
		t.Fatalf("expected admin allowed, got %+v", d)
	}
	d := pred.Evaluate(Principal{SubjectID: "u2", Role: RoleVisitor})
	if d.Allowed {
		t.Fatal("expected visitor denied")
	}
	if d.Reason == "" {
		t.Fatal("expected deny reason")
	}
}

func TestRequireOwner(t *testing.T) {
	pred := RequireOwner("u1")

	if d := pred.Evaluate(Principal{SubjectID: "u1", Role: RoleVisitor}); !d.Allowed {
		t.Fatal("expected owner allowed")
	}
	if d := pred.Evaluate(Principal{SubjectID: "u2", Role: RoleAdmin}); d.Allowed {
		t.Fatal("ownership must not be implied by role")
	}
	if d := RequireOwner("").Evaluate(Principal{SubjectID: "", Role: RoleVisitor}); d.Allowed {
		t.Fatal("empty owner must never match")
	}
}

func TestCombinators(t *testing.T) {
	ownerOrAdmin := AnyOf(RequireOwner("u1"), RequireRole(RoleAdmin))
	approvedOwner := AllOf(RequireOwner("u1"), RequireRole(RoleVisitor, RoleAdmin))

	cases := []struct {
		name string
		pred Predicate
		p    Principal
		want bool
	}{
		{"owner visitor any", ownerOrAdmin, Principal{"u1", RoleVisitor}, true},
		{"other admin any", ownerOrAdmin, Principal{"u2", RoleAdmin}, true},
		{"other visitor any", ownerOrAdmin, Principal{"u2", RoleVisitor}, false},
		{"owner visitor all", approvedOwner, Principal{"u1", RoleVisitor}, true},
		{"owner pending all", approvedOwner, Principal{"u1", RolePending}, false},
		{"empty any", AnyOf(), Principal{"u1", RoleAdmin}, false},
		{"empty all", AllOf(), Principal{"u1", RoleAdmin}, false},
	}
	for _, tc := range cases {
		if got := tc.pred.Evaluate(tc.p).Allowed; got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestGuardDistinguishesNoPrincipalFromDenied(t *testing.T) {
	var g Guard

	if err := g.Authorize(nil, RequireRole(RoleAdmin)); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	err := g.Authorize(&Principal{SubjectID: "u1", Role: RoleVisitor}, RequireRole(RoleAdmin))
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if errors.Is(err, ErrNoPrincipal) {
		t.Fatal("deny must not be reported as missing principal")
	}
	if err := g.Authorize(&Principal{SubjectID: "u1", Role: RoleAdmin}, RequireRole(RoleAdmin)); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
	if err := g.Authorize(&Principal{SubjectID: "u1", Role: RoleAdmin}, nil); !errors.Is(err, ErrDenied) {
		t.Fatalf("nil predicate must deny, got %v", err)
	}
}

func TestGuardReportsDecisions(t *testing.T) {
	var seen []Decision
	g := &Guard{OnDecision: func(_ Principal, d Decision) { seen = append(seen, d) }}

	_ = g.Authorize(&Principal{SubjectID: "u1", Role: RoleAdmin}, RequireRole(RoleAdmin))
	_ = g.Authorize(&Principal{SubjectID: "u1", Role: RolePending}, RequireRole(RoleAdmin))

	if len(seen) != 2 || !seen[0].Allowed || seen[1].Allowed {
		t.Fatalf("unexpected decisions: %+v", seen)
	}
}

func TestCapabilities(t *testing.T) {
	if !HasCapability(RoleAdmin, CapUserManage) {
		t.Fatal("admin must manage users")
	}
	if HasCapability(RoleVisitor, CapUserManage) {
		t.Fatal("visitor must not manage users")
	}
	if HasCapability(Role("ghost"), CapProfileRead) {
		t.Fatal("unknown role must have no capabilities")
	}
	if CapabilitiesFor(Role("ghost")) != nil {
		t.Fatal("expected nil capabilities for unknown role")
	}

	caps := CapabilitiesFor(RoleVisitor)
	caps[0] = CapUserManage
	if HasCapability(RoleVisitor, CapUserManage) {
		t.Fatal("CapabilitiesFor must return a copy")
	}

	pred := RequireCapability(CapLiveSchedule)
	if pred.Evaluate(Principal{"u1", RoleVisitor}).Allowed {
		t.Fatal("visitor must not schedule live sessions")
	}
	if !pred.Evaluate(Principal{"u1", RoleAdmin}).Allowed {
		t.Fatal("admin must schedule live sessions")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Admin "); !ok || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("expected unknown role rejected")
	}
}

func TestRolesAreTheValidSet(t *testing.T) {
	roles := Roles()
	want := []Role{RolePending, RoleVisitor, RoleAdmin}
	if len(roles) != len(want) {
		t.Fatalf("Roles()=%v, want %v", roles, want)
	}
	for i, r := range roles {
		if r != want[i] || !r.Valid() {
			t.Fatalf("Roles()[%d]=%q, want valid %q", i, r, want[i])
		}
	}
	if Role("").Valid() || Role("Admin").Valid() {
		t.Fatal("empty and non-normalized roles must be invalid")
	}
}
