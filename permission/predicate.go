package permission

import (
	"fmt"
	"strings"
)

// Principal is the verified identity a predicate is evaluated against.
type Principal struct {
	SubjectID string
	Role      Role
}

// Decision is the outcome of evaluating a predicate. Reason is set on deny
// and is meant for logs, not for clients.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Predicate is a route-specific access rule.
type Predicate interface {
	Evaluate(p Principal) Decision
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(p Principal) Decision

// Evaluate implements Predicate.
func (f PredicateFunc) Evaluate(p Principal) Decision {
	return f(p)
}

type roleSet []Role

// RequireRole allows principals whose role is one of roles.
func RequireRole(roles ...Role) Predicate {
	return roleSet(append([]Role(nil), roles...))
}

func (s roleSet) Evaluate(p Principal) Decision {
	for _, r := range s {
		if p.Role == r {
			return Allow()
		}
	}
	return Deny(fmt.Sprintf("role %q not in %v", p.Role, []Role(s)))
}

type owner string

// RequireOwner allows only the principal whose subject id equals ownerID.
// An empty ownerID never matches.
func RequireOwner(ownerID string) Predicate {
	return owner(ownerID)
}

func (o owner) Evaluate(p Principal) Decision {
	if o == "" || p.SubjectID != string(o) {
		return Deny("subject is not the resource owner")
	}
	return Allow()
}

type anyOf []Predicate

// AnyOf allows when at least one of preds allows. With no predicates it denies.
func AnyOf(preds ...Predicate) Predicate {
	return anyOf(append([]Predicate(nil), preds...))
}

func (a anyOf) Evaluate(p Principal) Decision {
	if len(a) == 0 {
		return Deny("no predicate to satisfy")
	}
	reasons := make([]string, 0, len(a))
	for _, pred := range a {
		if pred == nil {
			continue
		}
		d := pred.Evaluate(p)
		if d.Allowed {
			return d
		}
		reasons = append(reasons, d.Reason)
	}
	return Deny(strings.Join(reasons, "; "))
}

type allOf []Predicate

// AllOf allows when every one of preds allows. With no predicates it denies.
func AllOf(preds ...Predicate) Predicate {
	return allOf(append([]Predicate(nil), preds...))
}

func (a allOf) Evaluate(p Principal) Decision {
	if len(a) == 0 {
		return Deny("no predicate to satisfy")
	}
	for _, pred := range a {
		if pred == nil {
			return Deny("nil predicate")
		}
		if d := pred.Evaluate(p); !d.Allowed {
			return d
		}
	}
	return Allow()
}
