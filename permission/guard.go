package permission

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPrincipal means no verified identity accompanied the request.
	ErrNoPrincipal = errors.New("no principal")
	// ErrDenied means the principal is valid but the predicate refused it.
	ErrDenied = errors.New("access denied")
)

// Guard evaluates predicates against principals. The zero value is ready to
// use; OnDecision, if set, observes every evaluated decision.
type Guard struct {
	OnDecision func(p Principal, d Decision)
}

// Authorize returns nil when pred allows p. A nil principal yields
// ErrNoPrincipal; a deny (or a nil predicate) yields an error wrapping
// ErrDenied with the deny reason.
func (g *Guard) Authorize(p *Principal, pred Predicate) error {
	if p == nil || p.SubjectID == "" {
		return ErrNoPrincipal
	}

	d := Deny("no predicate")
	if pred != nil {
		d = pred.Evaluate(*p)
	}
	if g != nil && g.OnDecision != nil {
		g.OnDecision(*p, d)
	}
	if !d.Allowed {
		return fmt.Errorf("%w: %s", ErrDenied, d.Reason)
	}
	return nil
}
