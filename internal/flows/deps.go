package flows

import (
	"time"

	"github.com/MrEthical07/tokengate/permission"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Login   LoginDeps
	Refresh RefreshDeps
	Logout  LogoutDeps
	Check   CheckDeps
}

// Identity is the flow-local view of a resolved account.
type Identity struct {
	SubjectID string
	Role      permission.Role
}

// IssuedToken is a signed token with its expiry (zero when unbounded).
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
