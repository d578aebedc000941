package flows

import (
	"errors"
	"strings"

	"github.com/MrEthical07/tokengate/jwt"
	"github.com/MrEthical07/tokengate/permission"
)

// CheckFailureKind classifies access-token check failures for root-level mapping.
type CheckFailureKind int

const (
	CheckFailureNone CheckFailureKind = iota
	CheckFailureEmpty
	CheckFailureInvalid
	CheckFailureRole
)

// CheckResult returns either the verified claims or a classified failure.
type CheckResult struct {
	Failure CheckFailureKind
	Err     error
	Claims  *jwt.Claims
}

// CheckDeps captures access-token check dependencies.
type CheckDeps struct {
	VerifyAccess func(token string) (*jwt.Claims, error)
}

// RunCheck verifies an access token. It is stateless: no store is consulted.
func RunCheck(token string, deps CheckDeps) CheckResult {
	if strings.TrimSpace(token) == "" {
		return CheckResult{Failure: CheckFailureEmpty}
	}
	claims, err := deps.VerifyAccess(token)
	if err != nil {
		return CheckResult{Failure: CheckFailureInvalid, Err: err}
	}
	if !permission.Role(claims.Role).Valid() {
		return CheckResult{Failure: CheckFailureRole, Err: errors.New("access token carries unknown role")}
	}
	return CheckResult{Claims: claims}
}
