package tokengate

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/tokengate/internal/flows"
	"github.com/MrEthical07/tokengate/internal/rate"
	"github.com/MrEthical07/tokengate/jwt"
)

// flowDeps adapts engine collaborators to the function-typed dependency sets
// the flows consume.
func (e *Engine) flowDeps() flows.Deps {
	warn := func(msg string, args ...any) { e.logger.Warn(msg, args...) }

	login := flows.LoginDeps{
		ClientIPFromContext: clientIPFromContext,
		VerifyCredentials: func(ctx context.Context, identifier, secret string) (flows.Identity, error) {
			id, err := e.verifier.Verify(ctx, identifier, secret)
			return flows.Identity(id), err
		},
		Rejected:     credentialRejected,
		IssueAccess:  e.issueAccess,
		IssueRefresh: e.issueRefresh,
		Sessions:     e.store,
		Warn:         warn,
	}
	if e.limiter != nil {
		login.CheckThrottle = e.limiter.CheckLogin
		login.RecordFailure = e.limiter.IncrementLogin
		login.ResetThrottle = e.limiter.ResetLogin
		login.ThrottleTarget = rate.ErrRateLimited
	}

	return flows.Deps{
		Login: login,
		Refresh: flows.RefreshDeps{
			VerifyRefresh: func(token string) (string, error) {
				claims, err := e.pair.Refresh.Verify(token)
				if err != nil {
					return "", err
				}
				return claims.Subject, nil
			},
			Expired:  func(err error) bool { return errors.Is(err, jwt.ErrExpired) },
			Sessions: e.store,
			LookupSubject: func(ctx context.Context, subjectID string) (flows.Identity, error) {
				id, err := e.verifier.Resolve(ctx, subjectID)
				return flows.Identity(id), err
			},
			SubjectMissing: func(err error) bool { return errors.Is(err, ErrIdentityNotFound) },
			IssueAccess:    e.issueAccess,
			Warn:           warn,
		},
		Logout: flows.LogoutDeps{
			Sessions: e.store,
		},
		Check: flows.CheckDeps{
			VerifyAccess: e.pair.Access.Verify,
		},
	}
}

func (e *Engine) issueAccess(id flows.Identity) (flows.IssuedToken, error) {
	return issue(e.pair.Access, jwt.Claim{Subject: id.SubjectID, Role: id.Role.String()}, e.config.JWT.AccessTTL)
}

func (e *Engine) issueRefresh(id flows.Identity) (flows.IssuedToken, error) {
	return issue(e.pair.Refresh, jwt.Claim{Subject: id.SubjectID}, e.config.JWT.RefreshTTL)
}

func issue(codec *jwt.Codec, claim jwt.Claim, ttl time.Duration) (flows.IssuedToken, error) {
	token, claims, err := codec.Issue(claim, ttl)
	if err != nil {
		return flows.IssuedToken{}, err
	}
	out := flows.IssuedToken{Token: token}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
