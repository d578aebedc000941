package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Check.VerifyAccess != nil &&
		s.deps.Login.VerifyCredentials != nil &&
		s.deps.Refresh.VerifyRefresh != nil &&
		s.deps.Logout.Sessions != nil
}

func (s Service) Login(ctx context.Context, identifier, secret string) LoginResult {
	return RunLogin(ctx, identifier, secret, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) Check(token string) CheckResult {
	return RunCheck(token, s.deps.Check)
}
