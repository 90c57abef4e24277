package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/metrics"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

// AdminFinder loads admins for login and profile lookups.
type AdminFinder interface {
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	GetByID(ctx context.Context, id uint64) (model.Admin, error)
}

// UserFinder loads users for profile lookups.
type UserFinder interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// LoginLimiter is the three-dimension login counter.  *ratelimit.LoginGuard
// satisfies it.
type LoginLimiter interface {
	RetryAfter(ctx context.Context, email, ip string) (int, error)
	Penalize(ctx context.Context, email, ip string) error
}

// Session is an issued access/refresh pair.
type Session struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// AuthOptions are the knobs of AuthService.
type AuthOptions struct {
	LogoutRevokes bool
	BcryptCost    int
}

// AuthService runs login, refresh and logout for both audiences.
type AuthService struct {
	tokens  *TokenService
	admins  AdminFinder
	users   UserFinder
	limiter LoginLimiter
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    AuthOptions

	// compared against when the email is unknown so both failure paths
	// spend the same bcrypt time
	dummyHash string
}

func NewAuthService(tokens *TokenService, admins AdminFinder, users UserFinder, limiter LoginLimiter,
	m *metrics.Metrics, log *zap.Logger, opts AuthOptions) (*AuthService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dummy, err := utils.HashPassword("lottery-ticketing-dummy-password", opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		tokens:    tokens,
		admins:    admins,
		users:     users,
		limiter:   limiter,
		metrics:   m,
		log:       log.Named("auth"),
		opts:      opts,
		dummyHash: dummy,
	}, nil
}

// Login authenticates an admin by email and password.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (model.Admin, Session, error) {
	if ip == "" {
		return model.Admin{}, Session{}, apperror.Internal("IP address is missing", nil)
	}
	email = strings.TrimSpace(email)

	retry, err := s.limiter.RetryAfter(ctx, email, ip)
	if err != nil {
		s.log.Warn("login limiter unavailable", zap.Error(err))
	}
	if retry > 0 {
		s.metrics.LoginResult(metrics.LoginBlocked)
		return model.Admin{}, Session{}, apperror.TooManyAttempts(retry)
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.VerifyPassword(s.dummyHash, password)
		return model.Admin{}, Session{}, s.rejectLogin(ctx, email, ip)
	case err != nil:
		return model.Admin{}, Session{}, apperror.Internal("Failed to look up admin", err)
	}
	if !utils.VerifyPassword(admin.PasswordHash, password) {
		return model.Admin{}, Session{}, s.rejectLogin(ctx, email, ip)
	}

	sess, err := s.IssueSession(ctx, model.PrincipalRef{ID: admin.ID, Audience: model.AudienceAdmin})
	if err != nil {
		return model.Admin{}, Session{}, err
	}
	s.metrics.LoginResult(metrics.LoginSuccess)
	return admin, sess, nil
}

// rejectLogin records the failed attempt and returns the uniform error.
// Limiter failures are logged and dropped.
func (s *AuthService) rejectLogin(ctx context.Context, email, ip string) error {
	if err := s.limiter.Penalize(ctx, email, ip); err != nil {
		s.log.Warn("login limiter consume failed", zap.Error(err))
	}
	s.metrics.LoginResult(metrics.LoginInvalid)
	return apperror.InvalidCredentials()
}

// IssueSession mints an access and a refresh token concurrently.  When
// only the refresh side succeeded, its stored record is revoked again so no
// row outlives a failed issuance.
func (s *AuthService) IssueSession(ctx context.Context, ref model.PrincipalRef) (Session, error) {
	var sess Session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tok, err := s.tokens.IssueAccessToken(ref.ID, ref.Audience)
		sess.Access = tok
		return err
	})
	g.Go(func() error {
		tok, err := s.tokens.IssueRefreshToken(gctx, ref.ID, ref.Audience)
		sess.Refresh = tok
		return err
	})
	if err := g.Wait(); err != nil {
		if sess.Refresh.Token != "" {
			if rerr := s.tokens.RevokeRefreshToken(context.WithoutCancel(ctx), sess.Refresh.Token); rerr != nil {
				s.log.Warn("orphaned refresh token not revoked", zap.Error(rerr))
			}
		}
		return Session{}, err
	}
	return sess, nil
}

// RefreshSession rotates a refresh token: the presented token is revoked
// before the new pair is issued, so it can never be used twice.  If issuing
// fails afterwards the caller has to log in again.
func (s *AuthService) RefreshSession(ctx context.Context, raw string, aud model.Audience) (Session, error) {
	if raw == "" {
		return Session{}, apperror.Unauthorized("Refresh token is missing")
	}
	ref, err := s.tokens.VerifyRefreshToken(ctx, raw, aud)
	if err != nil {
		s.metrics.SessionRefreshed(string(aud), false)
		return Session{}, err
	}
	if err := s.tokens.RevokeRefreshToken(ctx, raw); err != nil {
		return Session{}, err
	}
	sess, err := s.IssueSession(ctx, ref)
	if err != nil {
		return Session{}, err
	}
	s.metrics.SessionRefreshed(string(aud), true)
	return sess, nil
}

// Logout revokes the presented refresh token when configured to.  It never
// fails: clearing the cookies is the caller's job and always happens.
func (s *AuthService) Logout(ctx context.Context, aud model.Audience, raw string) {
	if !s.opts.LogoutRevokes || raw == "" {
		return
	}
	if err := s.tokens.RevokeRefreshToken(ctx, raw); err != nil {
		s.log.Warn("logout revoke failed", zap.String("audience", string(aud)), zap.Error(err))
	}
}

// Authenticate validates an access token for aud.
func (s *AuthService) Authenticate(raw string, aud model.Audience) (model.PrincipalRef, error) {
	return s.tokens.ParseAccessToken(raw, aud)
}

// Principal loads the full principal behind ref.
func (s *AuthService) Principal(ctx context.Context, ref model.PrincipalRef) (model.Principal, error) {
	switch ref.Audience {
	case model.AudienceAdmin:
		a, err := s.admins.GetByID(ctx, ref.ID)
		if err != nil {
			return model.Principal{}, notFoundOr(err, "Admin not found", "Failed to load admin")
		}
		return model.AdminPrincipal(a), nil
	case model.AudienceUser:
		u, err := s.users.GetByID(ctx, ref.ID)
		if err != nil {
			return model.Principal{}, notFoundOr(err, "User not found", "Failed to load user")
		}
		return model.UserPrincipal(u), nil
	}
	return model.Principal{}, apperror.InvalidToken("")
}

// notFoundOr maps repository.ErrNotFound to a 404 and everything else to a
// masked internal error.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(internal, err)
}
