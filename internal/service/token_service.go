package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

// TokenStore persists refresh tokens.  *repository.TokenRepo satisfies it.
type TokenStore interface {
	Create(ctx context.Context, rec model.TokenRecord) error
	FindActive(ctx context.Context, aud model.Audience, ownerID uint64, token, tokenHash string) (model.TokenRecord, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteAllForOwner(ctx context.Context, aud model.Audience, ownerID uint64) error
}

// TokenConfig carries signing secrets and the expiry strings ("15m", "7d").
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  string
	RefreshExpiry string
}

// TokenService issues, verifies, rotates and revokes session tokens for
// both audiences.  Access tokens are stateless; refresh tokens are valid
// only while their row exists in the store.
type TokenService struct {
	store TokenStore
	cfg   TokenConfig
	now   func() time.Time
}

func NewTokenService(store TokenStore, cfg TokenConfig) *TokenService {
	return &TokenService{store: store, cfg: cfg, now: time.Now}
}

// IssueAccessToken signs {id, role} with the access secret.
func (s *TokenService) IssueAccessToken(id uint64, aud model.Audience) (utils.SignedToken, error) {
	if s.cfg.AccessSecret == "" {
		return utils.SignedToken{}, apperror.Config("JWT secret is not set")
	}
	ttl := utils.Millis(utils.ParseDuration(s.cfg.AccessExpiry))
	if ttl <= 0 {
		return utils.SignedToken{}, apperror.Config("JWT expiration is invalid")
	}
	tok, err := utils.SignToken(s.cfg.AccessSecret, id, string(aud), ttl, s.now())
	if err != nil {
		return utils.SignedToken{}, apperror.Internal("Failed to sign token", err)
	}
	return tok, nil
}

// IssueRefreshToken signs a refresh token and stores its record.
func (s *TokenService) IssueRefreshToken(ctx context.Context, id uint64, aud model.Audience) (utils.SignedToken, error) {
	if s.cfg.RefreshSecret == "" {
		return utils.SignedToken{}, apperror.Config("JWT refresh secret is not set")
	}
	ttl := utils.Millis(utils.ParseDuration(s.cfg.RefreshExpiry))
	if ttl <= 0 {
		return utils.SignedToken{}, apperror.Config("JWT refresh expiration is invalid")
	}
	tok, err := utils.SignToken(s.cfg.RefreshSecret, id, string(aud), ttl, s.now())
	if err != nil {
		return utils.SignedToken{}, apperror.Internal("Failed to sign token", err)
	}
	rec := model.TokenRecord{
		Audience:  aud,
		OwnerID:   id,
		Token:     tok.Token,
		TokenHash: utils.HashToken(tok.Token),
		Type:      model.TokenTypeRefresh,
		ExpiresAt: tok.Exp,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return utils.SignedToken{}, apperror.Persistence("Failed to store refresh token", err)
	}
	return tok, nil
}

// VerifyRefreshToken checks signature, expiry and audience, then requires a
// live record holding the same raw token.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, raw string, aud model.Audience) (model.PrincipalRef, error) {
	if s.cfg.RefreshSecret == "" {
		return model.PrincipalRef{}, apperror.Config("JWT refresh secret is not set")
	}
	claims, err := utils.ParseToken(s.cfg.RefreshSecret, raw)
	if err != nil {
		return model.PrincipalRef{}, tokenError(err)
	}
	if model.Audience(claims.Role) != aud || claims.PrincipalID == 0 {
		return model.PrincipalRef{}, apperror.InvalidToken("")
	}
	if _, err := s.store.FindActive(ctx, aud, claims.PrincipalID, raw, utils.HashToken(raw)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PrincipalRef{}, apperror.RevokedToken()
		}
		return model.PrincipalRef{}, apperror.Internal("Failed to verify refresh token", err)
	}
	return model.PrincipalRef{ID: claims.PrincipalID, Audience: aud}, nil
}

// RevokeRefreshToken deletes the record of raw.  A token that is already
// gone is not an error.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if err := s.store.DeleteByHash(ctx, utils.HashToken(raw)); err != nil {
		return apperror.Persistence("Failed to revoke refresh token", err)
	}
	return nil
}

// RevokeAll ends every session of one principal.
func (s *TokenService) RevokeAll(ctx context.Context, ref model.PrincipalRef) error {
	if err := s.store.DeleteAllForOwner(ctx, ref.Audience, ref.ID); err != nil {
		return apperror.Persistence("Failed to revoke sessions", err)
	}
	return nil
}

// ParseAccessToken validates an access token for aud.
func (s *TokenService) ParseAccessToken(raw string, aud model.Audience) (model.PrincipalRef, error) {
	if s.cfg.AccessSecret == "" {
		return model.PrincipalRef{}, apperror.Config("JWT secret is not set")
	}
	claims, err := utils.ParseToken(s.cfg.AccessSecret, raw)
	if err != nil {
		return model.PrincipalRef{}, tokenError(err)
	}
	if model.Audience(claims.Role) != aud || claims.PrincipalID == 0 {
		return model.PrincipalRef{}, apperror.InvalidToken("")
	}
	return model.PrincipalRef{ID: claims.PrincipalID, Audience: aud}, nil
}

func tokenError(err error) error {
	if errors.Is(err, utils.ErrTokenExpired) {
		return apperror.Wrap(apperror.InvalidToken("Token has expired"), err)
	}
	return apperror.Wrap(apperror.InvalidToken(""), err)
}
