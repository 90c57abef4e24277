package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// TokenRepo persists refresh tokens in the `tokens` table.  Rows are
// indexed by the SHA‑256 of the token; the raw value is kept too and
// compared on every lookup.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a token row into the owner column matching rec.Audience.
func (r *TokenRepo) Create(ctx context.Context, rec model.TokenRecord) error {
	var adminID, userID sql.NullInt64
	switch rec.Audience {
	case model.AudienceAdmin:
		adminID = sql.NullInt64{Int64: int64(rec.OwnerID), Valid: true}
	default:
		userID = sql.NullInt64{Int64: int64(rec.OwnerID), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tokens (admin_id, user_id, token, token_hash, type, blacklisted, expires_at) VALUES (?,?,?,?,?,?,?)",
		adminID, userID, rec.Token, rec.TokenHash, rec.Type, rec.Blacklisted, rec.ExpiresAt.UTC())
	return translate(err)
}

// FindActive returns the non-blacklisted row for token owned by ownerID in
// the given audience.  A row owned by the other audience never matches.
func (r *TokenRepo) FindActive(ctx context.Context, aud model.Audience, ownerID uint64, token, tokenHash string) (model.TokenRecord, error) {
	// OwnerColumn only yields admin_id or user_id, never user input.
	q := "SELECT id, token, token_hash, type, blacklisted, expires_at, created_at FROM tokens WHERE token_hash=? AND " +
		aud.OwnerColumn() + "=? AND blacklisted=0 LIMIT 1"
	rec := model.TokenRecord{Audience: aud, OwnerID: ownerID}
	err := r.DB.QueryRowContext(ctx, q, tokenHash, ownerID).Scan(
		&rec.ID, &rec.Token, &rec.TokenHash, &rec.Type, &rec.Blacklisted, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		return model.TokenRecord{}, translate(err)
	}
	if rec.Token != token {
		return model.TokenRecord{}, ErrNotFound
	}
	return rec, nil
}

// DeleteByHash removes a token row.  Deleting a missing row is not an error.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE token_hash=?", tokenHash)
	return err
}

// DeleteAllForOwner revokes every session of one principal.
func (r *TokenRepo) DeleteAllForOwner(ctx context.Context, aud model.Audience, ownerID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE "+aud.OwnerColumn()+"=?", ownerID)
	return err
}

// DeleteExpired purges rows past their expiry and returns how many went.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
