package utils // package utils provides helpers for token creation, hashing and phone numbers

import (
	"crypto/sha256" // SHA‑256 hashing for refresh token lookups
	"encoding/hex"  // hex encoding of digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // random token ids
)

// Claims is the payload of both access and refresh tokens.  The principal id
// travels as "id" and the audience as "role".  Every token gets a random
// jti so two tokens minted for the same principal in the same second differ.
type Claims struct {
	PrincipalID uint64 `json:"id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT with its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// ErrTokenExpired is returned by ParseToken for well-formed tokens past exp.
var ErrTokenExpired = errors.New("token expired")

// SignToken builds and signs an HS256 JWT.
func SignToken(secret string, id uint64, role string, ttl time.Duration, now time.Time) (SignedToken, error) {
	exp := now.UTC().Add(ttl)
	claims := Claims{
		PrincipalID: id,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry.  Only HMAC tokens are accepted.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// HashToken returns the SHA‑256 hex digest used to index stored refresh
// tokens.  The raw token is still compared on lookup.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
