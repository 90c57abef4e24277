package model

import "time"

// TokenTypeRefresh is the only token type persisted today.
const TokenTypeRefresh = "refresh"

// TokenRecord models a row of the `tokens` table.  A refresh token is valid
// only while its row exists with Blacklisted=false.  Exactly one of
// AdminID/UserID is set, according to Audience.
//
// Fields:
//  ID          – primary key identifier.
//  Audience    – which owner column is populated.
//  OwnerID     – tokens.admin_id or tokens.user_id.
//  Token       – the raw signed refresh token.
//  TokenHash   – SHA‑256 hex digest of Token, indexed for lookups.
//  Type        – always "refresh".
//  Blacklisted – revoked without deleting the row.
//  ExpiresAt   – expiration timestamp.
//  CreatedAt   – timestamp of creation.
type TokenRecord struct {
	ID          uint64
	Audience    Audience
	OwnerID     uint64
	Token       string
	TokenHash   string
	Type        string
	Blacklisted bool
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
