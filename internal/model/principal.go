package model

import "fmt"

// Audience names which principal type a token was issued for.  The two
// audiences never share cookies, token columns or sessions.
type Audience string

const (
	AudienceAdmin Audience = "admin"
	AudienceUser  Audience = "user"
)

// Valid reports whether a is one of the known audiences.
func (a Audience) Valid() bool { return a == AudienceAdmin || a == AudienceUser }

// OwnerColumn is the tokens column that holds the owner id for a.
func (a Audience) OwnerColumn() string {
	if a == AudienceAdmin {
		return "admin_id"
	}
	return "user_id"
}

// ParseAudience converts a role claim into an Audience.
func ParseAudience(role string) (Audience, error) {
	a := Audience(role)
	if !a.Valid() {
		return "", fmt.Errorf("unknown audience %q", role)
	}
	return a, nil
}

// Principal is either an Admin or a User.  Exactly one of the pointers is
// set and Kind says which; use the constructors rather than filling the
// struct by hand.
type Principal struct {
	Kind  Audience
	Admin *Admin
	User  *User
}

func AdminPrincipal(a Admin) Principal { return Principal{Kind: AudienceAdmin, Admin: &a} }

func UserPrincipal(u User) Principal { return Principal{Kind: AudienceUser, User: &u} }

// ID returns the id of whichever variant is set.
func (p Principal) ID() uint64 {
	switch p.Kind {
	case AudienceAdmin:
		if p.Admin != nil {
			return p.Admin.ID
		}
	case AudienceUser:
		if p.User != nil {
			return p.User.ID
		}
	}
	return 0
}

// PrincipalRef is what an authenticated request carries: who, and for
// which audience.  It is decoded from a token, not loaded from the store.
type PrincipalRef struct {
	ID       uint64
	Audience Audience
}
