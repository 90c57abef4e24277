package model

import "time"

// User represents a ticket buyer as stored in the `users` table.  Users
// have no password: they prove ownership of their phone number with a
// one-time code.
//
// Fields:
//  ID        – primary key identifier of the user.
//  FullName  – display name.
//  Email     – contact email (not used for login).
//  Phone     – national form, e.g. 07701234567; unique.
//  Birthdate – date of birth.
//  Gender    – optional free-form value.
//  IsDeleted – soft delete flag.
type User struct {
	ID        uint64    `json:"id"`         // users.id
	FullName  string    `json:"full_name"`  // users.full_name
	Email     string    `json:"email"`      // users.email
	Phone     string    `json:"phone"`      // users.phone
	Birthdate time.Time `json:"birthdate"`  // users.birthdate
	Gender    *string   `json:"gender"`     // users.gender (nullable)
	IsDeleted bool      `json:"is_deleted"` // users.is_deleted
	CreatedAt time.Time `json:"created_at"` // users.created_at
	UpdatedAt time.Time `json:"updated_at"` // users.updated_at
}
