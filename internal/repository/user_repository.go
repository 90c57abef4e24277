package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, full_name, email, phone, birthdate, gender, is_deleted, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u      model.User
		gender sql.NullString
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.Birthdate, &gender, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if gender.Valid {
		g := gender.String
		u.Gender = &g
	}
	return u, err
}

// Create inserts user and returns its ID.  A phone already registered gives
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	var gender sql.NullString
	if u.Gender != nil {
		gender = sql.NullString{String: *u.Gender, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, phone, birthdate, gender) VALUES (?,?,?,?,?)",
		u.FullName, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone, u.Birthdate, gender)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id, deleted or not.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, translate(err)
}

// GetByPhone fetches a live user by national phone form.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? AND is_deleted=0 LIMIT 1", phone))
	return u, translate(err)
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate lists the columns an update may touch.
type UserUpdate struct {
	FullName  *string
	Phone     *string
	IsDeleted *bool
}

// Update applies u to user id.
func (r *UserRepo) Update(ctx context.Context, id uint64, u UserUpdate) error {
	sets, args := []string{}, []any{}
	if u.FullName != nil {
		sets, args = append(sets, "full_name=?"), append(args, *u.FullName)
	}
	if u.Phone != nil {
		sets, args = append(sets, "phone=?"), append(args, *u.Phone)
	}
	if u.IsDeleted != nil {
		sets, args = append(sets, "is_deleted=?"), append(args, *u.IsDeleted)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return translate(err)
	}
	return requireRow(res, func() error { _, err := r.GetByID(ctx, id); return err })
}
