package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// AdminRepo reads and writes the `admins` table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = "id, full_name, email, phone, password_hash, is_deleted, created_at, updated_at"

func scanAdmin(row interface{ Scan(...any) error }) (model.Admin, error) {
	var a model.Admin
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.PasswordHash, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts an admin with an already hashed password and returns its id.
// Emails are stored lower-cased; a taken email yields ErrDuplicate.
func (r *AdminRepo) Create(ctx context.Context, a model.Admin) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (full_name, email, phone, password_hash) VALUES (?,?,?,?)",
		a.FullName, strings.ToLower(strings.TrimSpace(a.Email)), a.Phone, a.PasswordHash)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail skips deleted admins.  The email column uses a case-insensitive
// collation, so the lookup stays on uq_admins_email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE email=? AND is_deleted=0 LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)))
	a, err := scanAdmin(row)
	return a, translate(err)
}

// GetByID fetches a non-deleted admin.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE id=? AND is_deleted=0 LIMIT 1", id)
	a, err := scanAdmin(row)
	return a, translate(err)
}

// List returns every non-deleted admin, oldest first.
func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE is_deleted=0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AdminUpdate lists the columns an update may touch.  Nil fields are left
// unchanged.
type AdminUpdate struct {
	FullName     *string
	Phone        *string
	PasswordHash *string
}

// Update applies u to admin id.  ErrNotFound when no live admin has that id.
func (r *AdminRepo) Update(ctx context.Context, id uint64, u AdminUpdate) error {
	sets, args := []string{}, []any{}
	if u.FullName != nil {
		sets, args = append(sets, "full_name=?"), append(args, *u.FullName)
	}
	if u.Phone != nil {
		sets, args = append(sets, "phone=?"), append(args, *u.Phone)
	}
	if u.PasswordHash != nil {
		sets, args = append(sets, "password_hash=?"), append(args, *u.PasswordHash)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET "+strings.Join(sets, ", ")+" WHERE id=? AND is_deleted=0", args...)
	if err != nil {
		return translate(err)
	}
	return requireRow(res, func() error { _, err := r.GetByID(ctx, id); return err })
}

// SoftDelete flags the admin as deleted.
func (r *AdminRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE admins SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// requireRow turns "0 rows affected" into ErrNotFound unless exists says the
// row is there.  MySQL reports 0 affected rows when values did not change.
func requireRow(res sql.Result, exists func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return exists()
}
