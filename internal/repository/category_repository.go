package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// CategoryRepo reads and writes the `categories` table.
type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

func (r *CategoryRepo) Create(ctx context.Context, c model.Category) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (name, name_ku, name_ar) VALUES (?,?,?)", c.Name, c.NameKu, c.NameAr)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, name_ku, name_ar, is_deleted, created_at FROM categories WHERE id=? AND is_deleted=0 LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.NameKu, &c.NameAr, &c.IsDeleted, &c.CreatedAt)
	return c, translate(err)
}

// List returns non-deleted categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, name_ku, name_ar, is_deleted, created_at FROM categories WHERE is_deleted=0 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.NameKu, &c.NameAr, &c.IsDeleted, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryUpdate lists the columns an update may touch.
type CategoryUpdate struct {
	Name   *string
	NameKu *string
	NameAr *string
}

func (r *CategoryRepo) Update(ctx context.Context, id uint64, u CategoryUpdate) error {
	sets, args := []string{}, []any{}
	if u.Name != nil {
		sets, args = append(sets, "name=?"), append(args, *u.Name)
	}
	if u.NameKu != nil {
		sets, args = append(sets, "name_ku=?"), append(args, *u.NameKu)
	}
	if u.NameAr != nil {
		sets, args = append(sets, "name_ar=?"), append(args, *u.NameAr)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE id=? AND is_deleted=0", args...)
	if err != nil {
		return translate(err)
	}
	return requireRow(res, func() error { _, err := r.GetByID(ctx, id); return err })
}

func (r *CategoryRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE categories SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
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
