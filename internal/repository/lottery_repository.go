package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// LotteryRepo reads and writes the `lotteries` table.  Every read skips
// soft-deleted rows.
type LotteryRepo struct{ DB *sql.DB }

func NewLotteryRepo(db *sql.DB) *LotteryRepo { return &LotteryRepo{DB: db} }

const lotterySelect = `SELECT l.id, l.name_en, l.name_ku, l.name_ar, l.content_en, l.content_ku, l.content_ar,
       l.price_per_ticket, l.deadline, l.category_id, l.image, l.author_id, l.is_deleted,
       COALESCE((SELECT SUM(p.quantity) FROM purchases p WHERE p.lottery_id = l.id), 0),
       l.created_at, l.updated_at
FROM lotteries l`

func scanLottery(row interface{ Scan(...any) error }) (model.Lottery, error) {
	var (
		l      model.Lottery
		author sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.NameEn, &l.NameKu, &l.NameAr, &l.ContentEn, &l.ContentKu, &l.ContentAr,
		&l.PricePerTicket, &l.Deadline, &l.CategoryID, &l.Image, &author, &l.IsDeleted,
		&l.TicketsSold, &l.CreatedAt, &l.UpdatedAt)
	if author.Valid {
		id := uint64(author.Int64)
		l.AuthorID = &id
	}
	return l, err
}

func (r *LotteryRepo) list(ctx context.Context, where string, args ...any) ([]model.Lottery, error) {
	rows, err := r.DB.QueryContext(ctx, lotterySelect+" WHERE l.is_deleted=0"+where+" ORDER BY l.deadline", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Lottery{}
	for rows.Next() {
		l, err := scanLottery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create inserts a lottery and returns its id.
func (r *LotteryRepo) Create(ctx context.Context, l model.Lottery) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO lotteries (name_en, name_ku, name_ar, content_en, content_ku, content_ar,
		   price_per_ticket, deadline, category_id, image, author_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		l.NameEn, l.NameKu, l.NameAr, l.ContentEn, l.ContentKu, l.ContentAr,
		l.PricePerTicket, l.Deadline.UTC(), l.CategoryID, l.Image, l.AuthorID)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns a live lottery.
func (r *LotteryRepo) GetByID(ctx context.Context, id uint64) (model.Lottery, error) {
	l, err := scanLottery(r.DB.QueryRowContext(ctx, lotterySelect+" WHERE l.id=? AND l.is_deleted=0 LIMIT 1", id))
	return l, translate(err)
}

// List returns every live lottery.
func (r *LotteryRepo) List(ctx context.Context) ([]model.Lottery, error) {
	return r.list(ctx, "")
}

// ListOpen returns lotteries whose deadline is after now.
func (r *LotteryRepo) ListOpen(ctx context.Context, now time.Time) ([]model.Lottery, error) {
	return r.list(ctx, " AND l.deadline > ?", now.UTC())
}

// ListFinished returns lotteries whose deadline is before now.
func (r *LotteryRepo) ListFinished(ctx context.Context, now time.Time) ([]model.Lottery, error) {
	return r.list(ctx, " AND l.deadline < ?", now.UTC())
}

// ListByAuthor returns the lotteries an admin created.
func (r *LotteryRepo) ListByAuthor(ctx context.Context, adminID uint64) ([]model.Lottery, error) {
	return r.list(ctx, " AND l.author_id = ?", adminID)
}

// LotteryUpdate lists the columns an update may touch.
type LotteryUpdate struct {
	NameEn     *string
	NameKu     *string
	NameAr     *string
	ContentEn  *string
	ContentKu  *string
	ContentAr  *string
	CategoryID *uint64
	Image      *string
	Deadline   *time.Time
}

// Update edits a lottery whose deadline is still at or after now.
// ErrNotFound for unknown ids, ErrConflict when the deadline has passed.
func (r *LotteryRepo) Update(ctx context.Context, id uint64, u LotteryUpdate, now time.Time) error {
	sets, args := []string{}, []any{}
	add := func(col string, v any) { sets, args = append(sets, col+"=?"), append(args, v) }
	if u.NameEn != nil {
		add("name_en", *u.NameEn)
	}
	if u.NameKu != nil {
		add("name_ku", *u.NameKu)
	}
	if u.NameAr != nil {
		add("name_ar", *u.NameAr)
	}
	if u.ContentEn != nil {
		add("content_en", *u.ContentEn)
	}
	if u.ContentKu != nil {
		add("content_ku", *u.ContentKu)
	}
	if u.ContentAr != nil {
		add("content_ar", *u.ContentAr)
	}
	if u.CategoryID != nil {
		add("category_id", *u.CategoryID)
	}
	if u.Image != nil {
		add("image", *u.Image)
	}
	if u.Deadline != nil {
		add("deadline", u.Deadline.UTC())
	}
	if len(sets) == 0 {
		return r.checkEditable(ctx, id, now)
	}
	args = append(args, id, now.UTC())
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lotteries SET "+strings.Join(sets, ", ")+" WHERE id=? AND is_deleted=0 AND deadline >= ?", args...)
	if err != nil {
		return translate(err)
	}
	return requireRow(res, func() error { return r.checkEditable(ctx, id, now) })
}

func (r *LotteryRepo) checkEditable(ctx context.Context, id uint64, now time.Time) error {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.Deadline.Before(now) {
		return ErrConflict
	}
	return nil
}

// SoftDelete flags a lottery as deleted.
func (r *LotteryRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE lotteries SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
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

// Activities returns the purchase history of every buyer of a lottery,
// each buyer's entries in insertion order.
func (r *LotteryRepo) Activities(ctx context.Context, lotteryID uint64) ([]model.Activity, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT activities FROM purchases WHERE lottery_id=? ORDER BY id", lotteryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Activity{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var acts []model.Activity
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &acts); err != nil {
				return nil, err
			}
		}
		out = append(out, acts...)
	}
	return out, rows.Err()
}
