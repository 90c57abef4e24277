package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/model"
)

// PurchaseRepo stores the one-row-per-(user, lottery) purchases.  The
// table carries a unique key on (user_id, lottery_id); all writes go
// through InTx.
type PurchaseRepo struct {
	DB          *sql.DB
	MaxAttempts int // transaction attempts on deadlock / lock wait timeout
}

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db, MaxAttempts: 3} }

// PurchaseTxOps is what a checkout can do inside its transaction.
type PurchaseTxOps interface {
	// FindOpenForUpdate locks and returns the purchase of userID for an
	// open, live lottery.  ErrNotFound when there is none.
	FindOpenForUpdate(ctx context.Context, userID, lotteryID uint64, now time.Time) (model.Purchase, error)
	// LotteryOpen reports whether the lottery exists, is live and its
	// deadline is after now.
	LotteryOpen(ctx context.Context, lotteryID uint64, now time.Time) (bool, error)
	// Replace overwrites quantity and activities of an existing row.
	Replace(ctx context.Context, p model.Purchase) error
	// Insert stores a first purchase.  If a concurrent checkout created the
	// row first, the quantity and activities are folded into it instead.
	Insert(ctx context.Context, p *model.Purchase) error
}

// InTx runs fn in a transaction, committing when fn returns nil.  The whole
// transaction is retried when MySQL picks it as a deadlock victim.
func (r *PurchaseRepo) InTx(ctx context.Context, fn func(PurchaseTxOps) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = r.runTx(ctx, fn)
		if err == nil || !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (r *PurchaseRepo) runTx(ctx context.Context, fn func(PurchaseTxOps) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&purchaseTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type purchaseTx struct{ tx *sql.Tx }

const purchaseColumns = "p.id, p.user_id, p.lottery_id, p.quantity, p.activities, p.created_at, p.updated_at"

func scanPurchase(row interface{ Scan(...any) error }, extra ...any) (model.Purchase, error) {
	var (
		p   model.Purchase
		raw []byte
	)
	dest := append([]any{&p.ID, &p.UserID, &p.LotteryID, &p.Quantity, &raw, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Purchase{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Activities); err != nil {
			return model.Purchase{}, err
		}
	}
	if p.Activities == nil {
		p.Activities = []model.Activity{}
	}
	return p, nil
}

func (t *purchaseTx) FindOpenForUpdate(ctx context.Context, userID, lotteryID uint64, now time.Time) (model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + `
FROM purchases p
JOIN lotteries l ON l.id = p.lottery_id
WHERE p.user_id = ? AND p.lottery_id = ? AND l.deadline > ? AND l.is_deleted = 0
FOR UPDATE`
	p, err := scanPurchase(t.tx.QueryRowContext(ctx, q, userID, lotteryID, now.UTC()))
	return p, translate(err)
}

func (t *purchaseTx) LotteryOpen(ctx context.Context, lotteryID uint64, now time.Time) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		"SELECT 1 FROM lotteries WHERE id = ? AND deadline > ? AND is_deleted = 0 LOCK IN SHARE MODE",
		lotteryID, now.UTC()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *purchaseTx) Replace(ctx context.Context, p model.Purchase) error {
	acts, err := json.Marshal(p.Activities)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		"UPDATE purchases SET quantity = ?, activities = ? WHERE id = ?", p.Quantity, acts, p.ID)
	return translate(err)
}

func (t *purchaseTx) Insert(ctx context.Context, p *model.Purchase) error {
	acts, err := json.Marshal(p.Activities)
	if err != nil {
		return err
	}
	// id = LAST_INSERT_ID(id) makes LastInsertId report the existing row
	// when the insert turned into an update.
	res, err := t.tx.ExecContext(ctx, `INSERT INTO purchases (user_id, lottery_id, quantity, activities)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id = LAST_INSERT_ID(id),
  quantity = quantity + VALUES(quantity),
  activities = JSON_MERGE_PRESERVE(activities, VALUES(activities))`,
		p.UserID, p.LotteryID, p.Quantity, acts)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanPurchase(t.tx.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases p WHERE p.id = ?", id))
	if err != nil {
		return translate(err)
	}
	*p = stored
	return nil
}

// ListByLottery returns every purchase of a lottery with its buyer.
func (r *PurchaseRepo) ListByLottery(ctx context.Context, lotteryID uint64) ([]model.PurchaseDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+purchaseColumns+`,
       u.id, u.full_name, u.email, u.phone, u.birthdate, u.gender, u.is_deleted, u.created_at, u.updated_at
FROM purchases p
JOIN users u ON u.id = p.user_id
WHERE p.lottery_id = ?
ORDER BY p.id`, lotteryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PurchaseDetail{}
	for rows.Next() {
		var (
			u      model.User
			gender sql.NullString
		)
		p, err := scanPurchase(rows, &u.ID, &u.FullName, &u.Email, &u.Phone, &u.Birthdate, &gender, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if gender.Valid {
			g := gender.String
			u.Gender = &g
		}
		out = append(out, model.PurchaseDetail{Purchase: p, User: &u})
	}
	return out, rows.Err()
}

// ListByUser returns a buyer's purchases on live lotteries, with the lottery.
func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uint64) ([]model.PurchaseDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+purchaseColumns+`,
       l.id, l.name_en, l.name_ku, l.name_ar, l.content_en, l.content_ku, l.content_ar,
       l.price_per_ticket, l.deadline, l.category_id, l.image, l.is_deleted, l.created_at, l.updated_at
FROM purchases p
JOIN lotteries l ON l.id = p.lottery_id
WHERE p.user_id = ? AND l.is_deleted = 0
ORDER BY p.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PurchaseDetail{}
	for rows.Next() {
		var l model.Lottery
		p, err := scanPurchase(rows, &l.ID, &l.NameEn, &l.NameKu, &l.NameAr, &l.ContentEn, &l.ContentKu, &l.ContentAr,
			&l.PricePerTicket, &l.Deadline, &l.CategoryID, &l.Image, &l.IsDeleted, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PurchaseDetail{Purchase: p, Lottery: &l})
	}
	return out, rows.Err()
}
