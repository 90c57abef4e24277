package model

import "time"

// Activity is one checkout call folded into a Purchase.
type Activity struct {
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

// Purchase is the single row per (user, lottery).  Quantity only grows and
// Activities is append-only, earliest first.
type Purchase struct {
	ID         uint64     `json:"id"`
	UserID     uint64     `json:"user_id"`
	LotteryID  uint64     `json:"lottery_id"`
	Quantity   int        `json:"quantity"`
	Activities []Activity `json:"activities"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Merge folds another checkout of qty tickets into p.
func (p *Purchase) Merge(qty int, at time.Time) {
	p.Activities = append(p.Activities, Activity{Qty: qty, CreatedAt: at})
	p.Quantity += qty
}

// NewPurchase starts the history of a first checkout.
func NewPurchase(userID, lotteryID uint64, qty int, at time.Time) Purchase {
	return Purchase{
		UserID:     userID,
		LotteryID:  lotteryID,
		Quantity:   qty,
		Activities: []Activity{{Qty: qty, CreatedAt: at}},
	}
}

// PurchaseDetail is a purchase joined with its lottery and buyer, as shown
// to admins and to the buyer.
type PurchaseDetail struct {
	Purchase
	Lottery *Lottery `json:"lotteries,omitempty"`
	User    *User    `json:"users,omitempty"`
}
