// Package queue carries purchase events over RabbitMQ: a publisher used by
// checkout and a consumer that keeps an append-only purchase log.
package queue

import "time"

// PurchaseQueue is the durable queue purchase events are routed to.
const PurchaseQueue = "purchase.recorded"

// PurchaseRecordedEvent is published after a checkout commits.  Quantity is
// what this checkout added; TotalQty and Activities describe the merged row.
type PurchaseRecordedEvent struct {
	PurchaseID uint64    `json:"purchase_id"`
	UserID     uint64    `json:"user_id"`
	LotteryID  uint64    `json:"lottery_id"`
	Quantity   int       `json:"quantity"`
	TotalQty   int       `json:"total_quantity"`
	Activities int       `json:"activities"`
	RecordedAt time.Time `json:"recorded_at"`
}
