package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/metrics"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/queue"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
)

// PurchaseStore is the transactional purchase storage.
// *repository.PurchaseRepo satisfies it.
type PurchaseStore interface {
	InTx(ctx context.Context, fn func(repository.PurchaseTxOps) error) error
	ListByLottery(ctx context.Context, lotteryID uint64) ([]model.PurchaseDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.PurchaseDetail, error)
}

// IdempotencyStore remembers client supplied checkout keys.
type IdempotencyStore interface {
	// Claim returns true the first time key is seen within ttl.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// EventPublisher sends purchase events.  *queue.Publisher satisfies it.
type EventPublisher interface {
	PublishPurchaseRecorded(ctx context.Context, ev queue.PurchaseRecordedEvent) error
}

// IdempotencyTTL is how long a checkout key is remembered.
const IdempotencyTTL = 24 * time.Hour

// CheckoutResult is the outcome of one checkout call.  Replayed is set when
// the idempotency key had already been used and nothing was merged.
type CheckoutResult struct {
	Purchase model.Purchase
	Replayed bool
}

// CheckoutService folds every checkout of a user for a lottery into one
// purchase row.
type CheckoutService struct {
	store     PurchaseStore
	idem      IdempotencyStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewCheckoutService wires the service.  idem and publisher may be nil.
func NewCheckoutService(store PurchaseStore, idem IdempotencyStore, publisher EventPublisher,
	m *metrics.Metrics, log *zap.Logger) *CheckoutService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutService{
		store:     store,
		idem:      idem,
		publisher: publisher,
		metrics:   m,
		log:       log.Named("checkout"),
		now:       time.Now,
	}
}

// Purchase adds qty tickets of lotteryID to the user's purchase.  Not
// idempotent unless idemKey is given.
func (s *CheckoutService) Purchase(ctx context.Context, userID, lotteryID uint64, qty int, idemKey string) (CheckoutResult, error) {
	if userID == 0 {
		return CheckoutResult{}, apperror.Unauthorized("Unauthorized")
	}
	if lotteryID < 1 {
		return CheckoutResult{}, apperror.BadRequest("lotteryId must be a positive integer")
	}
	if qty < 1 {
		return CheckoutResult{}, apperror.BadRequest("quantity must be at least 1")
	}

	claimKey := ""
	if idemKey != "" && s.idem != nil {
		key := "checkout:" + strconv.FormatUint(userID, 10) + ":" + idemKey
		first, err := s.idem.Claim(ctx, key, IdempotencyTTL)
		switch {
		case err != nil:
			s.log.Warn("idempotency store unavailable", zap.Error(err))
		case !first:
			return CheckoutResult{Replayed: true}, nil
		default:
			claimKey = key
		}
	}

	p, err := s.merge(ctx, userID, lotteryID, qty)
	if err != nil {
		if claimKey != "" {
			if rerr := s.idem.Release(context.WithoutCancel(ctx), claimKey); rerr != nil {
				s.log.Warn("idempotency release failed", zap.Error(rerr))
			}
		}
		return CheckoutResult{}, err
	}

	s.metrics.PurchaseRecorded(qty)
	s.publish(ctx, p, qty)
	return CheckoutResult{Purchase: p}, nil
}

func (s *CheckoutService) merge(ctx context.Context, userID, lotteryID uint64, qty int) (model.Purchase, error) {
	var out model.Purchase
	err := s.store.InTx(ctx, func(tx repository.PurchaseTxOps) error {
		now := s.now().UTC()
		existing, err := tx.FindOpenForUpdate(ctx, userID, lotteryID, now)
		switch {
		case err == nil:
			existing.Merge(qty, now)
			if err := tx.Replace(ctx, existing); err != nil {
				return apperror.Persistence("Failed to update purchase", err)
			}
			out = existing
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return apperror.Lookup("Failed to find purchase", err)
		}

		open, err := tx.LotteryOpen(ctx, lotteryID, now)
		if err != nil {
			return apperror.Lookup("Failed to find lottery", err)
		}
		if !open {
			return apperror.LotteryNotFoundOrExpired()
		}
		p := model.NewPurchase(userID, lotteryID, qty, now)
		if err := tx.Insert(ctx, &p); err != nil {
			return apperror.Persistence("Failed to create purchase", err)
		}
		out = p
		return nil
	})
	return out, err
}

// publish sends the event after commit.  Failures are logged only.
func (s *CheckoutService) publish(ctx context.Context, p model.Purchase, qty int) {
	if s.publisher == nil {
		return
	}
	ev := queue.PurchaseRecordedEvent{
		PurchaseID: p.ID,
		UserID:     p.UserID,
		LotteryID:  p.LotteryID,
		Quantity:   qty,
		TotalQty:   p.Quantity,
		Activities: len(p.Activities),
		RecordedAt: s.now().UTC(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.publisher.PublishPurchaseRecorded(pctx, ev); err != nil {
		s.log.Warn("publish purchase event failed", zap.Uint64("purchase_id", p.ID), zap.Error(err))
	}
}

// ListByLottery returns all purchases of a lottery with their buyers.
func (s *CheckoutService) ListByLottery(ctx context.Context, lotteryID uint64) ([]model.PurchaseDetail, error) {
	list, err := s.store.ListByLottery(ctx, lotteryID)
	if err != nil {
		return nil, apperror.Internal("Failed to list purchases", err)
	}
	return list, nil
}

// ListByUser returns the purchases of one user with their lotteries.
func (s *CheckoutService) ListByUser(ctx context.Context, userID uint64) ([]model.PurchaseDetail, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to list purchases", err)
	}
	return list, nil
}
