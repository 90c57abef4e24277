package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
)

// LotteryStore is the lotteries table.  *repository.LotteryRepo satisfies it.
type LotteryStore interface {
	Create(ctx context.Context, l model.Lottery) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Lottery, error)
	List(ctx context.Context) ([]model.Lottery, error)
	ListOpen(ctx context.Context, now time.Time) ([]model.Lottery, error)
	ListFinished(ctx context.Context, now time.Time) ([]model.Lottery, error)
	ListByAuthor(ctx context.Context, adminID uint64) ([]model.Lottery, error)
	Update(ctx context.Context, id uint64, u repository.LotteryUpdate, now time.Time) error
	SoftDelete(ctx context.Context, id uint64) error
	Activities(ctx context.Context, lotteryID uint64) ([]model.Activity, error)
}

type LotteryService struct {
	store  LotteryStore
	admins AdminFinder
	now    func() time.Time
}

func NewLotteryService(store LotteryStore, admins AdminFinder) *LotteryService {
	return &LotteryService{store: store, admins: admins, now: time.Now}
}

// Create stores a lottery authored by adminID.
func (s *LotteryService) Create(ctx context.Context, adminID uint64, l model.Lottery) (model.Lottery, error) {
	if _, err := s.admins.GetByID(ctx, adminID); err != nil {
		return model.Lottery{}, notFoundOr(err, "Admin not found", "Failed to load admin")
	}
	if !l.Deadline.After(s.now()) {
		return model.Lottery{}, apperror.BadRequest("deadline must be in the future")
	}
	l.AuthorID = &adminID
	id, err := s.store.Create(ctx, l)
	if err != nil {
		return model.Lottery{}, apperror.Internal("Failed to create lottery", err)
	}
	return s.Get(ctx, id)
}

func (s *LotteryService) Get(ctx context.Context, id uint64) (model.Lottery, error) {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Lottery{}, notFoundOr(err, "Lottery not found", "Failed to load lottery")
	}
	return l, nil
}

func (s *LotteryService) List(ctx context.Context) ([]model.Lottery, error) {
	return wrapList(s.store.List(ctx))
}

// ListOpen returns lotteries whose deadline is still ahead.
func (s *LotteryService) ListOpen(ctx context.Context) ([]model.Lottery, error) {
	return wrapList(s.store.ListOpen(ctx, s.now()))
}

// ListFinished returns lotteries whose deadline has passed.
func (s *LotteryService) ListFinished(ctx context.Context) ([]model.Lottery, error) {
	return wrapList(s.store.ListFinished(ctx, s.now()))
}

func (s *LotteryService) ListByAuthor(ctx context.Context, adminID uint64) ([]model.Lottery, error) {
	return wrapList(s.store.ListByAuthor(ctx, adminID))
}

func wrapList(list []model.Lottery, err error) ([]model.Lottery, error) {
	if err != nil {
		return nil, apperror.Internal("Failed to fetch lotteries", err)
	}
	return list, nil
}

// Update edits a lottery that has not closed yet.
func (s *LotteryService) Update(ctx context.Context, id uint64, u repository.LotteryUpdate) (model.Lottery, error) {
	now := s.now()
	if u.Deadline != nil && !u.Deadline.After(now) {
		return model.Lottery{}, apperror.BadRequest("deadline must be in the future")
	}
	if err := s.store.Update(ctx, id, u, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Lottery{}, apperror.Conflict("Lottery deadline has passed")
		}
		return model.Lottery{}, notFoundOr(err, "Lottery not found", "Failed to update lottery")
	}
	return s.Get(ctx, id)
}

func (s *LotteryService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return notFoundOr(err, "Lottery not found", "Failed to delete lottery")
	}
	return nil
}

// Activities returns the purchase history of a lottery.
func (s *LotteryService) Activities(ctx context.Context, id uint64) ([]model.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	acts, err := s.store.Activities(ctx, id)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch activities", err)
	}
	return acts, nil
}
