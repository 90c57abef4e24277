package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
)

type memTokens struct {
	mu      sync.Mutex
	rows    map[string]model.TokenRecord
	failAdd error
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]model.TokenRecord{}} }

func (m *memTokens) Create(_ context.Context, rec model.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd != nil {
		return m.failAdd
	}
	if _, ok := m.rows[rec.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	m.rows[rec.TokenHash] = rec
	return nil
}

func (m *memTokens) FindActive(_ context.Context, aud model.Audience, ownerID uint64, token, hash string) (model.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[hash]
	if !ok || rec.Audience != aud || rec.OwnerID != ownerID || rec.Blacklisted || rec.Token != token {
		return model.TokenRecord{}, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memTokens) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, hash)
	return nil
}

func (m *memTokens) DeleteAllForOwner(_ context.Context, aud model.Audience, ownerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, rec := range m.rows {
		if rec.Audience == aud && rec.OwnerID == ownerID {
			delete(m.rows, h)
		}
	}
	return nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memAdmins struct{ byID map[uint64]model.Admin }

func (m *memAdmins) GetByEmail(_ context.Context, email string) (model.Admin, error) {
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) && !a.IsDeleted {
			return a, nil
		}
	}
	return model.Admin{}, repository.ErrNotFound
}

func (m *memAdmins) GetByID(_ context.Context, id uint64) (model.Admin, error) {
	a, ok := m.byID[id]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return a, nil
}

type memUsers struct{ byID map[uint64]model.User }

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// fakeLimiter records penalties and reports a fixed retry.
type fakeLimiter struct {
	mu        sync.Mutex
	retry     int
	retryErr  error
	penalErr  error
	penalties []string
}

func (f *fakeLimiter) RetryAfter(context.Context, string, string) (int, error) {
	return f.retry, f.retryErr
}

func (f *fakeLimiter) Penalize(_ context.Context, email, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.penalties = append(f.penalties, email+"|"+ip)
	return f.penalErr
}

// memPurchases serializes transactions with one mutex, which stands in for
// the row locks and the unique key of the real table.
type memPurchases struct {
	mu        sync.Mutex
	lotteries map[uint64]model.Lottery
	rows      map[[2]uint64]model.Purchase
	nextID    uint64
	lookupErr error
	writes    int
}

func newMemPurchases(lotteries ...model.Lottery) *memPurchases {
	m := &memPurchases{lotteries: map[uint64]model.Lottery{}, rows: map[[2]uint64]model.Purchase{}}
	for _, l := range lotteries {
		m.lotteries[l.ID] = l
	}
	return m
}

func (m *memPurchases) InTx(ctx context.Context, fn func(repository.PurchaseTxOps) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	staged := memTx{m: m, rows: map[[2]uint64]model.Purchase{}}
	if err := fn(&staged); err != nil {
		return err
	}
	for k, p := range staged.rows {
		m.rows[k] = p
		m.writes++
	}
	return nil
}

func (m *memPurchases) ListByLottery(_ context.Context, lotteryID uint64) ([]model.PurchaseDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PurchaseDetail
	for k, p := range m.rows {
		if k[1] == lotteryID {
			out = append(out, model.PurchaseDetail{Purchase: p})
		}
	}
	return out, nil
}

func (m *memPurchases) ListByUser(_ context.Context, userID uint64) ([]model.PurchaseDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PurchaseDetail
	for k, p := range m.rows {
		if k[0] == userID {
			out = append(out, model.PurchaseDetail{Purchase: p})
		}
	}
	return out, nil
}

func (m *memPurchases) get(userID, lotteryID uint64) (model.Purchase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[[2]uint64{userID, lotteryID}]
	return p, ok
}

type memTx struct {
	m    *memPurchases
	rows map[[2]uint64]model.Purchase
}

func (t *memTx) FindOpenForUpdate(_ context.Context, userID, lotteryID uint64, now time.Time) (model.Purchase, error) {
	if t.m.lookupErr != nil {
		return model.Purchase{}, t.m.lookupErr
	}
	l, ok := t.m.lotteries[lotteryID]
	if !ok || !l.OpenAt(now) {
		return model.Purchase{}, repository.ErrNotFound
	}
	p, ok := t.m.rows[[2]uint64{userID, lotteryID}]
	if !ok {
		return model.Purchase{}, repository.ErrNotFound
	}
	p.Activities = append([]model.Activity(nil), p.Activities...)
	return p, nil
}

func (t *memTx) LotteryOpen(_ context.Context, lotteryID uint64, now time.Time) (bool, error) {
	l, ok := t.m.lotteries[lotteryID]
	return ok && l.OpenAt(now), nil
}

func (t *memTx) Replace(_ context.Context, p model.Purchase) error {
	t.rows[[2]uint64{p.UserID, p.LotteryID}] = p
	return nil
}

func (t *memTx) Insert(_ context.Context, p *model.Purchase) error {
	key := [2]uint64{p.UserID, p.LotteryID}
	if existing, ok := t.m.rows[key]; ok {
		existing.Quantity += p.Quantity
		existing.Activities = append(existing.Activities, p.Activities...)
		*p = existing
	} else {
		t.m.nextID++
		p.ID = t.m.nextID
	}
	t.rows[key] = *p
	return nil
}

type memIdem struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memIdem) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}
