package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

type memLotteries struct {
	rows map[uint64]model.Lottery
}

func (m *memLotteries) Create(_ context.Context, l model.Lottery) (uint64, error) {
	l.ID = uint64(len(m.rows) + 1)
	m.rows[l.ID] = l
	return l.ID, nil
}

func (m *memLotteries) GetByID(_ context.Context, id uint64) (model.Lottery, error) {
	l, ok := m.rows[id]
	if !ok || l.IsDeleted {
		return model.Lottery{}, repository.ErrNotFound
	}
	return l, nil
}

func (m *memLotteries) filter(keep func(model.Lottery) bool) []model.Lottery {
	out := []model.Lottery{}
	for _, l := range m.rows {
		if !l.IsDeleted && keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (m *memLotteries) List(context.Context) ([]model.Lottery, error) {
	return m.filter(func(model.Lottery) bool { return true }), nil
}

func (m *memLotteries) ListOpen(_ context.Context, now time.Time) ([]model.Lottery, error) {
	return m.filter(func(l model.Lottery) bool { return l.Deadline.After(now) }), nil
}

func (m *memLotteries) ListFinished(_ context.Context, now time.Time) ([]model.Lottery, error) {
	return m.filter(func(l model.Lottery) bool { return l.Deadline.Before(now) }), nil
}

func (m *memLotteries) ListByAuthor(_ context.Context, adminID uint64) ([]model.Lottery, error) {
	return m.filter(func(l model.Lottery) bool { return l.AuthorID != nil && *l.AuthorID == adminID }), nil
}

func (m *memLotteries) Update(_ context.Context, id uint64, u repository.LotteryUpdate, now time.Time) error {
	l, ok := m.rows[id]
	if !ok || l.IsDeleted {
		return repository.ErrNotFound
	}
	if l.Deadline.Before(now) {
		return repository.ErrConflict
	}
	if u.NameEn != nil {
		l.NameEn = *u.NameEn
	}
	if u.Deadline != nil {
		l.Deadline = *u.Deadline
	}
	m.rows[id] = l
	return nil
}

func (m *memLotteries) SoftDelete(_ context.Context, id uint64) error {
	l, ok := m.rows[id]
	if !ok || l.IsDeleted {
		return repository.ErrNotFound
	}
	l.IsDeleted = true
	m.rows[id] = l
	return nil
}

func (m *memLotteries) Activities(context.Context, uint64) ([]model.Activity, error) {
	return []model.Activity{}, nil
}

func newLotteryFixture() (*LotteryService, *memLotteries, time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memLotteries{rows: map[uint64]model.Lottery{}}
	svc := NewLotteryService(store, &memAdmins{byID: map[uint64]model.Admin{1: {ID: 1}}})
	svc.now = func() time.Time { return now }
	return svc, store, now
}

func TestLotteryCreate(t *testing.T) {
	svc, _, now := newLotteryFixture()
	ctx := context.Background()

	l, err := svc.Create(ctx, 1, model.Lottery{NameEn: "Car", Deadline: now.Add(time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, l.AuthorID)
	assert.Equal(t, uint64(1), *l.AuthorID)

	_, err = svc.Create(ctx, 1, model.Lottery{NameEn: "Old", Deadline: now.Add(-time.Hour)})
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	_, err = svc.Create(ctx, 99, model.Lottery{NameEn: "Ghost", Deadline: now.Add(time.Hour)})
	assert.Equal(t, http.StatusNotFound, apperror.Status(err))
}

func TestLotteryListsSplitByDeadline(t *testing.T) {
	svc, store, now := newLotteryFixture()
	author := uint64(1)
	store.rows[1] = model.Lottery{ID: 1, Deadline: now.Add(time.Hour), AuthorID: &author}
	store.rows[2] = model.Lottery{ID: 2, Deadline: now.Add(-time.Hour)}
	store.rows[3] = model.Lottery{ID: 3, Deadline: now.Add(time.Hour), IsDeleted: true}
	ctx := context.Background()

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, uint64(1), open[0].ID)

	finished, err := svc.ListFinished(ctx)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, uint64(2), finished[0].ID)

	mine, err := svc.ListByAuthor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestLotteryUpdate(t *testing.T) {
	svc, store, now := newLotteryFixture()
	store.rows[1] = model.Lottery{ID: 1, NameEn: "Car", Deadline: now.Add(time.Hour)}
	store.rows[2] = model.Lottery{ID: 2, NameEn: "Boat", Deadline: now.Add(-time.Hour)}
	ctx := context.Background()
	name := "Bigger car"

	l, err := svc.Update(ctx, 1, repository.LotteryUpdate{NameEn: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bigger car", l.NameEn)

	_, err = svc.Update(ctx, 2, repository.LotteryUpdate{NameEn: &name})
	assert.Equal(t, http.StatusConflict, apperror.Status(err))

	past := now.Add(-time.Minute)
	_, err = svc.Update(ctx, 1, repository.LotteryUpdate{Deadline: &past})
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	require.NoError(t, svc.Delete(ctx, 1))
	_, err = svc.Get(ctx, 1)
	assert.Equal(t, http.StatusNotFound, apperror.Status(err))
	assert.Equal(t, http.StatusNotFound, apperror.Status(svc.Delete(ctx, 1)))
}

type memAdminStore struct {
	*memAdmins
}

func (m memAdminStore) Create(_ context.Context, a model.Admin) (uint64, error) {
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return 0, repository.ErrDuplicate
		}
	}
	a.ID = uint64(len(m.byID) + 1)
	m.byID[a.ID] = a
	return a.ID, nil
}

func (m memAdminStore) List(context.Context) ([]model.Admin, error) {
	out := []model.Admin{}
	for _, a := range m.byID {
		if !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memAdminStore) Update(_ context.Context, id uint64, u repository.AdminUpdate) error {
	a, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.FullName != nil {
		a.FullName = *u.FullName
	}
	if u.Phone != nil {
		a.Phone = *u.Phone
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	m.byID[id] = a
	return nil
}

func (m memAdminStore) SoftDelete(_ context.Context, id uint64) error {
	a, ok := m.byID[id]
	if !ok || a.IsDeleted {
		return repository.ErrNotFound
	}
	a.IsDeleted = true
	m.byID[id] = a
	return nil
}

func newAdminFixture() (*AdminService, memAdminStore, *memTokens) {
	store := memAdminStore{&memAdmins{byID: map[uint64]model.Admin{}}}
	tokens := newMemTokens()
	ts := NewTokenService(tokens, TokenConfig{AccessSecret: "a", RefreshSecret: "r", AccessExpiry: "15m", RefreshExpiry: "7d"})
	return NewAdminService(store, ts, bcrypt.MinCost), store, tokens
}

func TestAdminCreate(t *testing.T) {
	svc, store, _ := newAdminFixture()
	ctx := context.Background()
	in := CreateAdminInput{FullName: "Boss", Email: " Boss@Example.com ", Phone: "+9647701234567", Password: "pw", ConfirmPassword: "pw"}

	a, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", a.Email)
	assert.Equal(t, "07701234567", a.Phone)
	assert.True(t, utils.VerifyPassword(store.byID[a.ID].PasswordHash, "pw"))

	_, err = svc.Create(ctx, in)
	assert.Equal(t, http.StatusConflict, apperror.Status(err))

	mismatch := in
	mismatch.Email, mismatch.ConfirmPassword = "other@example.com", "nope"
	_, err = svc.Create(ctx, mismatch)
	assert.EqualError(t, err, "Passwords do not match")

	badPhone := in
	badPhone.Email, badPhone.Phone = "third@example.com", "12345"
	_, err = svc.Create(ctx, badPhone)
	assert.EqualError(t, err, "Phone number is invalid")
}

func TestAdminUpdateOnlySelf(t *testing.T) {
	svc, store, _ := newAdminFixture()
	ctx := context.Background()
	store.byID[1] = model.Admin{ID: 1, FullName: "One"}
	store.byID[2] = model.Admin{ID: 2, FullName: "Two"}
	name := "Renamed"

	_, err := svc.Update(ctx, 1, 2, UpdateAdminInput{FullName: &name})
	assert.Equal(t, http.StatusForbidden, apperror.Status(err))
	assert.Equal(t, "Two", store.byID[2].FullName)

	a, err := svc.Update(ctx, 1, 1, UpdateAdminInput{FullName: &name, Password: "new", ConfirmPassword: "new"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", a.FullName)
	assert.True(t, utils.VerifyPassword(store.byID[1].PasswordHash, "new"))

	_, err = svc.Update(ctx, 1, 1, UpdateAdminInput{Password: "x", ConfirmPassword: "y"})
	assert.EqualError(t, err, "Passwords do not match")
}

func TestAdminDeleteEndsSessions(t *testing.T) {
	svc, store, tokens := newAdminFixture()
	ctx := context.Background()
	store.byID[1] = model.Admin{ID: 1}
	ts := NewTokenService(tokens, TokenConfig{AccessSecret: "a", RefreshSecret: "r", AccessExpiry: "15m", RefreshExpiry: "7d"})
	_, err := ts.IssueRefreshToken(ctx, 1, model.AudienceAdmin)
	require.NoError(t, err)
	_, err = ts.IssueRefreshToken(ctx, 1, model.AudienceUser)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.True(t, store.byID[1].IsDeleted)
	assert.Equal(t, 1, tokens.count(), "the user session with the same id survives")
}

type memCategories struct{ rows map[uint64]model.Category }

func (m *memCategories) Create(_ context.Context, c model.Category) (uint64, error) {
	c.ID = uint64(len(m.rows) + 1)
	m.rows[c.ID] = c
	return c.ID, nil
}

func (m *memCategories) GetByID(_ context.Context, id uint64) (model.Category, error) {
	c, ok := m.rows[id]
	if !ok || c.IsDeleted {
		return model.Category{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) List(context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCategories) Update(_ context.Context, id uint64, u repository.CategoryUpdate) error {
	c, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	m.rows[id] = c
	return nil
}

func (m *memCategories) SoftDelete(_ context.Context, id uint64) error {
	c, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.IsDeleted = true
	m.rows[id] = c
	return nil
}

func TestCategoryService(t *testing.T) {
	svc := NewCategoryService(&memCategories{rows: map[uint64]model.Category{}})
	ctx := context.Background()

	_, err := svc.Create(ctx, model.Category{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	c, err := svc.Create(ctx, model.Category{Name: " Cars ", NameKu: "ku", NameAr: "ar"})
	require.NoError(t, err)
	assert.Equal(t, "Cars", c.Name)

	blank := ""
	_, err = svc.Update(ctx, c.ID, repository.CategoryUpdate{Name: &blank})
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	_, err = svc.Update(ctx, 42, repository.CategoryUpdate{})
	assert.Equal(t, http.StatusNotFound, apperror.Status(err))

	require.NoError(t, svc.Delete(ctx, c.ID))
}
