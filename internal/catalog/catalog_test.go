package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/boostmart/internal/model"
)

type stubStore struct {
	services []model.Service
	listErr  error

	inserted  []model.Service
	insertErr error

	updated   []model.Service
	updateErr error

	increments map[string]int64
	incErr     error
}

func (s *stubStore) ListServices(ctx context.Context) ([]model.Service, error) {
	return s.services, s.listErr
}

func (s *stubStore) InsertService(ctx context.Context, svc model.Service) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, svc)
	return nil
}

func (s *stubStore) UpdateService(ctx context.Context, svc model.Service) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, svc)
	return nil
}

func (s *stubStore) IncrementServiceOrders(ctx context.Context, id string, n int64) error {
	if s.incErr != nil {
		return s.incErr
	}
	if s.increments == nil {
		s.increments = map[string]int64{}
	}
	s.increments[id] += n
	return nil
}

func input(title string, category model.Category, active bool) ServiceInput {
	return ServiceInput{
		Title:    title,
		Price:    decimal.RequireFromString("9.99"),
		Features: []string{"fast"},
		Active:   active,
		Category: category,
	}
}

func TestListFiltersInactiveAndCategory(t *testing.T) {
	ctx := context.Background()
	c := New(&stubStore{})

	a, err := c.Add(ctx, input("A", model.CategoryMedals, true))
	require.NoError(t, err)
	_, err = c.Add(ctx, input("B", model.CategorySamples, true))
	require.NoError(t, err)
	hidden, err := c.Add(ctx, input("C", model.CategoryMedals, false))
	require.NoError(t, err)

	all := c.List(ctx, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Title)
	assert.Equal(t, "B", all[1].Title)

	medals := model.CategoryMedals
	filtered := c.List(ctx, &medals)
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)

	got, err := c.Get(ctx, hidden.ID)
	require.NoError(t, err, "inactive services stay resolvable")
	assert.False(t, got.Active)

	assert.Len(t, c.All(ctx), 3)
}

func TestGetUnknown(t *testing.T) {
	c := New(&stubStore{})

	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrServiceNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddValidation(t *testing.T) {
	c := New(&stubStore{})
	ctx := context.Background()

	_, err := c.Add(ctx, input("", model.CategoryMedals, true))
	assert.ErrorIs(t, err, model.ErrInvalidService)

	in := input("Neg", model.CategoryMedals, true)
	in.Price = decimal.NewFromInt(-1)
	_, err = c.Add(ctx, in)
	assert.ErrorIs(t, err, model.ErrInvalidService)

	_, err = c.Add(ctx, input("Cat", model.Category("Skins"), true))
	assert.ErrorIs(t, err, model.ErrInvalidService)
}

func TestPricesMustBeWholeCents(t *testing.T) {
	store := &stubStore{}
	c := New(store)
	ctx := context.Background()

	in := input("Fraction", model.CategoryMedals, true)
	in.Price = decimal.RequireFromString("9.999")
	_, err := c.Add(ctx, in)
	assert.ErrorIs(t, err, model.ErrInvalidService)

	in = input("Original", model.CategoryMedals, true)
	orig := decimal.RequireFromString("19.995")
	in.OriginalPrice = &orig
	_, err = c.Add(ctx, in)
	assert.ErrorIs(t, err, model.ErrInvalidService)
	assert.Empty(t, store.inserted)

	in = input("Trailing zeros", model.CategoryMedals, true)
	in.Price = decimal.RequireFromString("10.500")
	s, err := c.Add(ctx, in)
	require.NoError(t, err)

	price := decimal.RequireFromString("0.001")
	_, err = c.Update(ctx, s.ID, ServicePatch{Price: &price})
	assert.ErrorIs(t, err, model.ErrInvalidService)
	assert.Empty(t, store.updated)
}

func TestAddStoreFailureLeavesCatalogUnchanged(t *testing.T) {
	c := New(&stubStore{insertErr: errors.New("db down")})

	_, err := c.Add(context.Background(), input("A", model.CategoryMedals, true))
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestUpdateAndSetActive(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{}
	c := New(store)

	s, err := c.Add(ctx, input("A", model.CategoryMedals, true))
	require.NoError(t, err)

	price := decimal.RequireFromString("14.50")
	title := "A+"
	upd, err := c.Update(ctx, s.ID, ServicePatch{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "A+", upd.Title)
	assert.True(t, upd.Price.Equal(price))
	require.Len(t, store.updated, 1)

	_, err = c.SetActive(ctx, s.ID, false)
	require.NoError(t, err)
	assert.Empty(t, c.List(ctx, nil))

	_, err = c.SetActive(ctx, s.ID, false)
	require.NoError(t, err)
	assert.Len(t, store.updated, 2, "no-op toggle must not hit the store")

	_, err = c.Update(ctx, "missing", ServicePatch{Title: &title})
	assert.ErrorIs(t, err, model.ErrServiceNotFound)
}

func TestUpdateStoreFailureKeepsOldValue(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{}
	c := New(store)

	s, err := c.Add(ctx, input("A", model.CategoryMedals, true))
	require.NoError(t, err)

	store.updateErr = errors.New("db down")
	price := decimal.NewFromInt(100)
	_, err = c.Update(ctx, s.ID, ServicePatch{Price: &price})
	require.Error(t, err)

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestIncrementOrders(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{}
	c := New(store)

	s, err := c.Add(ctx, input("A", model.CategoryMedals, true))
	require.NoError(t, err)

	require.NoError(t, c.IncrementOrders(ctx, s.ID, 2))
	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.OrdersCount)
	assert.Equal(t, int64(2), store.increments[s.ID])
}

func TestLoadAndSeed(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{services: []model.Service{{ID: "x", Title: "X", Active: true, Category: model.CategoryMedals}}}
	c := New(store)

	require.NoError(t, c.Load(ctx))
	n, err := c.Seed(ctx, DefaultServices())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "seed must skip a non-empty catalog")

	empty := New(&stubStore{})
	n, err = empty.Seed(ctx, DefaultServices())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultServices()), n)
	assert.Equal(t, n, empty.Len())
}

func TestReturnedServiceIsCopy(t *testing.T) {
	ctx := context.Background()
	c := New(&stubStore{})

	s, err := c.Add(ctx, input("A", model.CategoryMedals, true))
	require.NoError(t, err)

	s.Features[0] = "mutated"
	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "fast", got.Features[0])
}
