// Package catalog содержит реестр услуг витрины.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/boostmart/internal/model"
)

// Store описывает контракт хранения услуг.
type Store interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	InsertService(ctx context.Context, s model.Service) error
	UpdateService(ctx context.Context, s model.Service) error
	IncrementServiceOrders(ctx context.Context, id string, n int64) error
}

// ServiceInput содержит данные новой услуги.
type ServiceInput struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Duration      string
	Difficulty    string
	Features      []string
	Active        bool
	Popular       bool
	Category      model.Category
}

// ServicePatch содержит изменяемые поля услуги. Nil означает «не менять».
type ServicePatch struct {
	Title         *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Duration      *string
	Difficulty    *string
	Features      []string
	Popular       *bool
	Category      *model.Category
}

// Catalog хранит услуги в памяти и сохраняет изменения через Store.
// Изменения применяются в памяти только после успешной записи в хранилище.
type Catalog struct {
	mu       sync.RWMutex
	store    Store
	services map[string]model.Service
	order    []string
	now      func() time.Time
}

// New создаёт пустой каталог поверх хранилища.
func New(store Store) *Catalog {
	return &Catalog{
		store:    store,
		services: make(map[string]model.Service),
		now:      time.Now,
	}
}

// Load загружает услуги из хранилища, заменяя текущее содержимое.
func (c *Catalog) Load(ctx context.Context) error {
	list, err := c.store.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.services = make(map[string]model.Service, len(list))
	c.order = c.order[:0]
	for _, s := range list {
		c.services[s.ID] = s.Clone()
		c.order = append(c.order, s.ID)
	}
	return nil
}

// Len возвращает количество услуг, включая неактивные.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.order)
}

// List возвращает активные услуги в порядке создания, при необходимости фильтруя по категории.
func (c *Catalog) List(_ context.Context, category *model.Category) []model.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Service, 0, len(c.order))
	for _, id := range c.order {
		s := c.services[id]
		if !s.Active {
			continue
		}
		if category != nil && s.Category != *category {
			continue
		}
		res = append(res, s.Clone())
	}
	return res
}

// All возвращает все услуги, включая неактивные.
func (c *Catalog) All(_ context.Context) []model.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res := make([]model.Service, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, c.services[id].Clone())
	}
	return res
}

// Get возвращает услугу по идентификатору, в том числе неактивную.
func (c *Catalog) Get(_ context.Context, id string) (model.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.services[id]
	if !ok {
		return model.Service{}, fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
	}
	return s.Clone(), nil
}

// Add создаёт новую услугу.
func (c *Catalog) Add(ctx context.Context, in ServiceInput) (model.Service, error) {
	now := c.now().UTC()
	s := model.Service{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Duration:      in.Duration,
		Difficulty:    in.Difficulty,
		Features:      append([]string(nil), in.Features...),
		Active:        in.Active,
		Popular:       in.Popular,
		Category:      in.Category,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validate(s); err != nil {
		return model.Service{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.InsertService(ctx, s); err != nil {
		return model.Service{}, fmt.Errorf("insert service: %w", err)
	}

	c.services[s.ID] = s.Clone()
	c.order = append(c.order, s.ID)
	return s.Clone(), nil
}

// Update изменяет поля услуги. Позиции уже созданных заказов не затрагиваются.
func (c *Catalog) Update(ctx context.Context, id string, p ServicePatch) (model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.services[id]
	if !ok {
		return model.Service{}, fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
	}

	s := cur.Clone()
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		s.OriginalPrice = &v
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.Difficulty != nil {
		s.Difficulty = *p.Difficulty
	}
	if p.Features != nil {
		s.Features = append([]string(nil), p.Features...)
	}
	if p.Popular != nil {
		s.Popular = *p.Popular
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	s.UpdatedAt = c.now().UTC()

	if err := validate(s); err != nil {
		return model.Service{}, err
	}

	if err := c.store.UpdateService(ctx, s); err != nil {
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}

	c.services[id] = s
	return s.Clone(), nil
}

// SetActive скрывает или возвращает услугу на витрину. Услуги не удаляются,
// так как на них ссылаются существующие заказы.
func (c *Catalog) SetActive(ctx context.Context, id string, active bool) (model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.services[id]
	if !ok {
		return model.Service{}, fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
	}
	if cur.Active == active {
		return cur.Clone(), nil
	}

	s := cur.Clone()
	s.Active = active
	s.UpdatedAt = c.now().UTC()

	if err := c.store.UpdateService(ctx, s); err != nil {
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}

	c.services[id] = s
	return s.Clone(), nil
}

// IncrementOrders увеличивает счётчик заказов услуги.
func (c *Catalog) IncrementOrders(ctx context.Context, id string, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.services[id]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
	}

	if err := c.store.IncrementServiceOrders(ctx, id, n); err != nil {
		return fmt.Errorf("increment service orders: %w", err)
	}

	s.OrdersCount += n
	c.services[id] = s
	return nil
}

func validate(s model.Service) error {
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", model.ErrInvalidService)
	}
	if s.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidService)
	}
	if !wholeCents(s.Price) {
		return fmt.Errorf("%w: price must not have fractions of a cent", model.ErrInvalidService)
	}
	if s.OriginalPrice != nil && s.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: original price must not be negative", model.ErrInvalidService)
	}
	if s.OriginalPrice != nil && !wholeCents(*s.OriginalPrice) {
		return fmt.Errorf("%w: original price must not have fractions of a cent", model.ErrInvalidService)
	}
	if _, err := model.ParseCategory(string(s.Category)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidService, err)
	}
	return nil
}

func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
