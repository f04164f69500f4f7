package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/boostmart/internal/model"
)

// Filter задаёт условия выборки заказов для административных инструментов.
type Filter struct {
	Status *model.OrderStatus
}

// GetByID возвращает копию заказа.
func (m *Manager) GetByID(_ context.Context, id string) (model.Order, error) {
	m.mu.RLock()
	e, ok := m.orders[id]
	m.mu.RUnlock()
	if !ok {
		return model.Order{}, fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.order.Clone(), nil
}

// GetByCustomer возвращает заказы пользователя, начиная с самых новых.
func (m *Manager) GetByCustomer(ctx context.Context, userID string) []model.Order {
	if userID == "" {
		return nil
	}
	return m.collect(func(o *model.Order) bool {
		return o.Customer.UserID == userID
	})
}

// List возвращает заказы, удовлетворяющие фильтру, начиная с самых новых.
func (m *Manager) List(_ context.Context, f Filter) []model.Order {
	return m.collect(func(o *model.Order) bool {
		return f.Status == nil || o.Status == *f.Status
	})
}

func (m *Manager) collect(match func(o *model.Order) bool) []model.Order {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.seq))
	for i := len(m.seq) - 1; i >= 0; i-- {
		entries = append(entries, m.orders[m.seq[i]])
	}
	m.mu.RUnlock()

	res := []model.Order{}
	for _, e := range entries {
		e.mu.Lock()
		if match(&e.order) {
			res = append(res, e.order.Clone())
		}
		e.mu.Unlock()
	}
	return res
}

// Summary содержит краткое представление заказа для списков.
type Summary struct {
	ID                string
	Status            model.OrderStatus
	PaymentStatus     model.PaymentStatus
	TotalAmount       decimal.Decimal
	ItemCount         int
	AssignedFulfiller string
	Progress          *int
	Unread            int
	LastEvent         model.TrackingEvent
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summarize строит краткое представление заказа. Unread считает непрочитанные сообщения,
// написанные не viewer.
func Summarize(o model.Order, viewer model.Sender) Summary {
	s := Summary{
		ID:                o.ID,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		TotalAmount:       o.TotalAmount,
		ItemCount:         o.ItemCount(),
		AssignedFulfiller: o.AssignedFulfiller,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.Progress != nil {
		p := *o.Progress
		s.Progress = &p
	}
	for _, msg := range o.Messages {
		if !msg.IsRead && msg.From != viewer {
			s.Unread++
		}
	}
	if n := len(o.TrackingEvents); n > 0 {
		s.LastEvent = o.TrackingEvents[n-1]
	}
	return s
}
