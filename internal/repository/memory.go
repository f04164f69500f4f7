package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmeshcher/boostmart/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Используется, когда адрес БД не задан,
// и в тестах. Данные теряются при перезапуске.
type MemoryRepository struct {
	mu       sync.Mutex
	services []model.Service
	orders   []model.Order
	profiles map[string]model.Principal
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]model.Principal)}
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error { return nil }

// Ping всегда успешен.
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// UpsertProfile сохраняет пользователя.
func (r *MemoryRepository) UpsertProfile(_ context.Context, p model.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.ID] = p
	return nil
}

// Profile возвращает сохранённого пользователя.
func (r *MemoryRepository) Profile(id string) (model.Principal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	return p, ok
}

// ListServices возвращает копии всех услуг.
func (r *MemoryRepository) ListServices(context.Context) ([]model.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]model.Service, 0, len(r.services))
	for _, s := range r.services {
		res = append(res, s.Clone())
	}
	return res, nil
}

// InsertService сохраняет новую услугу.
func (r *MemoryRepository) InsertService(_ context.Context, s model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.serviceIndex(s.ID) >= 0 {
		return fmt.Errorf("%w: service %s", ErrDuplicate, s.ID)
	}
	r.services = append(r.services, s.Clone())
	return nil
}

// UpdateService перезаписывает услугу, сохраняя счётчик заказов.
func (r *MemoryRepository) UpdateService(_ context.Context, s model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.serviceIndex(s.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrServiceNotFound, s.ID)
	}
	s = s.Clone()
	s.OrdersCount = r.services[i].OrdersCount
	r.services[i] = s
	return nil
}

// IncrementServiceOrders увеличивает счётчик заказов услуги.
func (r *MemoryRepository) IncrementServiceOrders(_ context.Context, id string, n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.serviceIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrServiceNotFound, id)
	}
	r.services[i].OrdersCount += n
	return nil
}

func (r *MemoryRepository) serviceIndex(id string) int {
	for i := range r.services {
		if r.services[i].ID == id {
			return i
		}
	}
	return -1
}

// ListOrders возвращает копии всех заказов.
func (r *MemoryRepository) ListOrders(context.Context) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		res = append(res, o.Clone())
	}
	return res, nil
}

// InsertOrder сохраняет новый заказ.
func (r *MemoryRepository) InsertOrder(_ context.Context, o model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.orderIndex(o.ID) >= 0 {
		return fmt.Errorf("%w: order %s", ErrDuplicate, o.ID)
	}
	r.orders = append(r.orders, o.Clone())
	return nil
}

// UpdateOrderStatus обновляет статус и прогресс заказа.
func (r *MemoryRepository) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus, progress *int, updatedAt time.Time) error {
	return r.withOrder(id, updatedAt, func(o *model.Order) error {
		o.Status = status
		o.Progress = nil
		if progress != nil {
			p := *progress
			o.Progress = &p
		}
		return nil
	})
}

// UpdatePaymentStatus обновляет статус оплаты заказа.
func (r *MemoryRepository) UpdatePaymentStatus(_ context.Context, id string, status model.PaymentStatus, updatedAt time.Time) error {
	return r.withOrder(id, updatedAt, func(o *model.Order) error {
		o.PaymentStatus = status
		return nil
	})
}

// InsertMessage добавляет сообщение в переписку по заказу.
func (r *MemoryRepository) InsertMessage(_ context.Context, orderID string, m model.OrderMessage, updatedAt time.Time) error {
	return r.withOrder(orderID, updatedAt, func(o *model.Order) error {
		o.Messages = append(o.Messages, m)
		return nil
	})
}

// MarkMessageRead помечает сообщение прочитанным.
func (r *MemoryRepository) MarkMessageRead(_ context.Context, orderID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.orderIndex(orderID)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrOrderNotFound, orderID)
	}
	j := r.orders[i].FindMessage(messageID)
	if j < 0 {
		return fmt.Errorf("%w: %s", model.ErrMessageNotFound, messageID)
	}
	r.orders[i].Messages[j].IsRead = true
	return nil
}

// UpdateFulfiller назначает исполнителя заказа.
func (r *MemoryRepository) UpdateFulfiller(_ context.Context, id, name string, updatedAt time.Time) error {
	return r.withOrder(id, updatedAt, func(o *model.Order) error {
		o.AssignedFulfiller = name
		return nil
	})
}

// InsertTrackingEvent добавляет событие в историю отслеживания под порядковым номером seq.
func (r *MemoryRepository) InsertTrackingEvent(_ context.Context, orderID string, seq int, e model.TrackingEvent, updatedAt time.Time) error {
	return r.withOrder(orderID, updatedAt, func(o *model.Order) error {
		if seq != len(o.TrackingEvents) {
			return fmt.Errorf("%w: tracking event %s/%d", ErrDuplicate, orderID, seq)
		}
		o.TrackingEvents = append(o.TrackingEvents, e)
		return nil
	})
}

func (r *MemoryRepository) withOrder(id string, updatedAt time.Time, fn func(o *model.Order) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.orderIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}
	if err := fn(&r.orders[i]); err != nil {
		return err
	}
	r.orders[i].UpdatedAt = updatedAt
	return nil
}

func (r *MemoryRepository) orderIndex(id string) int {
	for i := range r.orders {
		if r.orders[i].ID == id {
			return i
		}
	}
	return -1
}
