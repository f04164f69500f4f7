// Package order управляет жизненным циклом заказов: статусами, оплатой,
// перепиской и историей отслеживания.
//
// Manager владеет заказами в памяти. Каждая операция сначала проверяет изменение на копии
// заказа, затем сохраняет его через Store и только после успешной записи заменяет заказ
// в памяти. Ошибка хранилища оставляет состояние без изменений.
package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/events"
	"github.com/mmeshcher/boostmart/internal/metrics"
	"github.com/mmeshcher/boostmart/internal/model"
)

const (
	placedStatus      = "Order Placed"
	placedDescription = "Your order has been received and is being processed"
)

// Store описывает контракт хранения заказов.
type Store interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	InsertOrder(ctx context.Context, o model.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, progress *int, updatedAt time.Time) error
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus, updatedAt time.Time) error
	InsertMessage(ctx context.Context, orderID string, m model.OrderMessage, updatedAt time.Time) error
	MarkMessageRead(ctx context.Context, orderID, messageID string) error
	UpdateFulfiller(ctx context.Context, id, name string, updatedAt time.Time) error
	InsertTrackingEvent(ctx context.Context, orderID string, seq int, e model.TrackingEvent, updatedAt time.Time) error
}

// NewOrder содержит данные для создания заказа.
type NewOrder struct {
	Customer      model.Customer
	LineItems     []model.LineItem
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	TotalAmount   decimal.Decimal
	Notes         string
}

type entry struct {
	mu    sync.Mutex
	order model.Order
}

// Manager управляет заказами.
type Manager struct {
	mu     sync.RWMutex
	orders map[string]*entry
	seq    []string

	store     Store
	publisher events.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// NewManager создаёт менеджер заказов. publisher, logger и m могут быть nil.
func NewManager(store Store, publisher events.Publisher, logger *zap.Logger, m *metrics.Metrics) *Manager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		orders:    make(map[string]*entry),
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Load загружает заказы из хранилища, заменяя текущее содержимое.
func (m *Manager) Load(ctx context.Context) error {
	list, err := m.store.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = make(map[string]*entry, len(list))
	m.seq = m.seq[:0]
	for _, o := range list {
		m.orders[o.ID] = &entry{order: o.Clone()}
		m.seq = append(m.seq, o.ID)
	}
	return nil
}

// CreateOrder создаёт заказ с первым событием «Order Placed» и пустой перепиской.
func (m *Manager) CreateOrder(ctx context.Context, in NewOrder) (model.Order, error) {
	if len(in.LineItems) == 0 {
		return model.Order{}, fmt.Errorf("%w: order has no line items", model.ErrInvalidCheckoutState)
	}
	if _, err := model.ParseOrderStatus(string(in.Status)); err != nil {
		return model.Order{}, err
	}
	if _, err := model.ParsePaymentStatus(string(in.PaymentStatus)); err != nil {
		return model.Order{}, err
	}
	if in.TotalAmount.IsNegative() {
		return model.Order{}, fmt.Errorf("%w: negative total", model.ErrInvalidCheckoutState)
	}

	now := m.now().UTC()
	o := model.Order{
		ID:            m.newID(),
		Customer:      in.Customer,
		LineItems:     append([]model.LineItem(nil), in.LineItems...),
		Status:        in.Status,
		PaymentStatus: in.PaymentStatus,
		Subtotal:      in.Subtotal,
		Tax:           in.Tax,
		TotalAmount:   in.TotalAmount,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		Messages:      []model.OrderMessage{},
		TrackingEvents: []model.TrackingEvent{{
			Status:      placedStatus,
			Description: placedDescription,
			Timestamp:   now,
		}},
	}

	if err := m.store.InsertOrder(ctx, o); err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}

	m.mu.Lock()
	m.orders[o.ID] = &entry{order: o.Clone()}
	m.seq = append(m.seq, o.ID)
	m.mu.Unlock()

	m.publish(ctx, events.New(events.OrderCreated, o.ID, now, map[string]any{
		"status":         string(o.Status),
		"payment_status": string(o.PaymentStatus),
		"total_amount":   o.TotalAmount.StringFixed(2),
		"items":          o.ItemCount(),
	}))

	return o.Clone(), nil
}

// UpdateStatus переводит заказ в новый статус, при необходимости обновляя прогресс (0–100).
func (m *Manager) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, progress *int) error {
	var at time.Time
	err := m.mutate(id, func(o *model.Order) error {
		if err := o.Status.ValidateTransition(status); err != nil {
			m.metrics.ObserveTransition("status", "rejected")
			return err
		}

		at = m.now().UTC()
		o.Status = status
		if progress != nil {
			p := clampProgress(*progress)
			o.Progress = &p
		}
		o.UpdatedAt = at

		if err := m.store.UpdateOrderStatus(ctx, id, o.Status, o.Progress, at); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.metrics.ObserveTransition("status", "ok")
	data := map[string]any{"status": string(status)}
	if progress != nil {
		data["progress"] = clampProgress(*progress)
	}
	m.publish(ctx, events.New(events.OrderStatusChanged, id, at, data))
	return nil
}

// UpdatePaymentStatus меняет статус оплаты. Статус заказа при этом не меняется.
func (m *Manager) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	var at time.Time
	err := m.mutate(id, func(o *model.Order) error {
		if err := o.PaymentStatus.ValidateTransition(status); err != nil {
			m.metrics.ObserveTransition("payment", "rejected")
			return err
		}

		at = m.now().UTC()
		o.PaymentStatus = status
		o.UpdatedAt = at

		if err := m.store.UpdatePaymentStatus(ctx, id, status, at); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.metrics.ObserveTransition("payment", "ok")
	m.publish(ctx, events.New(events.OrderPaymentChanged, id, at, map[string]any{"payment_status": string(status)}))
	return nil
}

// AddMessage добавляет непрочитанное сообщение в переписку по заказу.
func (m *Manager) AddMessage(ctx context.Context, id string, from model.Sender, body string) (string, error) {
	if _, err := model.ParseSender(string(from)); err != nil {
		return "", err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: body is required", model.ErrInvalidMessage)
	}

	msg := model.OrderMessage{
		ID:   m.newID(),
		From: from,
		Body: body,
	}
	err := m.mutate(id, func(o *model.Order) error {
		msg.Timestamp = m.now().UTC()
		o.Messages = append(o.Messages, msg)
		o.UpdatedAt = msg.Timestamp

		if err := m.store.InsertMessage(ctx, id, msg, msg.Timestamp); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	m.publish(ctx, events.New(events.OrderMessageAdded, id, msg.Timestamp, map[string]any{
		"message_id": msg.ID,
		"from":       string(from),
	}))
	return msg.ID, nil
}

// MarkMessageRead отмечает сообщение прочитанным. Повторный вызов ничего не меняет.
func (m *Manager) MarkMessageRead(ctx context.Context, id, messageID string) error {
	return m.mutate(id, func(o *model.Order) error {
		i := o.FindMessage(messageID)
		if i < 0 {
			return fmt.Errorf("%w: %s", model.ErrMessageNotFound, messageID)
		}
		if o.Messages[i].IsRead {
			return nil
		}
		o.Messages[i].IsRead = true

		if err := m.store.MarkMessageRead(ctx, id, messageID); err != nil {
			return fmt.Errorf("mark message read: %w", err)
		}
		return nil
	})
}

// AssignFulfiller назначает исполнителя заказа. Завершённые и отменённые заказы не изменяются.
func (m *Manager) AssignFulfiller(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: fulfiller name is required", model.ErrInvalidMessage)
	}

	var at time.Time
	err := m.mutate(id, func(o *model.Order) error {
		if o.Status.Terminal() {
			return fmt.Errorf("%w: status %s", model.ErrOrderClosed, o.Status)
		}

		at = m.now().UTC()
		o.AssignedFulfiller = name
		o.UpdatedAt = at

		if err := m.store.UpdateFulfiller(ctx, id, name, at); err != nil {
			return fmt.Errorf("update fulfiller: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.publish(ctx, events.New(events.OrderFulfillerAssigned, id, at, map[string]any{"fulfiller": name}))
	return nil
}

// AddTrackingEvent добавляет событие в конец истории отслеживания.
func (m *Manager) AddTrackingEvent(ctx context.Context, id, status, description string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return fmt.Errorf("%w: tracking status is required", model.ErrInvalidMessage)
	}

	var ev model.TrackingEvent
	err := m.mutate(id, func(o *model.Order) error {
		ev = model.TrackingEvent{
			Status:      status,
			Description: description,
			Timestamp:   m.now().UTC(),
		}
		seq := len(o.TrackingEvents)
		o.TrackingEvents = append(o.TrackingEvents, ev)
		o.UpdatedAt = ev.Timestamp

		if err := m.store.InsertTrackingEvent(ctx, id, seq, ev, ev.Timestamp); err != nil {
			return fmt.Errorf("insert tracking event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.publish(ctx, events.New(events.OrderTrackingAdded, id, ev.Timestamp, map[string]any{
		"status":      ev.Status,
		"description": ev.Description,
	}))
	return nil
}

// mutate применяет fn к копии заказа и заменяет заказ только при успешном fn.
func (m *Manager) mutate(id string, fn func(o *model.Order) error) error {
	m.mu.RLock()
	e, ok := m.orders[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrOrderNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.order.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	e.order = next
	return nil
}

func (m *Manager) publish(ctx context.Context, ev events.Event) {
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.metrics.ObserveEventFailure()
		m.logger.Warn("publish order event failed",
			zap.Error(err),
			zap.String("type", string(ev.Type)),
			zap.String("order", ev.OrderID),
		)
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
