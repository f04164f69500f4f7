// Package events публикует события жизненного цикла заказов во внешние брокеры.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type описывает тип события.
type Type string

const (
	OrderCreated           Type = "order.created"
	OrderStatusChanged     Type = "order.status_changed"
	OrderPaymentChanged    Type = "order.payment_changed"
	OrderMessageAdded      Type = "order.message_added"
	OrderFulfillerAssigned Type = "order.fulfiller_assigned"
	OrderTrackingAdded     Type = "order.tracking_added"
)

// Event описывает конверт события, отправляемого в брокер.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	OrderID    string         `json:"order_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New создаёт событие с новым идентификатором.
func New(t Type, orderID string, at time.Time, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    orderID,
		OccurredAt: at.UTC(),
		Data:       data,
	}
}

// Encode сериализует событие в JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher описывает отправку событий.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop отбрасывает события. Используется, когда брокер не настроен.
type Nop struct{}

// Publish ничего не делает.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close ничего не делает.
func (Nop) Close() error { return nil }
