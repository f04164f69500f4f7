package model

import "fmt"

// OrderStatus описывает стадию выполнения заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  nil,
	OrderStatusCancelled:  nil,
}

// ParseOrderStatus возвращает статус заказа по строке.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ValidateTransition проверяет допустимость перехода между статусами заказа.
// Повтор текущего нетерминального статуса допустим и используется для обновления прогресса.
func (s OrderStatus) ValidateTransition(to OrderStatus) error {
	if _, ok := orderTransitions[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if s == to && !s.Terminal() {
		return nil
	}
	for _, next := range orderTransitions[s] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: order %s -> %s", ErrIllegalTransition, s, to)
}

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {PaymentRefunded},
	PaymentFailed:   nil,
	PaymentRefunded: nil,
}

// ParsePaymentStatus возвращает статус оплаты по строке.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(s)
	if _, ok := paymentTransitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// ValidateTransition проверяет допустимость перехода между статусами оплаты.
func (s PaymentStatus) ValidateTransition(to PaymentStatus) error {
	if _, ok := paymentTransitions[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	for _, next := range paymentTransitions[s] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: payment %s -> %s", ErrIllegalTransition, s, to)
}
