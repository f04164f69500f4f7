// Package checkout превращает корзину покупателя в заказ.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/boostmart/internal/cart"
	"github.com/mmeshcher/boostmart/internal/metrics"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
	"github.com/mmeshcher/boostmart/internal/payment"
	"github.com/mmeshcher/boostmart/internal/validation"
)

// DefaultTaxRate задаёт ставку налога по умолчанию.
var DefaultTaxRate = decimal.RequireFromString("0.08")

// idempotencyTTL ограничивает время, в течение которого повтор с тем же ключом возвращает прежний заказ.
const idempotencyTTL = 24 * time.Hour

// PaymentGateway описывает внешнюю платёжную систему.
type PaymentGateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, currency string) (payment.Outcome, error)
}

// OrderCreator создаёт заказы.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in order.NewOrder) (model.Order, error)
}

// Request описывает попытку оформления заказа.
type Request struct {
	Cart     *cart.Cart
	Customer model.Customer
	Notes    string
	// Owner идентифицирует сессию корзины. Ключи идемпотентности разных владельцев не пересекаются.
	Owner string
	// IdempotencyKey объединяет повторные отправки одной формы в одно оформление.
	IdempotencyKey string
}

// Quote содержит расчёт стоимости корзины.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Result описывает итог оформления.
type Result struct {
	OrderID string
	// Replayed означает, что заказ был оформлен ранее запросом с тем же ключом идемпотентности.
	Replayed bool
}

// Transformer оформляет заказы из корзин.
type Transformer struct {
	payments PaymentGateway
	orders   OrderCreator
	taxRate  decimal.Decimal
	currency string
	metrics  *metrics.Metrics

	group singleflight.Group
	mu    sync.Mutex
	done  map[string]completedCheckout
	now   func() time.Time
}

type completedCheckout struct {
	orderID string
	at      time.Time
}

// NewTransformer создаёт сервис оформления заказов.
func NewTransformer(payments PaymentGateway, orders OrderCreator, taxRate decimal.Decimal, currency string, m *metrics.Metrics) *Transformer {
	return &Transformer{
		payments: payments,
		orders:   orders,
		taxRate:  taxRate,
		currency: currency,
		metrics:  m,
		done:     make(map[string]completedCheckout),
		now:      time.Now,
	}
}

// Quote рассчитывает сумму, налог и итог для позиций.
func (t *Transformer) Quote(lines []model.LineItem) Quote {
	subtotal := decimal.Zero
	for _, li := range lines {
		subtotal = subtotal.Add(li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	tax := subtotal.Mul(t.taxRate).Round(2)
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Checkout списывает оплату, создаёт заказ и убирает оформленные позиции из корзины. Корзина
// меняется только после подтверждения создания заказа; при любой ошибке она остаётся нетронутой.
func (t *Transformer) Checkout(ctx context.Context, req Request) (Result, error) {
	if req.IdempotencyKey == "" {
		id, err := t.checkout(ctx, req)
		return Result{OrderID: id}, err
	}

	key := req.Owner + "\x00" + req.IdempotencyKey
	if id, ok := t.completed(key); ok {
		return Result{OrderID: id, Replayed: true}, nil
	}

	// Только вызов, выполнивший оформление, получает Replayed == false.
	ran := false
	v, err, _ := t.group.Do(key, func() (any, error) {
		ran = true
		if id, ok := t.completed(key); ok {
			return Result{OrderID: id, Replayed: true}, nil
		}
		id, err := t.checkout(ctx, req)
		if err != nil {
			return Result{}, err
		}

		t.remember(key, id)
		return Result{OrderID: id}, nil
	})
	if err != nil {
		return Result{}, err
	}

	res := v.(Result)
	if !ran {
		res.Replayed = true
	}
	return res, nil
}

func (t *Transformer) completed(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.done[key]
	if !ok || t.now().Sub(c.at) > idempotencyTTL {
		return "", false
	}
	return c.orderID, true
}

// remember сохраняет результат оформления и удаляет ключи старше idempotencyTTL.
func (t *Transformer) remember(key, orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for k, c := range t.done {
		if now.Sub(c.at) > idempotencyTTL {
			delete(t.done, k)
		}
	}
	t.done[key] = completedCheckout{orderID: orderID, at: now}
}

func (t *Transformer) checkout(ctx context.Context, req Request) (string, error) {
	if req.Cart == nil || req.Cart.IsEmpty() {
		t.metrics.ObserveCheckout("invalid")
		return "", fmt.Errorf("%w: cart is empty", model.ErrInvalidCheckoutState)
	}
	if err := validateCustomer(req.Customer); err != nil {
		t.metrics.ObserveCheckout("invalid")
		return "", err
	}

	lines := req.Cart.Snapshot()
	q := t.Quote(lines)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	outcome, err := t.payments.Charge(ctx, q.Total, t.currency)
	if err != nil {
		t.metrics.ObserveCheckout("payment_error")
		return "", fmt.Errorf("%w: %w", model.ErrPaymentFailed, err)
	}
	if outcome != payment.Succeeded {
		t.metrics.ObserveCheckout("payment_failed")
		return "", fmt.Errorf("%w: charge declined", model.ErrPaymentFailed)
	}

	o, err := t.orders.CreateOrder(ctx, order.NewOrder{
		Customer:      req.Customer,
		LineItems:     lines,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentPaid,
		Subtotal:      q.Subtotal,
		Tax:           q.Tax,
		TotalAmount:   q.Total,
		Notes:         req.Notes,
	})
	if err != nil {
		t.metrics.ObserveCheckout("create_failed")
		return "", fmt.Errorf("create order: %w", err)
	}

	// Позиции, добавленные во время оплаты, остаются в корзине.
	req.Cart.Settle(lines)
	t.metrics.ObserveCheckout("ok")
	return o.ID, nil
}

func validateCustomer(c model.Customer) error {
	if c.UserID != "" {
		return nil
	}
	if validation.IsBlank(c.Name) || validation.IsBlank(c.Email) {
		return fmt.Errorf("%w: guest name and email are required", model.ErrInvalidCheckoutState)
	}
	if !validation.IsValidEmail(c.Email) {
		return fmt.Errorf("%w: invalid guest email", model.ErrInvalidCheckoutState)
	}
	return nil
}
