package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/boostmart/internal/cart"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
	"github.com/mmeshcher/boostmart/internal/payment"
)

type stubGateway struct {
	outcome payment.Outcome
	err     error
	calls   atomic.Int32
	amounts []decimal.Decimal
	mu      sync.Mutex

	onCharge func()
}

func (g *stubGateway) Charge(ctx context.Context, amount decimal.Decimal, currency string) (payment.Outcome, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.amounts = append(g.amounts, amount)
	g.mu.Unlock()
	if g.onCharge != nil {
		g.onCharge()
	}
	return g.outcome, g.err
}

type stubOrders struct {
	mu      sync.Mutex
	created []order.NewOrder
	err     error
}

func (s *stubOrders) CreateOrder(ctx context.Context, in order.NewOrder) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return model.Order{}, s.err
	}
	s.created = append(s.created, in)
	return model.Order{ID: fmt.Sprintf("order-%d", len(s.created))}, nil
}

func filledCart() *cart.Cart {
	c := cart.New()
	c.AddItem(model.ServiceSnapshot{ID: "a", Title: "A", Price: decimal.NewFromInt(10)}, 2)
	c.AddItem(model.ServiceSnapshot{ID: "b", Title: "B", Price: decimal.NewFromInt(5)}, 1)
	return c
}

func user() model.Customer {
	return model.Customer{UserID: "u1", Email: "user@example.com"}
}

func newTransformer(g *stubGateway, o *stubOrders) *Transformer {
	return NewTransformer(g, o, DefaultTaxRate, "USD", nil)
}

func TestCheckout_ComputesTotalsAndClearsCart(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	o := &stubOrders{}
	tr := newTransformer(g, o)
	c := filledCart()

	res, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: user(), Notes: "evenings"})
	require.NoError(t, err)
	assert.Equal(t, "order-1", res.OrderID)
	assert.False(t, res.Replayed)

	require.Len(t, o.created, 1)
	created := o.created[0]
	assert.Equal(t, "25.00", created.Subtotal.StringFixed(2))
	assert.Equal(t, "2.00", created.Tax.StringFixed(2))
	assert.Equal(t, "27.00", created.TotalAmount.StringFixed(2))
	assert.Equal(t, model.OrderStatusPending, created.Status)
	assert.Equal(t, model.PaymentPaid, created.PaymentStatus)
	assert.Equal(t, "evenings", created.Notes)
	require.Len(t, created.LineItems, 2)
	assert.Equal(t, model.LineItem{ServiceID: "a", Name: "A", Price: decimal.NewFromInt(10), Quantity: 2}, created.LineItems[0])

	require.Len(t, g.amounts, 1)
	assert.True(t, g.amounts[0].Equal(decimal.NewFromInt(27)))

	assert.True(t, c.Total().IsZero())
	assert.True(t, c.IsEmpty())
}

func TestCheckout_EmptyCart(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	tr := newTransformer(g, &stubOrders{})

	_, err := tr.Checkout(context.Background(), Request{Cart: cart.New(), Customer: user()})
	assert.ErrorIs(t, err, model.ErrInvalidCheckoutState)

	_, err = tr.Checkout(context.Background(), Request{Customer: user()})
	assert.ErrorIs(t, err, model.ErrInvalidCheckoutState)
	assert.Zero(t, g.calls.Load())
}

func TestCheckout_GuestInfo(t *testing.T) {
	tests := []struct {
		name     string
		customer model.Customer
		ok       bool
	}{
		{name: "guest with name and email", customer: model.Customer{Name: "Guest", Email: "guest@example.com"}, ok: true},
		{name: "guest without name", customer: model.Customer{Email: "guest@example.com"}},
		{name: "guest without email", customer: model.Customer{Name: "Guest"}},
		{name: "guest with bad email", customer: model.Customer{Name: "Guest", Email: "nope"}},
		{name: "authenticated user", customer: model.Customer{UserID: "u1"}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTransformer(&stubGateway{outcome: payment.Succeeded}, &stubOrders{})
			c := filledCart()

			_, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: tt.customer})
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, model.ErrInvalidCheckoutState)
			assert.False(t, c.IsEmpty())
		})
	}
}

func TestCheckout_PaymentDeclinedKeepsCart(t *testing.T) {
	o := &stubOrders{}
	tr := newTransformer(&stubGateway{outcome: payment.Failed}, o)
	c := filledCart()

	_, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: user()})
	require.ErrorIs(t, err, model.ErrPaymentFailed)

	assert.Empty(t, o.created)
	assert.Equal(t, 3, c.ItemCount())
	assert.True(t, c.Total().Equal(decimal.NewFromInt(25)))
}

func TestCheckout_PaymentErrorKeepsCart(t *testing.T) {
	netErr := errors.New("connection reset")
	o := &stubOrders{}
	tr := newTransformer(&stubGateway{err: netErr}, o)
	c := filledCart()

	_, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: user()})
	require.ErrorIs(t, err, model.ErrPaymentFailed)
	assert.ErrorIs(t, err, netErr)

	assert.Empty(t, o.created)
	assert.False(t, c.IsEmpty())
}

func TestCheckout_CreateFailureKeepsCart(t *testing.T) {
	dbErr := errors.New("db down")
	tr := newTransformer(&stubGateway{outcome: payment.Succeeded}, &stubOrders{err: dbErr})
	c := filledCart()

	_, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: user()})
	require.ErrorIs(t, err, dbErr)
	assert.Equal(t, 3, c.ItemCount())
}

func TestCheckout_CancelledContext(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	o := &stubOrders{}
	tr := newTransformer(g, o)
	c := filledCart()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Checkout(ctx, Request{Cart: c, Customer: user()})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, g.calls.Load())
	assert.Empty(t, o.created)
	assert.False(t, c.IsEmpty())
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	o := &stubOrders{}
	tr := newTransformer(g, o)
	c := filledCart()

	req := Request{Cart: c, Customer: user(), IdempotencyKey: "submit-1"}
	first, err := tr.Checkout(context.Background(), req)
	require.NoError(t, err)

	second, err := tr.Checkout(context.Background(), req)
	require.NoError(t, err, "a repeated submission must not fail on the now-empty cart")

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, int32(1), g.calls.Load())
	assert.Len(t, o.created, 1)
}

func TestCheckout_FailedAttemptIsNotRemembered(t *testing.T) {
	g := &stubGateway{outcome: payment.Failed}
	o := &stubOrders{}
	tr := newTransformer(g, o)
	c := filledCart()

	req := Request{Cart: c, Customer: user(), IdempotencyKey: "submit-1"}
	_, err := tr.Checkout(context.Background(), req)
	require.ErrorIs(t, err, model.ErrPaymentFailed)

	g.outcome = payment.Succeeded
	res, err := tr.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Len(t, o.created, 1)
}

func TestCheckout_IdempotencyKeyIsScopedToOwner(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	o := &stubOrders{}
	tr := newTransformer(g, o)

	first, err := tr.Checkout(context.Background(), Request{
		Cart:           filledCart(),
		Customer:       user(),
		Owner:          "user:u1",
		IdempotencyKey: "k",
	})
	require.NoError(t, err)

	other := cart.New()
	other.AddItem(model.ServiceSnapshot{ID: "c", Title: "C", Price: decimal.NewFromInt(7)}, 1)
	second, err := tr.Checkout(context.Background(), Request{
		Cart:           other,
		Customer:       model.Customer{Name: "Guest", Email: "guest@example.com"},
		Owner:          "guest:g1",
		IdempotencyKey: "k",
	})
	require.NoError(t, err)

	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.True(t, other.IsEmpty())
	require.Len(t, o.created, 2)
	assert.Equal(t, "guest@example.com", o.created[1].Customer.Email)
	assert.Equal(t, "c", o.created[1].LineItems[0].ServiceID)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestCheckout_IdempotencyKeyExpires(t *testing.T) {
	g := &stubGateway{outcome: payment.Succeeded}
	o := &stubOrders{}
	tr := newTransformer(g, o)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	req := Request{Cart: filledCart(), Customer: user(), Owner: "user:u1", IdempotencyKey: "old"}
	_, err := tr.Checkout(context.Background(), req)
	require.NoError(t, err)

	now = now.Add(idempotencyTTL + time.Minute)
	req = Request{Cart: filledCart(), Customer: user(), Owner: "user:u1", IdempotencyKey: "new"}
	_, err = tr.Checkout(context.Background(), req)
	require.NoError(t, err)

	tr.mu.Lock()
	_, oldKept := tr.done["user:u1\x00old"]
	size := len(tr.done)
	tr.mu.Unlock()
	assert.False(t, oldKept)
	assert.Equal(t, 1, size)

	req = Request{Cart: filledCart(), Customer: user(), Owner: "user:u1", IdempotencyKey: "old"}
	res, err := tr.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Len(t, o.created, 3)
}

func TestCheckout_KeepsItemsAddedDuringPayment(t *testing.T) {
	c := filledCart()
	g := &stubGateway{outcome: payment.Succeeded}
	g.onCharge = func() {
		c.AddItem(model.ServiceSnapshot{ID: "late", Title: "Late", Price: decimal.NewFromInt(3)}, 1)
	}
	o := &stubOrders{}
	tr := newTransformer(g, o)

	_, err := tr.Checkout(context.Background(), Request{Cart: c, Customer: user()})
	require.NoError(t, err)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "late", items[0].Service.ID)
	require.Len(t, o.created, 1)
	assert.Len(t, o.created[0].LineItems, 2)
}

func TestQuoteRounding(t *testing.T) {
	tr := newTransformer(&stubGateway{}, &stubOrders{})

	q := tr.Quote([]model.LineItem{{Price: decimal.RequireFromString("29.99"), Quantity: 1}})
	assert.Equal(t, "29.99", q.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", q.Tax.StringFixed(2))
	assert.Equal(t, "32.39", q.Total.StringFixed(2))
}
