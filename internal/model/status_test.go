package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusValidateTransition(t *testing.T) {
	tests := []struct {
		from  OrderStatus
		to    OrderStatus
		legal bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusInProgress, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusProcessing, OrderStatusInProgress, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusInProgress, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.ValidateTransition(tt.to)
			if tt.legal {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrIllegalTransition)
		})
	}
}

func TestOrderStatusValidateTransition_UnknownTarget(t *testing.T) {
	err := OrderStatusPending.ValidateTransition(OrderStatus("shipped"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.False(t, errors.Is(err, ErrIllegalTransition))
}

func TestPaymentStatusValidateTransition(t *testing.T) {
	tests := []struct {
		from  PaymentStatus
		to    PaymentStatus
		legal bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentRefunded, false},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentFailed, false},
		{PaymentFailed, PaymentPaid, false},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentPaid, PaymentPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.ValidateTransition(tt.to)
			if tt.legal {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrIllegalTransition)
		})
	}
}

func TestParseHelpers(t *testing.T) {
	st, err := ParseOrderStatus("in-progress")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInProgress, st)

	_, err = ParseOrderStatus("done")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	ps, err := ParsePaymentStatus("refunded")
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, ps)

	s, err := ParseSender("booster")
	require.NoError(t, err)
	assert.Equal(t, SenderFulfiller, s)

	_, err = ParseSender("robot")
	assert.ErrorIs(t, err, ErrUnknownSender)

	c, err := ParseCategory("Super Credits")
	require.NoError(t, err)
	assert.Equal(t, CategorySuperCredits, c)

	_, err = ParseCategory("Skins")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestNotFoundErrorsWrapBase(t *testing.T) {
	for _, err := range []error{ErrOrderNotFound, ErrMessageNotFound, ErrServiceNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.ErrorIs(t, ErrOrderClosed, ErrIllegalTransition)
}

func TestOrderCloneIsDeep(t *testing.T) {
	p := 10
	o := Order{
		ID:             "o1",
		Progress:       &p,
		Messages:       []OrderMessage{{ID: "m1"}},
		TrackingEvents: []TrackingEvent{{Status: "Order Placed"}},
	}

	c := o.Clone()
	c.Messages[0].IsRead = true
	*c.Progress = 50
	c.TrackingEvents = append(c.TrackingEvents, TrackingEvent{Status: "x"})

	assert.False(t, o.Messages[0].IsRead)
	assert.Equal(t, 10, *o.Progress)
	assert.Len(t, o.TrackingEvents, 1)
}
