// Package handler содержит HTTP-обработчики API витрины boostmart.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/catalog"
	"github.com/mmeshcher/boostmart/internal/metrics"
	"github.com/mmeshcher/boostmart/internal/middleware"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
	"github.com/mmeshcher/boostmart/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ListServices(ctx context.Context, category *model.Category) []model.Service
	GetService(ctx context.Context, id string) (model.Service, error)
	AllServices(ctx context.Context) []model.Service
	AddService(ctx context.Context, in catalog.ServiceInput) (model.Service, error)
	UpdateService(ctx context.Context, id string, p catalog.ServicePatch) (model.Service, error)
	SetServiceActive(ctx context.Context, id string, active bool) (model.Service, error)

	Cart(ctx context.Context, session string) service.CartView
	AddToCart(ctx context.Context, session, serviceID string, quantity int) (service.CartView, error)
	UpdateCartItem(ctx context.Context, session, serviceID string, quantity int) service.CartView
	RemoveFromCart(ctx context.Context, session, serviceID string) service.CartView
	Checkout(ctx context.Context, session string, principal *model.Principal, in service.CheckoutInput) (model.Order, error)

	OrdersForUser(ctx context.Context, userID string) []model.Order
	Order(ctx context.Context, viewer *model.Principal, id string) (model.Order, error)
	PostCustomerMessage(ctx context.Context, viewer *model.Principal, id, body string) (string, error)
	MarkMessageRead(ctx context.Context, viewer *model.Principal, id, messageID string) error

	ListOrders(ctx context.Context, f order.Filter) []model.Order
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, progress *int) error
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error
	AssignFulfiller(ctx context.Context, id, name string) error
	AddTrackingEvent(ctx context.Context, id, status, description string) error
	PostStaffMessage(ctx context.Context, id string, from model.Sender, body string) (string, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	ping           func(ctx context.Context) error
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов. ping проверяет готовность
// хранилища для /healthz и может быть nil.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.Metrics, ping func(ctx context.Context) error) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        m,
		ping:           ping,
	}
}

// Health сообщает о готовности сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func principal(r *http.Request) *model.Principal {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return nil
	}
	return &p
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError переводит доменную ошибку в HTTP-статус. Непредвиденные ошибки пишутся в журнал.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, model.ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrPaymentFailed):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, model.ErrInvalidCheckoutState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrServiceUnavailable),
		errors.Is(err, model.ErrInvalidMessage),
		errors.Is(err, model.ErrInvalidService),
		errors.Is(err, model.ErrUnknownStatus),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, model.ErrUnknownSender):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
