// Package service связывает каталог, корзины, оформление и заказы в единый фасад для HTTP-слоя.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/boostmart/internal/cart"
	"github.com/mmeshcher/boostmart/internal/catalog"
	"github.com/mmeshcher/boostmart/internal/checkout"
	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
)

// ErrForbidden возвращается, если заказ принадлежит другому пользователю.
var ErrForbidden = errors.New("access denied")

// ProfileStore сохраняет пользователей, оформлявших заказы.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p model.Principal) error
}

// CartView содержит корзину вместе с расчётом стоимости.
type CartView struct {
	Items     []model.CartItem
	ItemCount int
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// CheckoutInput содержит данные формы оформления заказа.
type CheckoutInput struct {
	Name           string
	Email          string
	Notes          string
	IdempotencyKey string
}

// Service содержит прикладную логику витрины boostmart.
type Service struct {
	catalog  *catalog.Catalog
	carts    *cart.Registry
	checkout *checkout.Transformer
	orders   *order.Manager
	profiles ProfileStore
	logger   *zap.Logger
}

// NewService создаёт фасад над компонентами витрины. profiles и logger могут быть nil.
func NewService(c *catalog.Catalog, carts *cart.Registry, t *checkout.Transformer, orders *order.Manager, profiles ProfileStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  c,
		carts:    carts,
		checkout: t,
		orders:   orders,
		profiles: profiles,
		logger:   logger,
	}
}

// ListServices возвращает активные услуги, при необходимости одной категории.
func (s *Service) ListServices(ctx context.Context, category *model.Category) []model.Service {
	return s.catalog.List(ctx, category)
}

// GetService возвращает услугу по идентификатору, в том числе снятую с продажи.
func (s *Service) GetService(ctx context.Context, id string) (model.Service, error) {
	return s.catalog.Get(ctx, id)
}

// AllServices возвращает все услуги, включая неактивные.
func (s *Service) AllServices(ctx context.Context) []model.Service {
	return s.catalog.All(ctx)
}

// AddService добавляет услугу в каталог.
func (s *Service) AddService(ctx context.Context, in catalog.ServiceInput) (model.Service, error) {
	return s.catalog.Add(ctx, in)
}

// UpdateService изменяет услугу. Уже оформленные заказы не затрагиваются.
func (s *Service) UpdateService(ctx context.Context, id string, p catalog.ServicePatch) (model.Service, error) {
	return s.catalog.Update(ctx, id, p)
}

// SetServiceActive выставляет или снимает услугу с продажи.
func (s *Service) SetServiceActive(ctx context.Context, id string, active bool) (model.Service, error) {
	return s.catalog.SetActive(ctx, id, active)
}

// Cart возвращает корзину сессии.
func (s *Service) Cart(_ context.Context, session string) CartView {
	return s.view(s.carts.Get(session))
}

// AddToCart добавляет услугу в корзину сессии.
func (s *Service) AddToCart(ctx context.Context, session, serviceID string, quantity int) (CartView, error) {
	svc, err := s.catalog.Get(ctx, serviceID)
	if err != nil {
		return CartView{}, err
	}
	if !svc.Active {
		return CartView{}, fmt.Errorf("%w: %s", model.ErrServiceUnavailable, serviceID)
	}

	c := s.carts.Get(session)
	c.AddItem(svc.Snapshot(), quantity)
	return s.view(c), nil
}

// UpdateCartItem меняет количество услуги в корзине; ноль и меньше удаляют позицию.
func (s *Service) UpdateCartItem(_ context.Context, session, serviceID string, quantity int) CartView {
	c := s.carts.Get(session)
	c.UpdateQuantity(serviceID, quantity)
	return s.view(c)
}

// RemoveFromCart удаляет услугу из корзины.
func (s *Service) RemoveFromCart(_ context.Context, session, serviceID string) CartView {
	c := s.carts.Get(session)
	c.RemoveItem(serviceID)
	return s.view(c)
}

func (s *Service) view(c *cart.Cart) CartView {
	q := s.checkout.Quote(c.Snapshot())
	return CartView{
		Items:     c.Items(),
		ItemCount: c.ItemCount(),
		Subtotal:  q.Subtotal,
		Tax:       q.Tax,
		Total:     q.Total,
	}
}

// Checkout оформляет заказ из корзины сессии. principal равен nil для гостей.
func (s *Service) Checkout(ctx context.Context, session string, principal *model.Principal, in CheckoutInput) (model.Order, error) {
	customer := model.Customer{Name: in.Name, Email: in.Email}
	if principal != nil {
		customer.UserID = principal.ID
		if customer.Email == "" {
			customer.Email = principal.Email
		}
	}

	res, err := s.checkout.Checkout(ctx, checkout.Request{
		Cart:           s.carts.Get(session),
		Customer:       customer,
		Notes:          in.Notes,
		Owner:          session,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return model.Order{}, err
	}

	o, err := s.orders.GetByID(ctx, res.OrderID)
	if err != nil {
		return model.Order{}, err
	}

	if !res.Replayed {
		s.afterCheckout(ctx, principal, o)
	}
	return o, nil
}

// afterCheckout обновляет счётчики услуг и профиль покупателя. Ошибки не отменяют заказ.
func (s *Service) afterCheckout(ctx context.Context, principal *model.Principal, o model.Order) {
	for _, li := range o.LineItems {
		if err := s.catalog.IncrementOrders(ctx, li.ServiceID, int64(li.Quantity)); err != nil {
			s.logger.Warn("increment service orders failed",
				zap.Error(err),
				zap.String("service", li.ServiceID),
				zap.String("order", o.ID),
			)
		}
	}

	if principal == nil || s.profiles == nil {
		return
	}
	if err := s.profiles.UpsertProfile(ctx, *principal); err != nil {
		s.logger.Warn("upsert profile failed", zap.Error(err), zap.String("user", principal.ID))
	}
}

// OrdersForUser возвращает заказы пользователя, начиная с самых новых.
func (s *Service) OrdersForUser(ctx context.Context, userID string) []model.Order {
	return s.orders.GetByCustomer(ctx, userID)
}

// Order возвращает заказ, если viewer имеет к нему доступ. Гостевые заказы доступны по идентификатору.
func (s *Service) Order(ctx context.Context, viewer *model.Principal, id string) (model.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	if !canView(viewer, o) {
		return model.Order{}, fmt.Errorf("%w: order %s", ErrForbidden, id)
	}
	return o, nil
}

func canView(viewer *model.Principal, o model.Order) bool {
	if o.Customer.IsGuest() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || viewer.ID == o.Customer.UserID
}

// PostCustomerMessage добавляет сообщение покупателя в переписку по заказу.
func (s *Service) PostCustomerMessage(ctx context.Context, viewer *model.Principal, id, body string) (string, error) {
	if _, err := s.Order(ctx, viewer, id); err != nil {
		return "", err
	}
	return s.orders.AddMessage(ctx, id, model.SenderCustomer, body)
}

// MarkMessageRead отмечает сообщение прочитанным от имени viewer.
func (s *Service) MarkMessageRead(ctx context.Context, viewer *model.Principal, id, messageID string) error {
	if _, err := s.Order(ctx, viewer, id); err != nil {
		return err
	}
	return s.orders.MarkMessageRead(ctx, id, messageID)
}

// ListOrders возвращает заказы для администратора.
func (s *Service) ListOrders(ctx context.Context, f order.Filter) []model.Order {
	return s.orders.List(ctx, f)
}

// UpdateOrderStatus переводит заказ в новый статус.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, progress *int) error {
	return s.orders.UpdateStatus(ctx, id, status, progress)
}

// UpdatePaymentStatus меняет статус оплаты заказа.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	return s.orders.UpdatePaymentStatus(ctx, id, status)
}

// AssignFulfiller назначает исполнителя заказа.
func (s *Service) AssignFulfiller(ctx context.Context, id, name string) error {
	return s.orders.AssignFulfiller(ctx, id, name)
}

// AddTrackingEvent добавляет событие в историю отслеживания заказа.
func (s *Service) AddTrackingEvent(ctx context.Context, id, status, description string) error {
	return s.orders.AddTrackingEvent(ctx, id, status, description)
}

// PostStaffMessage добавляет сообщение администратора или исполнителя.
func (s *Service) PostStaffMessage(ctx context.Context, id string, from model.Sender, body string) (string, error) {
	if from == model.SenderCustomer {
		return "", fmt.Errorf("%w: staff message cannot be sent as customer", model.ErrInvalidMessage)
	}
	return s.orders.AddMessage(ctx, id, from, body)
}
