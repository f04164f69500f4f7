// Package model содержит доменные сущности витрины услуг boostmart.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category описывает раздел каталога, к которому относится услуга.
type Category string

const (
	CategoryLevelBoost   Category = "Level Boost"
	CategoryMedals       Category = "Medals"
	CategorySamples      Category = "Samples"
	CategorySuperCredits Category = "Super Credits"
	CategoryPromotions   Category = "Promotions"
)

var categories = []Category{
	CategoryLevelBoost,
	CategoryMedals,
	CategorySamples,
	CategorySuperCredits,
	CategoryPromotions,
}

// ParseCategory возвращает категорию по её названию.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Service описывает услугу из каталога.
type Service struct {
	ID            string
	Title         string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Duration      string
	Difficulty    string
	Features      []string
	Active        bool
	Popular       bool
	Category      Category
	OrdersCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone возвращает копию услуги, не разделяющую срезы и указатели с оригиналом.
func (s Service) Clone() Service {
	c := s
	if s.OriginalPrice != nil {
		v := *s.OriginalPrice
		c.OriginalPrice = &v
	}
	c.Features = append([]string(nil), s.Features...)
	return c
}

// ServiceSnapshot фиксирует данные услуги на момент добавления в корзину.
type ServiceSnapshot struct {
	ID    string
	Title string
	Price decimal.Decimal
}

// Snapshot возвращает снимок услуги для корзины.
func (s Service) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{ID: s.ID, Title: s.Title, Price: s.Price}
}

// CartItem описывает позицию корзины.
type CartItem struct {
	ID       string
	Service  ServiceSnapshot
	Quantity int
	AddedAt  time.Time
}

// Subtotal возвращает стоимость позиции.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Service.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Customer описывает покупателя: авторизованного пользователя или гостя.
type Customer struct {
	UserID string
	Name   string
	Email  string
}

// IsGuest сообщает, что заказ оформлен без учётной записи.
func (c Customer) IsGuest() bool {
	return c.UserID == ""
}

// LineItem описывает неизменяемую позицию заказа, скопированную из корзины при оформлении.
type LineItem struct {
	ServiceID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Order описывает заказ и историю его выполнения.
type Order struct {
	ID                string
	Customer          Customer
	LineItems         []LineItem
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	TotalAmount       decimal.Decimal
	AssignedFulfiller string
	Progress          *int
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Messages          []OrderMessage
	TrackingEvents    []TrackingEvent
}

// Clone возвращает глубокую копию заказа.
func (o Order) Clone() Order {
	c := o
	c.LineItems = append([]LineItem(nil), o.LineItems...)
	c.Messages = append([]OrderMessage(nil), o.Messages...)
	c.TrackingEvents = append([]TrackingEvent(nil), o.TrackingEvents...)
	if o.Progress != nil {
		p := *o.Progress
		c.Progress = &p
	}
	return c
}

// ItemCount возвращает количество единиц услуг в заказе.
func (o Order) ItemCount() int {
	n := 0
	for _, li := range o.LineItems {
		n += li.Quantity
	}
	return n
}

// FindMessage возвращает индекс сообщения с указанным идентификатором или -1.
func (o Order) FindMessage(id string) int {
	for i, m := range o.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Sender описывает автора сообщения в переписке по заказу.
type Sender string

const (
	SenderCustomer  Sender = "customer"
	SenderAdmin     Sender = "admin"
	SenderFulfiller Sender = "fulfiller"
)

// ParseSender возвращает автора сообщения по строке. "booster" принимается как синоним исполнителя.
func ParseSender(s string) (Sender, error) {
	switch s {
	case string(SenderCustomer):
		return SenderCustomer, nil
	case string(SenderAdmin):
		return SenderAdmin, nil
	case string(SenderFulfiller), "booster":
		return SenderFulfiller, nil
	}
	return "", ErrUnknownSender
}

// OrderMessage описывает сообщение в переписке по заказу.
type OrderMessage struct {
	ID        string
	From      Sender
	Body      string
	Timestamp time.Time
	IsRead    bool
}

// TrackingEvent описывает веху в истории выполнения заказа.
type TrackingEvent struct {
	Status      string
	Description string
	Timestamp   time.Time
}

// Role описывает роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal описывает пользователя, предоставленного внешней системой идентификации.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// IsAdmin сообщает, что пользователь является администратором.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
