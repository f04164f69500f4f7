package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/boostmart/internal/model"
	"github.com/mmeshcher/boostmart/internal/order"
	"github.com/mmeshcher/boostmart/internal/service"
)

type serviceResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         string   `json:"price"`
	OriginalPrice *string  `json:"original_price,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Features      []string `json:"features"`
	Active        bool     `json:"active"`
	Popular       bool     `json:"popular"`
	Category      string   `json:"category"`
	OrdersCount   int64    `json:"orders_count"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toServiceResponse(s model.Service) serviceResponse {
	resp := serviceResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Price:       money(s.Price),
		Duration:    s.Duration,
		Difficulty:  s.Difficulty,
		Features:    s.Features,
		Active:      s.Active,
		Popular:     s.Popular,
		Category:    string(s.Category),
		OrdersCount: s.OrdersCount,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.OriginalPrice != nil {
		v := money(*s.OriginalPrice)
		resp.OriginalPrice = &v
	}
	if resp.Features == nil {
		resp.Features = []string{}
	}
	return resp
}

type cartItemResponse struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	AddedAt   string `json:"added_at"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  string             `json:"subtotal"`
	Tax       string             `json:"tax"`
	Total     string             `json:"total"`
}

func toCartResponse(v service.CartView) cartResponse {
	resp := cartResponse{
		Items:     make([]cartItemResponse, 0, len(v.Items)),
		ItemCount: v.ItemCount,
		Subtotal:  money(v.Subtotal),
		Tax:       money(v.Tax),
		Total:     money(v.Total),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ID:        it.ID,
			ServiceID: it.Service.ID,
			Title:     it.Service.Title,
			Price:     money(it.Service.Price),
			Quantity:  it.Quantity,
			Subtotal:  money(it.Subtotal()),
			AddedAt:   it.AddedAt.Format(time.RFC3339),
		})
	}
	return resp
}

type customerResponse struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type lineItemResponse struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type messageResponse struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"is_read"`
}

type trackingEventResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type orderResponse struct {
	ID                string                  `json:"id"`
	Customer          customerResponse        `json:"customer"`
	Items             []lineItemResponse      `json:"items"`
	Status            string                  `json:"status"`
	PaymentStatus     string                  `json:"payment_status"`
	Subtotal          string                  `json:"subtotal"`
	Tax               string                  `json:"tax"`
	TotalAmount       string                  `json:"total_amount"`
	AssignedFulfiller string                  `json:"assigned_fulfiller,omitempty"`
	Progress          *int                    `json:"progress,omitempty"`
	Notes             string                  `json:"notes,omitempty"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
	Messages          []messageResponse       `json:"messages"`
	TrackingEvents    []trackingEventResponse `json:"tracking_events"`
}

func toOrderResponse(o model.Order) orderResponse {
	resp := orderResponse{
		ID: o.ID,
		Customer: customerResponse{
			UserID: o.Customer.UserID,
			Name:   o.Customer.Name,
			Email:  o.Customer.Email,
		},
		Items:             make([]lineItemResponse, 0, len(o.LineItems)),
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		Subtotal:          money(o.Subtotal),
		Tax:               money(o.Tax),
		TotalAmount:       money(o.TotalAmount),
		AssignedFulfiller: o.AssignedFulfiller,
		Progress:          o.Progress,
		Notes:             o.Notes,
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         o.UpdatedAt.Format(time.RFC3339),
		Messages:          make([]messageResponse, 0, len(o.Messages)),
		TrackingEvents:    make([]trackingEventResponse, 0, len(o.TrackingEvents)),
	}
	for _, li := range o.LineItems {
		resp.Items = append(resp.Items, lineItemResponse{
			ServiceID: li.ServiceID,
			Name:      li.Name,
			Price:     money(li.Price),
			Quantity:  li.Quantity,
		})
	}
	for _, m := range o.Messages {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:        m.ID,
			From:      string(m.From),
			Body:      m.Body,
			Timestamp: m.Timestamp.Format(time.RFC3339),
			IsRead:    m.IsRead,
		})
	}
	for _, e := range o.TrackingEvents {
		resp.TrackingEvents = append(resp.TrackingEvents, trackingEventResponse{
			Status:      e.Status,
			Description: e.Description,
			Timestamp:   e.Timestamp.Format(time.RFC3339),
		})
	}
	return resp
}

type orderSummaryResponse struct {
	ID                string                 `json:"id"`
	Status            string                 `json:"status"`
	PaymentStatus     string                 `json:"payment_status"`
	TotalAmount       string                 `json:"total_amount"`
	ItemCount         int                    `json:"item_count"`
	AssignedFulfiller string                 `json:"assigned_fulfiller,omitempty"`
	Progress          *int                   `json:"progress,omitempty"`
	Unread            int                    `json:"unread_messages"`
	LastEvent         *trackingEventResponse `json:"last_event,omitempty"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at"`
}

func toSummaryResponses(orders []model.Order, viewer model.Sender) []orderSummaryResponse {
	resp := make([]orderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		s := order.Summarize(o, viewer)
		item := orderSummaryResponse{
			ID:                s.ID,
			Status:            string(s.Status),
			PaymentStatus:     string(s.PaymentStatus),
			TotalAmount:       money(s.TotalAmount),
			ItemCount:         s.ItemCount,
			AssignedFulfiller: s.AssignedFulfiller,
			Progress:          s.Progress,
			Unread:            s.Unread,
			CreatedAt:         s.CreatedAt.Format(time.RFC3339),
			UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
		}
		if s.LastEvent.Status != "" {
			item.LastEvent = &trackingEventResponse{
				Status:      s.LastEvent.Status,
				Description: s.LastEvent.Description,
				Timestamp:   s.LastEvent.Timestamp.Format(time.RFC3339),
			}
		}
		resp = append(resp, item)
	}
	return resp
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
