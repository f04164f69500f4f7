package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/boostmart/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Metrics(h.metrics))
	r.Use(h.authMiddleware.Authenticate)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", h.ListServices)
		r.Get("/services/{id}", h.GetService)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.CartSession)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Put("/cart/items/{serviceID}", h.UpdateCartItem)
			r.Delete("/cart/items/{serviceID}", h.RemoveCartItem)
			r.Post("/checkout", h.Checkout)
		})

		r.With(custommiddleware.RequireUser).Get("/orders", h.GetOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Post("/orders/{id}/messages", h.PostMessage)
		r.Post("/orders/{id}/messages/{messageID}/read", h.MarkMessageRead)

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.RequireAdmin)

			r.Get("/orders", h.AdminListOrders)
			r.Post("/orders/{id}/status", h.AdminUpdateStatus)
			r.Post("/orders/{id}/payment", h.AdminUpdatePayment)
			r.Post("/orders/{id}/fulfiller", h.AdminAssignFulfiller)
			r.Post("/orders/{id}/tracking", h.AdminAddTracking)
			r.Post("/orders/{id}/messages", h.AdminPostMessage)

			r.Get("/services", h.AdminListServices)
			r.Post("/services", h.AdminCreateService)
			r.Put("/services/{id}", h.AdminUpdateService)
			r.Post("/services/{id}/active", h.AdminSetServiceActive)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
