// Package metrics содержит метрики Prometheus сервиса boostmart.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boostmart"

// Metrics объединяет коллекторы сервиса. Методы безопасны для nil-получателя.
type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	Checkouts     *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	EventFailures prometheus.Counter

	gatherer prometheus.Gatherer
}

// New создаёт и регистрирует коллекторы в указанном реестре.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status and payment transitions by kind and result.",
		}, []string{"kind", "result"}),
		EventFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Order events that could not be published.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.Transitions, m.EventFailures)
	return m
}

// ObserveRequest учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, status).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}

// ObserveCheckout учитывает попытку оформления заказа.
func (m *Metrics) ObserveCheckout(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

// ObserveTransition учитывает попытку смены статуса.
func (m *Metrics) ObserveTransition(kind, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, result).Inc()
}

// ObserveEventFailure учитывает неудачную публикацию события.
func (m *Metrics) ObserveEventFailure() {
	if m == nil {
		return
	}
	m.EventFailures.Inc()
}

// Handler возвращает HTTP-обработчик для выдачи метрик.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
