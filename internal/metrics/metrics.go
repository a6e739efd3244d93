package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	OrdersPlaced *prometheus.CounterVec
	Notify       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// Newは渡されたregistryにメトリクスを登録する
func New(reg *prometheus.Registry) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rebirth",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rebirth",
		Subsystem: "api",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rebirth",
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders created, by kind (member or guest).",
	}, []string{"kind"})
	notify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rebirth",
		Subsystem: "orders",
		Name:      "notifications_total",
		Help:      "Order notifications, by result.",
	}, []string{"result"})

	reg.MustRegister(requests, latency, orders, notify)
	return &Metrics{
		Requests:     requests,
		LatencyMS:    latency,
		OrdersPlaced: orders,
		Notify:       notify,
		gatherer:     reg,
	}
}

// echoのミドルウェア。ルートはパターン（/orders/:id）で集計する。
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.Requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.LatencyMS.WithLabelValues(c.Request().Method, route).
				Observe(float64(time.Since(start).Milliseconds()))
			return err
		}
	}
}

func (m *Metrics) OrderPlaced(guest bool) {
	kind := "member"
	if guest {
		kind = "guest"
	}
	m.OrdersPlaced.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotifyResult(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Notify.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
