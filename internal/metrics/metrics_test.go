package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rebirth/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/orders/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict) })

	for _, path := range []string{"/orders/a", "/orders/b", "/fail"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `rebirth_api_http_requests_total{method="GET",route="/orders/:id",status="200"} 2`)
	assert.Contains(t, body, `rebirth_api_http_requests_total{method="GET",route="/fail",status="409"} 1`)
}

func TestOrderCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.OrderPlaced(true)
	m.OrderPlaced(false)
	m.OrderPlaced(false)
	m.NotifyResult(false)

	body := scrape(t, m)
	assert.Contains(t, body, `rebirth_orders_placed_total{kind="guest"} 1`)
	assert.Contains(t, body, `rebirth_orders_placed_total{kind="member"} 2`)
	assert.Contains(t, body, `rebirth_orders_notifications_total{result="error"} 1`)
}

// registryを分ければ何度でも作れる
func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
