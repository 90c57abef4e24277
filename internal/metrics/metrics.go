// Package metrics holds the Prometheus collectors of the server.  A nil
// *Metrics is valid and records nothing, which keeps services usable in
// tests without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginBlocked = "blocked"
)

type Metrics struct {
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	purchases prometheus.Counter
	tickets   prometheus.Counter
	requests  *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lottery_login_attempts_total",
			Help: "Admin login attempts by outcome.",
		}, []string{"result"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lottery_session_refresh_total",
			Help: "Refresh token rotations by audience and outcome.",
		}, []string{"audience", "result"}),
		purchases: f.NewCounter(prometheus.CounterOpts{
			Name: "lottery_checkouts_total",
			Help: "Committed checkouts.",
		}),
		tickets: f.NewCounter(prometheus.CounterOpts{
			Name: "lottery_tickets_sold_total",
			Help: "Tickets sold across all lotteries.",
		}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lottery_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) LoginResult(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionRefreshed(audience string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "rejected"
	}
	m.refreshes.WithLabelValues(audience, result).Inc()
}

func (m *Metrics) PurchaseRecorded(qty int) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	m.tickets.Add(float64(qty))
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
