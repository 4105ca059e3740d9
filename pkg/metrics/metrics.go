// Package metrics exports Dealer activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/geodealer/pkg/location"
)

const namespace = "geodealer"

// Recorder implements location.Metrics.
type Recorder struct {
	requests     *prometheus.CounterVec
	publications *prometheus.CounterVec
	swallowed    prometheus.Counter
	order        *prometheus.GaugeVec
}

// NewRecorder registers the Dealer metrics on reg. Registering twice on the
// same reg panics. A nil reg leaves the metrics unregistered, which suits
// tests and callers that only read them through testutil.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	r := &Recorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dealer",
			Name:      "requests_total",
			Help:      "Requests issued to the location provider, by order",
		}, []string{"order"}),

		publications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dealer",
			Name:      "publications_total",
			Help:      "Notifications published on the bus, by topic and outcome",
		}, []string{"topic", "outcome"}),

		swallowed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dealer",
			Name:      "swallowed_errors_total",
			Help:      "Provider errors ignored while a permission probe awaited consent",
		}),

		order: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dealer",
			Name:      "order",
			Help:      "Outstanding order (1 for the current order, 0 otherwise)",
		}, []string{"order"}),
	}
	r.OrderChanged(location.OrderNone)
	return r
}

// RequestIssued implements location.Metrics.
func (r *Recorder) RequestIssued(o location.Order) {
	r.requests.WithLabelValues(o.Label()).Inc()
}

// OrderChanged implements location.Metrics.
func (r *Recorder) OrderChanged(o location.Order) {
	for _, each := range location.Orders {
		v := 0.0
		if each == o {
			v = 1
		}
		r.order.WithLabelValues(each.Label()).Set(v)
	}
}

// Published implements location.Metrics.
func (r *Recorder) Published(topic location.Topic, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	r.publications.WithLabelValues(string(topic), outcome).Inc()
}

// ErrorSwallowed implements location.Metrics.
func (r *Recorder) ErrorSwallowed() {
	r.swallowed.Inc()
}

// Handler serves the metrics gathered by g. A nil g uses the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
