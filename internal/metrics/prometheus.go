package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsletter"

// PrometheusRecorder exports metrics on its own registry.
type PrometheusRecorder struct {
	registry      *prometheus.Registry
	subscriptions *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	emailSend     *prometheus.HistogramVec
}

// NewPrometheus creates and registers all application metrics, plus the Go
// runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Subscribe attempts by outcome",
		}, []string{"outcome"}),
		confirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Confirmation attempts by outcome",
		}, []string{"outcome"}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_deliveries_total",
			Help:      "Per-recipient newsletter results by status",
		}, []string{"status"}),
		emailSend: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_send_duration_seconds",
			Help:      "Outbound email request latency",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncSubscription counts a subscribe attempt by outcome.
func (p *PrometheusRecorder) IncSubscription(outcome string) {
	p.subscriptions.WithLabelValues(outcome).Inc()
}

// IncConfirmation counts a confirm attempt by outcome.
func (p *PrometheusRecorder) IncConfirmation(outcome string) {
	p.confirmations.WithLabelValues(outcome).Inc()
}

// IncNewsletterDelivery counts a per-recipient publish result.
func (p *PrometheusRecorder) IncNewsletterDelivery(status string) {
	p.deliveries.WithLabelValues(status).Inc()
}

// ObserveEmailSendDuration records outbound email latency.
func (p *PrometheusRecorder) ObserveEmailSendDuration(provider string, duration time.Duration) {
	p.emailSend.WithLabelValues(provider).Observe(duration.Seconds())
}
