package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики оформления заказов.
type CheckoutMetrics struct {
	// Счётчики исходов
	checkouts *prometheus.CounterVec
	stages    *prometheus.CounterVec

	// Время выполнения
	checkoutDuration prometheus.Histogram
	stageDuration    *prometheus.HistogramVec

	statusChanges  *prometheus.CounterVec
	timelineEvents *prometheus.CounterVec
	inFlight       prometheus.Gauge
}

// NewCheckoutMetrics регистрирует метрики в глобальном реестре.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer регистрирует метрики в указанном реестре.
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	return &CheckoutMetrics{
		checkouts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "printshop_checkouts_total",
			Help: "Total number of checkouts by result (completed, degraded, rejected, failed, replayed)",
		}, []string{"result"}),
		stages: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "printshop_checkout_stages_total",
			Help: "Total number of checkout stage executions by stage and status",
		}, []string{"stage", "status"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "printshop_checkout_duration_seconds",
			Help:    "Duration of the whole checkout pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stageDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "printshop_checkout_stage_duration_seconds",
			Help:    "Duration of individual checkout stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"stage"}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "printshop_order_status_changes_total",
			Help: "Total number of order status transitions by target status",
		}, []string{"status"}),
		timelineEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "printshop_timeline_events_total",
			Help: "Total number of order timeline events recorded",
		}, []string{"type"}),
		inFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "printshop_checkouts_in_flight",
			Help: "Number of checkouts currently being processed",
		}),
	}
}

// CheckoutStarted увеличивает число активных оформлений.
func (m *CheckoutMetrics) CheckoutStarted() {
	m.inFlight.Inc()
}

// CheckoutFinished фиксирует итог и длительность оформления.
func (m *CheckoutMetrics) CheckoutFinished(result string, d time.Duration) {
	m.inFlight.Dec()
	m.checkouts.WithLabelValues(result).Inc()
	m.checkoutDuration.Observe(d.Seconds())
}

// RecordStage фиксирует исход и длительность шага.
func (m *CheckoutMetrics) RecordStage(stage, status string, d time.Duration) {
	m.stages.WithLabelValues(stage, status).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStatusChange считает смену статуса заказа.
func (m *CheckoutMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordTimelineEvent считает событие timeline.
func (m *CheckoutMetrics) RecordTimelineEvent(eventType string) {
	m.timelineEvents.WithLabelValues(eventType).Inc()
}
