package prometheus

import (
	"time"

	"github.com/api-sage/bank-ledger/src/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	transfers                *prometheus.CounterVec
	transferLatency          *prometheus.HistogramVec
	notifications            *prometheus.CounterVec
	notificationLatency      prometheus.Histogram
	notificationsDropped     prometheus.Counter
	notificationQueueDepth   prometheus.Gauge
	notificationCircuitState prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	return &Collector{
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of transfer attempts by outcome",
			},
			[]string{"outcome"},
		),
		transferLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Transfer latency by outcome",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of notification deliveries by result",
			},
			[]string{"result"},
		),
		notificationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "notification_duration_seconds",
				Help:      "Notification delivery latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		notificationsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_dropped_total",
				Help:      "Notifications dropped because the queue was full or closed",
			},
		),
		notificationQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notification_queue_depth",
				Help:      "Notifications waiting to be delivered",
			},
		),
		notificationCircuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notification_circuit_state",
				Help:      "Notification circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// Register registers all metrics with the given registerer.
func (c *Collector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.transfers,
		c.transferLatency,
		c.notifications,
		c.notificationLatency,
		c.notificationsDropped,
		c.notificationQueueDepth,
		c.notificationCircuitState,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) RecordTransfer(outcome string, duration time.Duration) {
	c.transfers.WithLabelValues(outcome).Inc()
	c.transferLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (c *Collector) RecordNotification(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.notifications.WithLabelValues(result).Inc()
	c.notificationLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordNotificationDropped() {
	c.notificationsDropped.Inc()
}

func (c *Collector) RecordNotificationQueueDepth(depth int) {
	c.notificationQueueDepth.Set(float64(depth))
}

func (c *Collector) RecordCircuitState(state metrics.CircuitState) {
	c.notificationCircuitState.Set(float64(state))
}
