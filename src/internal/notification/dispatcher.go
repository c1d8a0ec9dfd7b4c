// Package notification delivers transfer alerts off the request path.
package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/metrics"
	"github.com/sony/gobreaker"
)

var (
	ErrQueueFull        = errors.New("notification queue full")
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

// Sender performs the actual delivery of one alert.
type Sender interface {
	Send(ctx context.Context, n domain.TransferNotification) error
}

type Config struct {
	// QueueSize bounds the number of pending alerts (default 256).
	QueueSize int
	// Workers is the number of concurrent senders (default 2).
	Workers int
	// EnqueueWait is how long Notify waits for queue space before dropping (default 10ms).
	EnqueueWait time.Duration
	// SendTimeout bounds a single Send call (default 10s).
	SendTimeout time.Duration
	// MaxConsecutiveFailures trips the breaker (default 5).
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing (default 30s).
	OpenTimeout time.Duration
}

type Stats struct {
	QueueDepth int
	Enqueued   int64
	Sent       int64
	Failed     int64
	Dropped    int64
}

// Dispatcher is a bounded queue in front of a Sender. Notify never blocks
// longer than EnqueueWait; delivery happens on a fixed worker pool through a
// circuit breaker so a dead mail server is not hammered.
type Dispatcher struct {
	sender  Sender
	queue   chan domain.TransferNotification
	cb      *gobreaker.CircuitBreaker
	config  Config
	metrics metrics.Collector
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	enqueued int64
	sent     int64
	failed   int64
	dropped  int64
}

func NewDispatcher(sender Sender, config Config, collector metrics.Collector) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.EnqueueWait <= 0 {
		config.EnqueueWait = 10 * time.Millisecond
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 10 * time.Second
	}
	if config.MaxConsecutiveFailures == 0 {
		config.MaxConsecutiveFailures = 5
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}

	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan domain.TransferNotification, config.QueueSize),
		config:  config,
		metrics: collector,
	}

	d.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-sender",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("notification circuit breaker state changed", logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			d.metrics.RecordCircuitState(circuitState(to))
		},
	})

	for i := 0; i < config.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Notify enqueues n for delivery. It returns ErrQueueFull when no space frees
// up within EnqueueWait and ErrDispatcherClosed after Close.
func (d *Dispatcher) Notify(ctx context.Context, n domain.TransferNotification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(d.config.EnqueueWait)
	defer timer.Stop()

	select {
	case d.queue <- n:
		atomic.AddInt64(&d.enqueued, 1)
		d.metrics.RecordNotificationQueueDepth(len(d.queue))
		return nil
	case <-timer.C:
		atomic.AddInt64(&d.dropped, 1)
		d.metrics.RecordNotificationDropped()
		logger.Warn("notification dropped", logger.Fields{
			"transactionId": n.TransactionID,
			"direction":     string(n.Direction),
		})
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting alerts and waits until the queued ones are delivered
// or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		QueueDepth: len(d.queue),
		Enqueued:   atomic.LoadInt64(&d.enqueued),
		Sent:       atomic.LoadInt64(&d.sent),
		Failed:     atomic.LoadInt64(&d.failed),
		Dropped:    atomic.LoadInt64(&d.dropped),
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for n := range d.queue {
		d.metrics.RecordNotificationQueueDepth(len(d.queue))
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n domain.TransferNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.cb.Execute(func() (interface{}, error) {
		return nil, d.sender.Send(ctx, n)
	})
	d.metrics.RecordNotification(err == nil, time.Since(start))

	if err != nil {
		atomic.AddInt64(&d.failed, 1)
		fields := logger.Fields{
			"transactionId": n.TransactionID,
			"direction":     string(n.Direction),
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn("notification skipped, circuit open", fields)
			return
		}
		logger.Error("notification delivery failed", err, fields)
		return
	}

	atomic.AddInt64(&d.sent, 1)
}

func circuitState(state gobreaker.State) metrics.CircuitState {
	switch state {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}
