package metrics

import "time"

// Collector records transfer engine activity. Implementations export to a
// metrics backend; NoOpCollector is used when none is configured.
type Collector interface {
	// RecordTransfer records one finished transfer attempt. outcome is
	// "success" or the lower-cased error kind.
	RecordTransfer(outcome string, duration time.Duration)

	RecordNotification(success bool, duration time.Duration)
	RecordNotificationDropped()
	RecordNotificationQueueDepth(depth int)
	RecordCircuitState(state CircuitState)
}

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type NoOpCollector struct{}

func (NoOpCollector) RecordTransfer(string, time.Duration) {}
func (NoOpCollector) RecordNotification(bool, time.Duration) {}
func (NoOpCollector) RecordNotificationDropped() {}
func (NoOpCollector) RecordNotificationQueueDepth(int) {}
func (NoOpCollector) RecordCircuitState(CircuitState) {}
