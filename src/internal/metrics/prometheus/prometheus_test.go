package prometheus

import (
	"testing"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ metrics.Collector = (*Collector)(nil)

func TestCollectorRecordsTransfers(t *testing.T) {
	c := NewCollector("test")
	registry := prometheus.NewRegistry()
	require.NoError(t, c.Register(registry))

	c.RecordTransfer("success", 20*time.Millisecond)
	c.RecordTransfer("success", 10*time.Millisecond)
	c.RecordTransfer("insufficient_funds", time.Millisecond)
	c.RecordNotificationDropped()
	c.RecordCircuitState(metrics.CircuitOpen)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transfers.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transfers.WithLabelValues("insufficient_funds")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notificationsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notificationCircuitState))
}

func TestRegisterTwiceFails(t *testing.T) {
	c := NewCollector("test")
	registry := prometheus.NewRegistry()
	require.NoError(t, c.Register(registry))
	assert.Error(t, c.Register(registry))
}
