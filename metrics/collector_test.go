package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/nodewire/rediskit/rkerrors"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveExecutionCountsOkAndErrorKinds(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Options{Registerer: reg})

	c.ObserveExecution("GET", "h1:6379", time.Millisecond, nil)
	c.ObserveExecution("GET", "h1:6379", time.Millisecond, rkerrors.ErrKeyNotFound)

	require.Equal(t, float64(1), counterValue(t, c.totalCount.WithLabelValues("GET", "ok")))
	require.Equal(t, float64(1), counterValue(t, c.totalCount.WithLabelValues("GET", string(rkerrors.KindKeyNotFound))))
}

func TestObserveExecutionSlowLogDoesNotBlock(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Options{Registerer: reg, SlowExecutionThreshold: time.Microsecond})

	done := make(chan struct{})
	go func() {
		for i := 0; i < slowLogBacklog*2; i++ {
			c.ObserveExecution("SET", "h1:6379", time.Millisecond, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ObserveExecution blocked on a full slow-log backlog")
	}
}

func TestObserveBytesSaved(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Options{Registerer: reg})

	c.ObserveBytesSavedForHost("h1:6379", 128)
	require.Equal(t, float64(128), counterValue(t, c.compressionSave.WithLabelValues("h1:6379")))

	c.ObserveBytesSavedForHost("h1:6379", -5)
	require.Equal(t, float64(128), counterValue(t, c.compressionSave.WithLabelValues("h1:6379")))
}

func TestSetHostAvailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(Options{Registerer: reg})

	c.SetHostAvailable("h1:6379", true)
	c.SetHostAvailable("h2:6379", false)

	var m dto.Metric
	require.NoError(t, c.hostAvailable.WithLabelValues("h1:6379").Write(&m))
	require.Equal(t, float64(1), m.GetGauge().GetValue())

	var m2 dto.Metric
	require.NoError(t, c.hostAvailable.WithLabelValues("h2:6379").Write(&m2))
	require.Equal(t, float64(0), m2.GetGauge().GetValue())
}
