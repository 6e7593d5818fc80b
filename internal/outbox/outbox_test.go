package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/metrics"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct {
	written []string
	fail    map[string]error
}

func (j *journal) op(name string) WriteFunc {
	return func(ctx context.Context, _ storage.Store) error {
		if err := j.fail[name]; err != nil {
			return err
		}
		j.written = append(j.written, name)
		return nil
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestDrainInOrder(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	o := New(nil, WithMetrics(m))
	j := &journal{}

	o.Enqueue("account.create", j.op("a"))
	o.Enqueue("transaction.create", j.op("b"))
	o.Enqueue("account.update", j.op("c"))
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, 3.0, gaugeValue(t, m.OutboxDepth))

	pending := o.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, uint64(1), pending[0].Seq)
	assert.Equal(t, "account.update", pending[2].Name)

	assert.Equal(t, 3, o.Drain(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, j.written)
	assert.Zero(t, o.Len())
	assert.Zero(t, gaugeValue(t, m.OutboxDepth))
}

func TestUnavailableKeepsQueue(t *testing.T) {
	o := New(nil)
	j := &journal{fail: map[string]error{"b": storage.ErrUnavailable}}

	o.Enqueue("one", j.op("a"))
	o.Enqueue("two", j.op("b"))
	o.Enqueue("three", j.op("c"))

	assert.Equal(t, 1, o.Drain(context.Background()))
	assert.Equal(t, 2, o.Len())
	assert.Equal(t, 1, o.Pending()[0].Attempts)

	delete(j.fail, "b")
	assert.Equal(t, 2, o.Drain(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, j.written)
}

func TestFailedWriteIsDropped(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	o := New(nil, WithMetrics(m))
	j := &journal{fail: map[string]error{"a": errors.New("constraint violated")}}

	o.Enqueue("goal.update", j.op("a"))
	o.Enqueue("goal.update", j.op("b"))

	assert.Equal(t, 1, o.Drain(context.Background()))
	assert.Equal(t, []string{"b"}, j.written)
	assert.Zero(t, o.Len())

	var c dto.Metric
	require.NoError(t, m.PersistFailures.WithLabelValues("goal.update").Write(&c))
	assert.Equal(t, 1.0, c.GetCounter().GetValue())
}

func TestOfflineQueuesUntilOnline(t *testing.T) {
	o := New(nil, Offline())
	j := &journal{}
	assert.False(t, o.Online())

	o.Enqueue("habit.update", j.op("a"))
	assert.Zero(t, o.Drain(context.Background()))
	assert.Equal(t, 1, o.Len())

	o.SetOnline(true)
	assert.Equal(t, 1, o.Drain(context.Background()))
	assert.Equal(t, []string{"a"}, j.written)
}

func TestRunFlushesOnShutdown(t *testing.T) {
	o := New(nil)
	j := &journal{}
	o.Enqueue("task.create", j.op("a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, []string{"a"}, j.written)
}

func TestDiscard(t *testing.T) {
	called := false
	Discard{}.Enqueue("x", func(context.Context, storage.Store) error {
		called = true
		return nil
	})
	assert.False(t, called)
}
