package metrics

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("concurrent inc", func(t *testing.T) {
		m := New()
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					m.Inc(EventEnqueued)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, uint64(800), m.Get(EventEnqueued))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		m := New()
		m.Inc(EventPublished)
		snap := m.Snapshot()
		m.Inc(EventPublished)
		assert.Equal(t, uint64(1), snap[EventPublished])
		assert.Equal(t, uint64(2), m.Get(EventPublished))
	})

	t.Run("nil metrics", func(t *testing.T) {
		var m *Metrics
		m.Inc(EventPublished)
		assert.Zero(t, m.Get(EventPublished))
		assert.Empty(t, m.Snapshot())
	})
}

func TestWriteText(t *testing.T) {
	m := New()
	m.Inc(EventPublished)
	m.Inc(EventEnqueued)
	m.Inc(EventEnqueued)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	assert.Equal(t,
		"# HELP p2pcall_events_total Relay event counters.\n"+
			"# TYPE p2pcall_events_total counter\n"+
			"p2pcall_events_total{event=\"enqueued\"} 2\n"+
			"p2pcall_events_total{event=\"published\"} 1\n",
		buf.String())
}
