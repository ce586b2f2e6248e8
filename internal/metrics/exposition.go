package metrics

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// WriteText writes every counter in Prometheus text format as one
// p2pcall_events_total series labelled by event.
func (m *Metrics) WriteText(w io.Writer) error {
	snap := m.Snapshot()
	if _, err := fmt.Fprint(w,
		"# HELP p2pcall_events_total Relay event counters.\n",
		"# TYPE p2pcall_events_total counter\n",
	); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(snap)) {
		if _, err := fmt.Fprintf(w, "p2pcall_events_total{event=%q} %d\n", k, snap[k]); err != nil {
			return err
		}
	}
	return nil
}
