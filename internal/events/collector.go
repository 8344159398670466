package events

import (
	"context"
	"time"
)

// Collector owns a single map[path]Event, filled by draining one or more
// Sources' out channels, and forwards a snapshot of it to ticks on every
// interval. It runs entirely on its own goroutine (started by Run) — no
// mutex guards the map, since ownership only ever moves by channel send
// rather than through shared mutable state.
type Collector struct {
	interval time.Duration
	in       chan Event
}

// NewCollector builds a Collector that batches events arriving on in and
// forwards a snapshot every interval.
func NewCollector(interval time.Duration) *Collector {
	return &Collector{interval: interval, in: make(chan Event, 256)}
}

// In returns the channel Sources should be given as their Run's out
// parameter.
func (c *Collector) In() chan<- Event {
	return c.in
}

// Run drains c.In() into a latest-write-wins map (by path) and sends a copy
// of it on ticks at the configured interval, until ctx is canceled. It never
// returns a non-nil error on its own; it only returns when ctx is done.
func (c *Collector) Run(ctx context.Context, ticks chan<- map[string]Metadata) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	pending := make(map[string]Metadata)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.in:
			pending[ev.Path] = ev.Metadata
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			snapshot := make(map[string]Metadata, len(pending))
			for k, v := range pending {
				snapshot[k] = v
			}
			select {
			case ticks <- snapshot:
				pending = make(map[string]Metadata)
			case <-ctx.Done():
				return nil
			}
		}
	}
}
