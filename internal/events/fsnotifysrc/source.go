// Package fsnotifysrc implements events.Source over github.com/fsnotify/fsnotify,
// the cross-platform inotify/kqueue/ReadDirectoryChangesW wrapper the
// fanotify and ETW collectors in a real deployment would be replaced by on
// their respective platforms.
package fsnotifysrc

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/ajiang-xyz/ZekaEngine/internal/events"
)

// Source watches a fixed set of roots and translates fsnotify events into
// events.Event, tagged with the given Origin (OriginFanotify on Linux,
// OriginEtw on Windows — the caller decides based on build target).
type Source struct {
	Roots  []string
	Origin events.Origin
}

// New builds a Source that watches roots, tagging every emitted event with
// origin.
func New(origin events.Origin, roots ...string) *Source {
	return &Source{Roots: roots, Origin: origin}
}

// Run opens one fsnotify.Watcher, adds every root, and translates events
// onto out until ctx is canceled or the watcher itself fails to start.
// Individual per-event translation problems are dropped, not fatal — only a
// failure to establish or maintain the underlying OS handle returns an
// error, per events.Source's contract.
func (s *Source) Run(ctx context.Context, out chan<- events.Event) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotifysrc: creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range s.Roots {
		if err := watcher.Add(root); err != nil {
			return fmt.Errorf("fsnotifysrc: watching %s: %w", root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			typ, ok := translateOp(ev.Op)
			if !ok {
				continue
			}
			out <- events.Event{
				Path:     ev.Name,
				Metadata: events.Metadata{Origin: s.Origin, Type: typ},
			}
		case <-watcher.Errors:
			// transient per-event read errors are not fatal; the watcher
			// keeps running and the next loop iteration picks up fresh events.
			continue
		}
	}
}

func translateOp(op fsnotify.Op) (events.Type, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return events.TypeDelete, true
	case op.Has(fsnotify.Chmod):
		return events.TypeAttribute, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Create):
		return events.TypeWrite, true
	default:
		return 0, false
	}
}
