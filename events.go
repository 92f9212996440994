package main

import (
	"context"
	"sync"

	"whisperclip/recording"
)

// snapshotPump hands the newest machine snapshot to the display surfaces.
// Observe never blocks, so machine calls made from inside the TUI event
// loop cannot deadlock against Program.Send. Intermediate snapshots may be
// skipped; the last one always arrives.
type snapshotPump struct {
	mu     sync.Mutex
	latest recording.Snapshot
	ready  chan struct{}
}

func newSnapshotPump() *snapshotPump {
	return &snapshotPump{ready: make(chan struct{}, 1)}
}

func (p *snapshotPump) Observe(snap recording.Snapshot) {
	p.mu.Lock()
	p.latest = snap
	p.mu.Unlock()
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *snapshotPump) Run(ctx context.Context, sinks ...func(recording.Snapshot)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.ready:
			p.mu.Lock()
			snap := p.latest
			p.mu.Unlock()
			for _, sink := range sinks {
				sink(snap)
			}
		}
	}
}
