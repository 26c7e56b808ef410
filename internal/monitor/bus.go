package monitor

import (
	"sync"

	"github.com/pagepulse/pagepulse/internal/models"
)

// StatsBus fans statistics snapshots out to subscribers, so the API layer
// and logging can observe the engine without coupling to it. Slow
// subscribers miss intermediate snapshots rather than blocking the engine;
// every snapshot is complete, so only the latest one matters.
type StatsBus struct {
	mu   sync.Mutex
	subs map[int]chan models.MonitoringStats
	next int
}

// NewStatsBus creates an empty bus.
func NewStatsBus() *StatsBus {
	return &StatsBus{subs: make(map[int]chan models.MonitoringStats)}
}

// Subscribe registers a new observer. The returned cancel function must be
// called when the observer is done; it closes the channel.
func (b *StatsBus) Subscribe() (<-chan models.MonitoringStats, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan models.MonitoringStats, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber without blocking. A
// subscriber that has not drained its previous snapshot gets the newer one
// instead.
func (b *StatsBus) Publish(stats models.MonitoringStats) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- stats:
		default:
			// Drop the stale snapshot and replace it with the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- stats:
			default:
			}
		}
	}
}
