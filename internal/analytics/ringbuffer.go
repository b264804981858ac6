package analytics

import (
	"log"
	"sync"

	"urlshort/internal/domain"
	"urlshort/internal/metrics"
)

// ringBufferCapacity is the bound on pending events awaiting flush.
const ringBufferCapacity = 1000

// ringBuffer is the single-writer-preferred bounded queue shared by the
// bus producer and the direct fallback writer. Appends are guarded by a
// mutex held only across the append and size check.
type ringBuffer struct {
	mu      sync.Mutex
	events  []*domain.AnalyticsEvent
	dropped int64
}

func newRingBuffer() *ringBuffer {
	return &ringBuffer{events: make([]*domain.AnalyticsEvent, 0, ringBufferCapacity)}
}

// append adds e, reporting whether the buffer is now at/over capacity
// (the caller should trigger an async flush in that case).
func (b *ringBuffer) append(e *domain.AnalyticsEvent) (full bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) >= ringBufferCapacity {
		b.dropped++
		metrics.AnalyticsBufferDropped.Inc()
		if b.dropped%100 == 1 {
			log.Printf("analytics: ring buffer full, dropped %d events so far", b.dropped)
		}
		return true
	}
	b.events = append(b.events, e)
	return len(b.events) >= ringBufferCapacity
}

// drain atomically removes and returns every buffered event.
func (b *ringBuffer) drain() []*domain.AnalyticsEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = make([]*domain.AnalyticsEvent, 0, ringBufferCapacity)
	return out
}

// requeue puts events back at the front of the buffer, up to capacity;
// anything beyond capacity is dropped with a logged count.
func (b *ringBuffer) requeue(events []*domain.AnalyticsEvent) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	room := ringBufferCapacity - len(b.events)
	if room <= 0 {
		b.dropped += int64(len(events))
		metrics.AnalyticsBufferDropped.Add(float64(len(events)))
		log.Printf("analytics: dropping %d events, no room to requeue", len(events))
		return
	}
	if room < len(events) {
		dropped := len(events) - room
		b.dropped += int64(dropped)
		metrics.AnalyticsBufferDropped.Add(float64(dropped))
		log.Printf("analytics: dropping %d events, partial requeue", dropped)
		events = events[:room]
	}
	b.events = append(events, b.events...)
}
