package analytics

import (
	"testing"

	"urlshort/internal/domain"
)

func TestRingBufferAppendAndDrain(t *testing.T) {
	b := newRingBuffer()
	for i := 0; i < 5; i++ {
		if full := b.append(&domain.AnalyticsEvent{ShortCode: "abc"}); full {
			t.Fatalf("buffer should not report full at %d events", i+1)
		}
	}
	drained := b.drain()
	if len(drained) != 5 {
		t.Fatalf("expected 5 drained events, got %d", len(drained))
	}
	if len(b.drain()) != 0 {
		t.Fatal("expected buffer empty after drain")
	}
}

func TestRingBufferAppendReportsFullAtCapacity(t *testing.T) {
	b := newRingBuffer()
	var full bool
	for i := 0; i < ringBufferCapacity; i++ {
		full = b.append(&domain.AnalyticsEvent{})
	}
	if !full {
		t.Fatal("expected full=true once capacity is reached")
	}
	if over := b.append(&domain.AnalyticsEvent{}); !over {
		t.Fatal("expected append beyond capacity to also report full")
	}
	if b.dropped != 1 {
		t.Fatalf("expected one dropped event beyond capacity, got %d", b.dropped)
	}
}

func TestRingBufferRequeuePartial(t *testing.T) {
	b := newRingBuffer()
	for i := 0; i < ringBufferCapacity-2; i++ {
		b.append(&domain.AnalyticsEvent{})
	}
	extra := make([]*domain.AnalyticsEvent, 5)
	for i := range extra {
		extra[i] = &domain.AnalyticsEvent{}
	}
	b.requeue(extra)

	drained := b.drain()
	if len(drained) != ringBufferCapacity {
		t.Fatalf("expected buffer capped at capacity after requeue, got %d", len(drained))
	}
	if b.dropped != 3 {
		t.Fatalf("expected 3 events dropped by partial requeue, got %d", b.dropped)
	}
}

func TestRingBufferRequeueOntoEmptyBuffer(t *testing.T) {
	b := newRingBuffer()
	events := []*domain.AnalyticsEvent{{ShortCode: "one"}, {ShortCode: "two"}}
	b.requeue(events)

	drained := b.drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 requeued events, got %d", len(drained))
	}
	if drained[0].ShortCode != "one" || drained[1].ShortCode != "two" {
		t.Fatal("expected requeue to preserve original order at the front of the buffer")
	}
}
