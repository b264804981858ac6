// Package analytics implements the click-event pipeline: a bus-backed
// producer/consumer pair, a direct fallback writer sharing the same
// emit-then-enqueue contract, and the nightly batch summarizer.
package analytics

import (
	"encoding/json"
	"log"

	"urlshort/internal/domain"
	"urlshort/internal/ws"
)

// Publisher is the single surface the redirect service depends on, so
// it never needs to know whether the bus or the direct writer is
// active.
type Publisher interface {
	PublishClickEvent(e *domain.AnalyticsEvent)
}

// emitToHub performs exactly one synchronous WebSocket emission to
// shortCode's subscribers, before the event is enqueued anywhere.
// Producer-side emission is canonical; consumers must never repeat it.
func emitToHub(hub *ws.Hub, e *domain.AnalyticsEvent) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("analytics: failed to marshal event for emit: %v", err)
		return
	}
	hub.Emit(e.ShortCode, payload)
}
