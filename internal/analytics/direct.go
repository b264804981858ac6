package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"urlshort/internal/domain"
	"urlshort/internal/store"
	"urlshort/internal/ws"
)

// DirectWriter implements Publisher as the fallback path used when the
// message bus is unreachable at startup, sharing the same
// emit-then-enqueue contract and buffer bounds as BusProducer, flushing
// via a batched INSERT instead of a bus publish.
type DirectWriter struct {
	analyticsStore *store.AnalyticsStore
	hub            *ws.Hub
	buf            *ringBuffer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewDirectWriter(analyticsStore *store.AnalyticsStore, hub *ws.Hub) *DirectWriter {
	w := &DirectWriter{
		analyticsStore: analyticsStore,
		hub:            hub,
		buf:            newRingBuffer(),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
	go w.flushLoop()
	return w
}

func (w *DirectWriter) PublishClickEvent(e *domain.AnalyticsEvent) {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	if e.DeviceType == "" || e.Browser == "" || e.OS == "" {
		device, browser, os := EnrichUserAgent(e.UserAgent)
		if e.DeviceType == "" {
			e.DeviceType = device
		}
		if e.Browser == "" {
			e.Browser = browser
		}
		if e.OS == "" {
			e.OS = os
		}
	}

	emitToHub(w.hub, e)

	if full := w.buf.append(e); full {
		go w.flush()
	}
}

func (w *DirectWriter) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	defer close(w.doneCh)
	for {
		select {
		case <-ticker.C:
			w.flush()
		case <-w.stopCh:
			w.flush()
			return
		}
	}
}

func (w *DirectWriter) flush() {
	events := w.buf.drain()
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.analyticsStore.InsertBatch(ctx, events); err != nil {
		log.Printf("analytics: direct insert failed for %d events, requeueing: %v", len(events), err)
		w.buf.requeue(events)
	}
}

// Stop flushes any remaining buffered events.
func (w *DirectWriter) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
	})
}
