package analytics

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"urlshort/internal/domain"
	"urlshort/internal/ws"
)

// flushInterval is the periodic buffer flush interval.
const flushInterval = 1000 * time.Millisecond

// BusProducer implements Publisher over the message bus.
type BusProducer struct {
	writer *kafka.Writer
	hub    *ws.Hub
	buf    *ringBuffer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBusProducer constructs a producer against brokers for the
// url_clicks topic. Topic/partition/retention/compression provisioning
// is assumed to be handled by cluster administration.
func NewBusProducer(brokers []string, topic string, hub *ws.Hub) *BusProducer {
	p := &BusProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			BatchTimeout: flushInterval,
		},
		hub:    hub,
		buf:    newRingBuffer(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go p.flushLoop()
	return p
}

// PublishClickEvent enriches the event, emits it to WebSocket
// subscribers, enqueues it for the bus, and flushes immediately if the
// buffer just filled.
func (p *BusProducer) PublishClickEvent(e *domain.AnalyticsEvent) {
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

	emitToHub(p.hub, e)

	if full := p.buf.append(e); full {
		go p.flush()
	}
}

func (p *BusProducer) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	defer close(p.doneCh)
	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.stopCh:
			p.flush()
			return
		}
	}
}

func (p *BusProducer) flush() {
	events := p.buf.drain()
	if len(events) == 0 {
		return
	}
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			log.Printf("analytics: failed to marshal event %s for bus: %v", e.EventID, err)
			continue
		}
		msgs[i] = kafka.Message{Key: []byte(e.ShortCode), Value: payload}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		log.Printf("analytics: bus publish failed for %d events, requeueing: %v", len(events), err)
		p.buf.requeue(events)
	}
}

// Stop flushes any remaining buffered events and closes the writer, as
// part of the graceful-shutdown sequence.
func (p *BusProducer) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
		p.writer.Close()
	})
}
