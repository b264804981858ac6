package analytics

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"urlshort/internal/cache"
	"urlshort/internal/domain"
	"urlshort/internal/store"
)

const (
	consumerGroupID  = "analytics-event-consumer"
	consumerTopic    = "url_clicks"
	consumerMaxBatch = 1000
	consumerMaxWait  = 2 * time.Second
)

// BusConsumer reads url_clicks off the bus and commits batches to the
// store. It never re-emits WebSocket events: producer-side emission is
// canonical.
type BusConsumer struct {
	reader         *kafka.Reader
	analyticsStore *store.AnalyticsStore
	l2             cache.DistributedCache

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewBusConsumer(brokers []string, analyticsStore *store.AnalyticsStore, l2 cache.DistributedCache) *BusConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  consumerGroupID,
		Topic:    consumerTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  consumerMaxWait,
	})
	return &BusConsumer{
		reader:         reader,
		analyticsStore: analyticsStore,
		l2:             l2,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Run consumes until ctx is cancelled or Stop is called, batching up to
// consumerMaxBatch messages or consumerMaxWait, whichever comes first.
func (c *BusConsumer) Run(ctx context.Context) {
	defer close(c.doneCh)
	batch := make([]*domain.AnalyticsEvent, 0, consumerMaxBatch)
	timer := time.NewTimer(consumerMaxWait)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		c.commit(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-c.stopCh:
			flush()
			return
		case <-timer.C:
			flush()
			timer.Reset(consumerMaxWait)
		default:
			readCtx, cancel := context.WithTimeout(ctx, consumerMaxWait)
			msg, err := c.reader.ReadMessage(readCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					flush()
					return
				}
				continue
			}
			var e domain.AnalyticsEvent
			if err := json.Unmarshal(msg.Value, &e); err != nil {
				log.Printf("analytics: consumer dropped unparseable message: %v", err)
				continue
			}
			batch = append(batch, &e)
			if len(batch) >= consumerMaxBatch {
				flush()
				timer.Reset(consumerMaxWait)
			}
		}
	}
}

func (c *BusConsumer) commit(ctx context.Context, batch []*domain.AnalyticsEvent) {
	writeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.analyticsStore.InsertBatch(writeCtx, batch); err != nil {
		log.Printf("analytics: consumer commit failed for %d events: %v", len(batch), err)
		return
	}

	touched := make(map[string]struct{})
	for _, e := range batch {
		touched[e.ShortCode] = struct{}{}
	}
	if c.l2 == nil {
		return
	}
	for code := range touched {
		if err := c.l2.Delete(ctx, summaryCacheKey(code)); err != nil {
			log.Printf("analytics: summary cache invalidation failed for %q: %v", code, err)
		}
	}
}

func summaryCacheKey(shortCode string) string {
	return "summary:" + shortCode
}

// Stop requests the consumer loop to flush and exit.
func (c *BusConsumer) Stop() {
	close(c.stopCh)
	<-c.doneCh
	c.reader.Close()
}
