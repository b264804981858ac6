package ws

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	h := NewHub()
	var c1, c2 websocket.Conn

	h.Subscribe("abc123", &c1)
	h.Subscribe("abc123", &c2)
	if got := h.GetSubscriberCount("abc123"); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	h.Unsubscribe("abc123", &c1)
	if got := h.GetSubscriberCount("abc123"); got != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", got)
	}

	h.Unsubscribe("abc123", &c2)
	if got := h.GetSubscriberCount("abc123"); got != 0 {
		t.Fatalf("expected 0 subscribers after all unsubscribed, got %d", got)
	}
}

func TestHubUnsubscribeUnknownCodeIsNoop(t *testing.T) {
	h := NewHub()
	var c websocket.Conn
	h.Unsubscribe("never-subscribed", &c)
	if got := h.GetSubscriberCount("never-subscribed"); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}
}

func TestHubEmitWithNoSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	h.Emit("nobody-listening", []byte("payload"))
	stats := h.GetStats()
	if stats.TotalEmits != 0 {
		t.Fatalf("expected no emits recorded when there are no subscribers, got %+v", stats)
	}
}

func TestHubGetStatsTracksCodes(t *testing.T) {
	h := NewHub()
	var c1, c2 websocket.Conn
	h.Subscribe("code-a", &c1)
	h.Subscribe("code-b", &c2)

	stats := h.GetStats()
	if stats.TrackedCodes != 2 {
		t.Fatalf("expected 2 tracked codes, got %d", stats.TrackedCodes)
	}
}
