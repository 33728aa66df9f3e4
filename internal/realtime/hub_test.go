package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

func testHub(t *testing.T) *RoomHub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewRoomHub(log)
}

func mustEvent(t *testing.T, room, eventType string, payload interface{}) Event {
	t.Helper()
	event, err := NewEvent(room, eventType, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return event
}

func receive(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscriber channel closed")
		}
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	hub := testHub(t)
	sub := hub.Subscribe("room-a")
	defer hub.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		hub.Publish(mustEvent(t, "room-a", EventChatMessage, map[string]int{"seq": i}))
	}

	for i := 0; i < 5; i++ {
		event := receive(t, sub)
		var payload struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.Seq != i {
			t.Fatalf("event %d arrived with seq %d", i, payload.Seq)
		}
	}
}

func TestPublishFansOutToRoomOnly(t *testing.T) {
	hub := testHub(t)
	first := hub.Subscribe("room-a")
	second := hub.Subscribe("room-a")
	other := hub.Subscribe("room-b")
	defer hub.Unsubscribe(first)
	defer hub.Unsubscribe(second)
	defer hub.Unsubscribe(other)

	hub.Publish(mustEvent(t, "room-a", EventSessionStatus, map[string]string{"status": "live"}))

	for _, sub := range []*Subscriber{first, second} {
		if event := receive(t, sub); event.Type != EventSessionStatus {
			t.Fatalf("event type = %s", event.Type)
		}
	}
	select {
	case event := <-other.Events():
		t.Fatalf("room-b received %+v", event)
	default:
	}
}

func TestUnsubscribeStopsDeliveryAndClosesChannel(t *testing.T) {
	hub := testHub(t)
	sub := hub.Subscribe("room-a")
	hub.Unsubscribe(sub)

	if got := hub.SubscriberCount("room-a"); got != 0 {
		t.Fatalf("subscriber count = %d, want 0", got)
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatalf("events channel still open after unsubscribe")
	}

	// Double unsubscribe must not panic.
	hub.Unsubscribe(sub)

	hub.Publish(mustEvent(t, "room-a", EventChatMessage, map[string]string{"text": "late"}))
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := testHub(t)
	slow := hub.Subscribe("room-a")
	fast := hub.Subscribe("room-a")
	defer hub.Unsubscribe(fast)

	// Fill the slow subscriber's buffer, then push one more.
	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(mustEvent(t, "room-a", EventChatMessage, map[string]int{"seq": i}))
		receive(t, fast)
	}

	if got := hub.SubscriberCount("room-a"); got != 1 {
		t.Fatalf("subscriber count = %d, want 1 after dropping slow subscriber", got)
	}

	// The dropped subscriber drains its buffer and then sees a closed channel.
	drained := 0
	for range slow.Events() {
		drained++
	}
	if drained != subscriberBuffer {
		t.Fatalf("drained %d buffered events, want %d", drained, subscriberBuffer)
	}
}
