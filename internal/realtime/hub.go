package realtime

import (
	"sync"

	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

const subscriberBuffer = 64

// Subscriber is one open event stream on a room.
type Subscriber struct {
	room   string
	events chan Event
	once   sync.Once
	closed chan struct{}
}

func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.events)
	})
}

// RoomHub fans events out to the subscribers of each room on this instance.
// Cross-instance delivery is the RoomBus's job; the hub only knows local
// connections.
type RoomHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
	log   *logger.Logger
}

func NewRoomHub(baseLog *logger.Logger) *RoomHub {
	return &RoomHub{
		rooms: make(map[string]map[*Subscriber]struct{}),
		log:   baseLog.With("component", "RoomHub"),
	}
}

func (h *RoomHub) Subscribe(room string) *Subscriber {
	sub := &Subscriber{
		room:   room,
		events: make(chan Event, subscriberBuffer),
		closed: make(chan struct{}),
	}

	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *RoomHub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if subs, ok := h.rooms[sub.room]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, sub.room)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// Publish delivers to every local subscriber of the event's room. A
// subscriber whose buffer is full is dropped rather than allowed to stall
// the rest of the room; clients are expected to reconnect and resume from
// their last seen seq.
func (h *RoomHub) Publish(event Event) {
	h.mu.RLock()
	subs := h.rooms[event.Room]
	var slow []*Subscriber
	for sub := range subs {
		select {
		case sub.events <- event:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.log.Warn("Dropping slow room subscriber", "room", event.Room)
		h.Unsubscribe(sub)
	}
}

func (h *RoomHub) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
