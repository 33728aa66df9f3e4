package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/realtime"
)

const roomChannel = "openlearn:rooms"

// RoomBus bridges room events between instances over redis pub/sub. Each
// instance publishes its locally produced events and replays everything it
// hears into its own hub, so a subscriber lands on any instance and still
// sees the full room.
type RoomBus struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRoomBus(client *Client, baseLog *logger.Logger) *RoomBus {
	return &RoomBus{rdb: client.Raw(), log: baseLog.With("component", "RoomBus")}
}

func (b *RoomBus) Publish(ctx context.Context, event realtime.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, roomChannel, raw).Err()
}

// Forward subscribes to the shared channel and replays events into the hub
// until ctx is done. Run it on its own goroutine.
func (b *RoomBus) Forward(ctx context.Context, hub *realtime.RoomHub) {
	pubsub := b.rdb.Subscribe(ctx, roomChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event realtime.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("Dropping malformed room event", "error", err)
				continue
			}
			hub.Publish(event)
		}
	}
}
