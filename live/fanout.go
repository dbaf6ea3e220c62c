package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tripweaver/itinerary"
	"tripweaver/utils"
)

const Channel = "itinerary-events"

// Fanout delivers itinerary changes to local rooms and, when Redis is
// configured, to the rooms of every other instance.
type Fanout struct {
	hub      *Hub
	rdb      *redis.Client
	instance string
	logger   *zap.Logger
}

// NewFanout returns a Fanout. rdb may be nil for a single instance.
func NewFanout(hub *Hub, rdb *redis.Client, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{hub: hub, rdb: rdb, instance: utils.GetUUID(), logger: logger}
}

// ItineraryChanged implements itinerary.Notifier.
func (f *Fanout) ItineraryChanged(ctx context.Context, c itinerary.Change) {
	ev := changeEvent(c)
	ev.Origin = f.instance
	data, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error("marshal itinerary event", zap.Error(err))
		return
	}

	f.hub.Broadcast(c.ItineraryID, data)

	if f.rdb == nil {
		return
	}
	if err := f.rdb.Publish(context.WithoutCancel(ctx), Channel, data).Err(); err != nil {
		f.logger.Warn("publish itinerary event", zap.String("itinerary_id", c.ItineraryID), zap.Error(err))
	}
}

// Run relays events published by other instances into local rooms until ctx ends.
func (f *Fanout) Run(ctx context.Context) {
	if f.rdb == nil {
		return
	}
	sub := f.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	f.logger.Info("listening for itinerary events", zap.String("channel", Channel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.relay([]byte(msg.Payload))
		}
	}
}

func (f *Fanout) relay(payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		f.logger.Warn("invalid itinerary event", zap.Error(err))
		return
	}
	if ev.Origin == f.instance || ev.ItineraryID == "" {
		return
	}
	f.hub.Broadcast(ev.ItineraryID, payload)
}
