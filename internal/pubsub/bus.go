package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DashboardChannel carries events every connected officer dashboard
// cares about: activations, triage verdicts, status changes.
const DashboardChannel = "dashboard"

type Bus struct {
	rdb   *redis.Client
	log   *zap.Logger
	ctx   context.Context
	wsHub WSHub
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// PublishComplaint publishes an event to a single complaint's channel,
// consumed by citizens watching their own complaint.
func (b *Bus) PublishComplaint(complaintID string, event map[string]interface{}) error {
	return b.Publish("complaint:"+complaintID, event)
}

// PublishDashboard publishes an event to the shared officer dashboard
// channel.
func (b *Bus) PublishDashboard(event map[string]interface{}) error {
	return b.Publish(DashboardChannel, event)
}

// Publish publishes an event to a channel. Each event gets a ULID so
// consumers can de-duplicate across reconnects.
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	stamped := make(map[string]interface{}, len(event)+2)
	for k, v := range event {
		stamped[k] = v
	}
	stamped["eventId"] = ulid.Make().String()
	stamped["ts"] = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(stamped)
	if err != nil {
		return err
	}

	// Publish to Redis pub/sub
	if b.rdb != nil {
		if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
			b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
			return err
		}
	}

	// Broadcast to WebSocket hub if available
	if b.wsHub != nil {
		b.wsHub.Publish(channel, stamped)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}
