package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventChannelPrefix = "loadlink:events:"

// RedisBridge caches the latest driver position and republishes topic events
// on redis pub/sub so other instances can fan them out to their own sockets.
type RedisBridge struct {
	client *redis.Client
	log    *zap.Logger
	// instanceID tags published events so Relay can skip the ones this
	// instance originated (the local hub already delivered those).
	instanceID string
}

// NewRedisBridge connects to redis and verifies the connection.
func NewRedisBridge(redisURL string, log *zap.Logger) (*RedisBridge, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBridge{client: client, log: log, instanceID: uuid.NewString()}, nil
}

// CacheDriverPosition stores the driver's latest position with a short TTL so
// position reads don't always hit postgres.
func (b *RedisBridge) CacheDriverPosition(ctx context.Context, driverID uint, lat, lng float64, recordedAt time.Time) error {
	payload := map[string]any{
		"lat":      lat,
		"lng":      lng,
		"recorded": recordedAt.Unix(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("driver:position:%d", driverID)
	return b.client.Set(ctx, key, data, time.Hour).Err()
}

// DriverPosition reads a cached position. redis.Nil means no cached entry.
func (b *RedisBridge) DriverPosition(ctx context.Context, driverID uint) (lat, lng float64, err error) {
	key := fmt.Sprintf("driver:position:%d", driverID)
	data, err := b.client.Get(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return 0, 0, err
	}

	lat, _ = payload["lat"].(float64)
	lng, _ = payload["lng"].(float64)
	return lat, lng, nil
}

// Publish implements Publisher. Failures are logged and dropped; a missed
// cross-instance event is recovered by the client re-fetching state.
func (b *RedisBridge) Publish(topic, eventType string, data any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topic:     topic,
		Origin:    b.instanceID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.log.Error("marshal redis event", zap.String("topic", topic), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, eventChannelPrefix+topic, payload).Err(); err != nil {
		b.log.Warn("redis publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

// Relay subscribes to the shared event channels and forwards every event to
// the local hub. Run it in its own goroutine; it returns when ctx is done.
func (b *RedisBridge) Relay(ctx context.Context, hub *Hub) {
	sub := b.client.PSubscribe(ctx, eventChannelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn("bad relayed event", zap.Error(err))
				continue
			}
			if event.Origin == b.instanceID {
				continue
			}
			hub.Publish(event.Topic, event.Type, event.Data)
		}
	}
}
