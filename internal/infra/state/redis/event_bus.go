package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RoomEvent is a real-time event relayed through Redis so that any process
// holding the target connections can deliver it. It is addressed either to
// every connection joined to Room or, when Conn is set, to that single
// connection.
type RoomEvent struct {
	Room  string          `json:"room,omitempty"`
	Conn  string          `json:"conn,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrNoSubscribers reports a publish that no process received.
var ErrNoSubscribers = errors.New("redis: no subscriber received the event")

// RoomEventBus publishes and consumes RoomEvents on a single Redis pub/sub
// channel.
type RoomEventBus struct {
	client    *redis.Client
	keyPrefix string
}

// NewRoomEventBus panics on a nil client. An empty prefix becomes "sw1:".
func NewRoomEventBus(client *redis.Client, keyPrefix string) *RoomEventBus {
	if client == nil {
		panic("redis client cannot be nil for RoomEventBus")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RoomEventBus{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// DefaultKeyPrefix namespaces every key and channel this package touches.
const DefaultKeyPrefix = "sw1:"

func (b *RoomEventBus) eventsChannel() string {
	return eventsChannel(b.keyPrefix)
}

func eventsChannel(prefix string) string {
	return fmt.Sprintf("%shub:room-events", prefix)
}

// Publish marshals payload and publishes it for room. It returns
// ErrNoSubscribers when no relay listener is running.
func (b *RoomEventBus) Publish(ctx context.Context, room, event string, payload any) error {
	return b.publish(ctx, RoomEvent{Room: room, Event: event}, payload)
}

// PublishToConn publishes an event for a single connection.
func (b *RoomEventBus) PublishToConn(ctx context.Context, connID, event string, payload any) error {
	return b.publish(ctx, RoomEvent{Conn: connID, Event: event}, payload)
}

func (b *RoomEventBus) publish(ctx context.Context, ev RoomEvent, payload any) error {
	msg, err := encodeRoomEvent(ev, payload)
	if err != nil {
		return err
	}
	channel := b.eventsChannel()
	logCtx := logrus.WithFields(logrus.Fields{
		"channel":      channel,
		"payload_size": len(msg),
		"room":         ev.Room,
		"conn_id":      ev.Conn,
		"event":        ev.Event,
	})
	receivers, err := b.client.Publish(ctx, channel, msg).Result()
	if err != nil {
		logCtx.WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish %s to channel %s: %w", ev.Event, channel, err)
	}
	if err := checkReceivers(receivers); err != nil {
		logCtx.Warn("Redis Publish reached no subscriber")
		return err
	}
	return nil
}

func checkReceivers(n int64) error {
	if n <= 0 {
		return ErrNoSubscribers
	}
	return nil
}

// RoomSubscription is an established subscription to the events channel.
type RoomSubscription struct {
	sub    *redis.PubSub
	logCtx *logrus.Entry
}

// Subscribe establishes the subscription and waits for Redis to confirm it.
func (b *RoomEventBus) Subscribe(ctx context.Context) (*RoomSubscription, error) {
	channel := b.eventsChannel()
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: failed to subscribe to %s: %w", channel, err)
	}
	return &RoomSubscription{
		sub:    sub,
		logCtx: logrus.WithFields(logrus.Fields{"component": "room_event_bus", "channel": channel}),
	}, nil
}

// Run calls deliver for every decodable message until ctx is cancelled,
// then closes the subscription.
func (s *RoomSubscription) Run(ctx context.Context, deliver func(RoomEvent)) {
	defer s.sub.Close()
	s.logCtx.Info("Listening for relayed room events")

	msgs := s.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logCtx.Info("Room event relay stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				s.logCtx.Warn("Redis subscription channel closed")
				return
			}
			ev, err := decodeRoomEvent(msg.Payload)
			if err != nil {
				s.logCtx.WithError(err).Warn("Dropping undecodable room event")
				continue
			}
			deliver(ev)
		}
	}
}

func encodeRoomEvent(ev RoomEvent, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("redis: failed to marshal %s payload: %w", ev.Event, err)
	}
	ev.Data = data
	b, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("redis: failed to marshal room event %s: %w", ev.Event, err)
	}
	return string(b), nil
}

func decodeRoomEvent(s string) (RoomEvent, error) {
	var ev RoomEvent
	if err := json.Unmarshal([]byte(s), &ev); err != nil {
		return ev, fmt.Errorf("redis: failed to unmarshal room event: %w", err)
	}
	if ev.Event == "" || (ev.Room == "" && ev.Conn == "") {
		return ev, fmt.Errorf("redis: room event without target or event name")
	}
	return ev, nil
}
