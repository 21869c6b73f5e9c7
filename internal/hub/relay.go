package hub

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Publisher fans an event out to every process, addressed to a room or to
// a single connection.
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload any) error
	PublishToConn(ctx context.Context, connID, event string, payload any) error
}

const publishTimeout = 2 * time.Second

// RelayBroadcaster publishes events through a Publisher so that connections
// held by any process receive them. When publishing fails or reaches no
// subscriber the event is delivered to this process's connections only.
type RelayBroadcaster struct {
	pub   Publisher
	local *Hub
}

func NewRelayBroadcaster(pub Publisher, local *Hub) *RelayBroadcaster {
	if local == nil {
		panic("Hub cannot be nil for RelayBroadcaster")
	}
	return &RelayBroadcaster{pub: pub, local: local}
}

func (r *RelayBroadcaster) EmitToRoom(room, event string, payload any) {
	if r.pub == nil {
		r.local.EmitToRoom(room, event, payload)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.pub.Publish(ctx, room, event, payload); err != nil {
		logrus.WithFields(logrus.Fields{"room": room, "event": event}).WithError(err).Warn("Relay publish failed, delivering locally")
		r.local.EmitToRoom(room, event, payload)
	}
}

// ReportChatFailure sends the directed assistant error to connID, wherever
// that connection is held.
func (r *RelayBroadcaster) ReportChatFailure(connID string) {
	if connID == "" {
		return
	}
	if r.pub == nil {
		r.local.EmitToConn(connID, EventError, errChat)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.pub.PublishToConn(ctx, connID, EventError, errChat); err != nil {
		logrus.WithField("conn_id", connID).WithError(err).Warn("Relay publish failed, delivering locally")
		r.local.EmitToConn(connID, EventError, errChat)
	}
}
