package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/metrics"
	"github.com/jkarlos000/sw1-p1/internal/registry"
	"github.com/jkarlos000/sw1-p1/internal/service"
	"github.com/jkarlos000/sw1-p1/internal/tasks"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize bounds inbound frames. Diagrams travel whole.
	DefaultMaxMessageSize = 4 << 20

	// handlerTimeout bounds the storage work of one inbound event.
	handlerTimeout = 15 * time.Second

	// chatTimeout bounds a synchronous assistant turn.
	chatTimeout = 3 * time.Minute
)

// HubMessage is what travels on the hub's internal channel.
type HubMessage struct {
	Type    string // "register", "unregister", "event"
	Client  *Client
	RawData []byte
}

// MeetingService is the durable side of meetings.
type MeetingService interface {
	CreateMeeting(ctx context.Context, userID uint, name string) (*domain.Room, error)
	JoinMeeting(ctx context.Context, userID uint, name string) (*domain.Room, []domain.Collaborator, error)
	Collaborators(ctx context.Context, name string) ([]domain.Collaborator, error)
	SaveDiagram(ctx context.Context, name, diagram string) error
}

// AssistantChat runs one assistant turn and broadcasts its outcome.
type AssistantChat interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
}

// ChatEnqueuer hands an assistant turn to the background worker.
type ChatEnqueuer interface {
	EnqueueAIChat(ctx context.Context, p tasks.AIChatPayload) error
}

// Options tunes a Hub. Zero values select the defaults.
type Options struct {
	// PrunePresence removes a connection's roster entries on disconnect.
	PrunePresence bool
	// EventsPerSecond and EventBurst bound inbound events per connection.
	EventsPerSecond float64
	EventBurst      int
	// MaxMessageSize bounds inbound frames in bytes.
	MaxMessageSize int64
}

// Hub owns every live connection, the room channels they joined and the
// in-memory presence registry.
type Hub struct {
	messageChan chan HubMessage

	// clients is every registered connection; rooms maps a channel name to
	// its members. Both are guarded by roomsMu.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex

	registry  *registry.Registry
	meetings  MeetingService
	assistant AssistantChat
	enqueuer  ChatEnqueuer
	validate  *validator.Validate
	routes    map[string]route
	opts      Options

	diagrams diagramQueue
}

// NewHub panics on nil dependencies.
func NewHub(reg *registry.Registry, meetings MeetingService, assistant AssistantChat, opts Options) *Hub {
	if reg == nil {
		panic("Registry cannot be nil for Hub")
	}
	if meetings == nil {
		panic("MeetingService cannot be nil for Hub")
	}
	if assistant == nil {
		panic("AssistantChat cannot be nil for Hub")
	}
	if opts.EventsPerSecond <= 0 {
		opts.EventsPerSecond = 50
	}
	if opts.EventBurst <= 0 {
		opts.EventBurst = 100
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	h := &Hub{
		messageChan: make(chan HubMessage, 512),
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		registry:    reg,
		meetings:    meetings,
		assistant:   assistant,
		validate:    validator.New(),
		opts:        opts,
		diagrams:    diagramQueue{pending: make(map[string][]diagramWrite)},
	}
	h.routes = h.buildRoutes()
	return h
}

// SetEnqueuer routes assistant turns through the background worker. Without
// one they run in a goroutine of this process.
func (h *Hub) SetEnqueuer(e ChatEnqueuer) {
	h.enqueuer = e
}

// Run processes hub messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Hub is shutting down...")
			h.closeAll()
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "event":
				h.handleFrame(msg.Client, msg.RawData)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

// QueueMessage hands msg to the hub loop without blocking.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{"type": msg.Type}).Warn("Hub message channel full, dropping message")
		return false
	}
}

func (h *Hub) registerClient(c *Client) {
	if c == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.roomsMu.Lock()
	h.clients[c] = true
	h.roomsMu.Unlock()

	metrics.Connections.Inc()
	c.logCtx().Info("Client registered to Hub")
	h.emitTo(c, EventConnected, connectedPayload{ID: c.id})
}

func (h *Hub) unregisterClient(c *Client) {
	if c == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	h.roomsMu.Lock()
	if !h.clients[c] {
		h.roomsMu.Unlock()
		return
	}
	delete(h.clients, c)
	for name := range c.channels {
		h.removeFromRoomLocked(name, c)
	}
	c.closed = true
	close(c.send)
	h.roomsMu.Unlock()

	metrics.Connections.Dec()
	c.logCtx().Info("Client unregistered from Hub")

	if h.opts.PrunePresence {
		h.broadcastPruned(h.registry.PruneConnection(c.id))
	}
}

func (h *Hub) closeAll() {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.closed = true
		close(c.send)
		metrics.Connections.Dec()
	}
	h.rooms = make(map[string]map[*Client]bool)
}

func (h *Hub) broadcastPruned(changes []registry.Change) {
	for _, ch := range changes {
		switch ch.Namespace {
		case registry.General:
			h.emitAll(EventGeneralRoster, ch.Members, nil)
		case registry.NamedChat:
			h.emitRoom(ch.Key, EventChatRoster, ch.Members, nil)
		case registry.PrivateEvent:
			h.emitRoom(ch.Key, EventPrivateRoster, ch.Members, nil)
		}
	}
}

// join adds c to the named channel.
func (h *Hub) join(c *Client, name string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[name]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[name] = members
	}
	members[c] = true
	c.channels[name] = true
}

func (h *Hub) leave(c *Client, name string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	h.removeFromRoomLocked(name, c)
	delete(c.channels, name)
}

// removeFromRoomLocked drops c from a channel, deleting it once empty.
// Callers hold roomsMu.
func (h *Hub) removeFromRoomLocked(name string, c *Client) {
	members, ok := h.rooms[name]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, name)
	}
}

// RoomSize is the number of connections joined to a channel.
func (h *Hub) RoomSize(name string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[name])
}

func encodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

// deliver performs a non-blocking send. Callers hold roomsMu (read or write).
func deliver(c *Client, frame []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		metrics.DroppedFrames.Inc()
		c.logCtx().Warn("Client send buffer full, dropping frame")
	}
}

func (h *Hub) emitTo(c *Client, event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Hub: failed to encode frame")
		return
	}
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	deliver(c, frame)
}

func (h *Hub) emitError(c *Client, text string) {
	h.emitTo(c, EventError, text)
}

// emitRoom sends to every member of a channel except the given client,
// which may be nil.
func (h *Hub) emitRoom(name, event string, payload any, except *Client) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"event": event, "room": name}).Error("Hub: failed to encode frame")
		return
	}
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	for c := range h.rooms[name] {
		if c != except {
			deliver(c, frame)
		}
	}
}

// emitAll sends to every connection except the given client, which may be nil.
func (h *Hub) emitAll(event string, payload any, except *Client) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Hub: failed to encode frame")
		return
	}
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	for c := range h.clients {
		if c != except {
			deliver(c, frame)
		}
	}
}

// EmitToRoom sends an event to every connection of this process joined to
// the room channel.
func (h *Hub) EmitToRoom(room, event string, payload any) {
	h.emitRoom(room, event, payload, nil)
}

// EmitToConn sends an event to the connection with the given id when this
// process holds it, and reports whether it does.
func (h *Hub) EmitToConn(connID, event string, payload any) bool {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Hub: failed to encode frame")
		return false
	}
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	for c := range h.clients {
		if c.id == connID {
			deliver(c, frame)
			return true
		}
	}
	return false
}

// DeliverRemote emits an already encoded payload relayed from another
// process (or from this one through the relay).
func (h *Hub) DeliverRemote(room, event string, data json.RawMessage) {
	h.emitRoom(room, event, data, nil)
}
