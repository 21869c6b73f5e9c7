package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/metrics"
	"github.com/jkarlos000/sw1-p1/internal/registry"
	"github.com/jkarlos000/sw1-p1/internal/service"
	"github.com/jkarlos000/sw1-p1/internal/tasks"

	"github.com/sirupsen/logrus"
)

type handlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// route binds an inbound event to its handler. Async handlers touch
// storage and run outside the hub loop.
type route struct {
	handle handlerFunc
	async  bool
}

func (h *Hub) buildRoutes() map[string]route {
	return map[string]route{
		EventInitGeneralChat:    {handle: h.onInitGeneralChat},
		EventEnterChatRoom:      {handle: h.onEnterChatRoom},
		EventInitPrivateRoom:    {handle: h.onInitPrivateRoom},
		EventNewPrivateEvent:    {handle: h.onNewPrivateEvent},
		EventDeletePrivateEvent: {handle: h.onDeletePrivateEvent},
		EventNewMeeting:         {handle: h.onNewMeeting, async: true},
		EventJoinMeeting:        {handle: h.onJoinMeeting, async: true},
		EventDiagramChanged:     {handle: h.onDiagramChanged},
		EventAssistantChat:      {handle: h.onAssistantChat, async: true},
		EventTyping:             {handle: h.relayToRoom(EventTyping)},
		EventDiagramSuggestion:  {handle: h.relayToRoom(EventDiagramSuggestion)},
		EventRoomData:           {handle: h.onRoomData},
		EventEnterWorkRoom:      {handle: h.onEnterWorkRoom, async: true},
		EventLeaveWorkRoom:      {handle: h.onLeaveWorkRoom, async: true},
		EventMessage:            {handle: h.onMessage},
		EventClientMessage:      {handle: h.onClientMessage},
	}
}

// clientError is reported to the originating connection only. A nil cause
// means the request itself was invalid.
type clientError struct {
	text  string
	cause error
}

func (e *clientError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.text, e.cause)
	}
	return e.text
}

func (e *clientError) Unwrap() error { return e.cause }

func reject(text string) error { return &clientError{text: text} }

func fail(text string, cause error) error { return &clientError{text: text, cause: cause} }

// handleFrame decodes one inbound frame and runs its handler.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
		c.logCtx().WithError(err).Debug("Hub: malformed frame")
		metrics.Events.WithLabelValues("malformed", metrics.ResultRejected).Inc()
		h.emitError(c, errMalformed)
		return
	}
	r, ok := h.routes[in.Event]
	if !ok {
		c.logCtx().WithField("event", in.Event).Debug("Hub: unknown event")
		metrics.Events.WithLabelValues("unknown", metrics.ResultRejected).Inc()
		return
	}
	if !c.allow() {
		metrics.Events.WithLabelValues(in.Event, metrics.ResultRejected).Inc()
		h.emitError(c, errRateLimited)
		return
	}
	if r.async {
		go h.dispatch(r, c, in)
		return
	}
	h.dispatch(r, c, in)
}

// dispatch runs a handler, turning failures and panics into a directed
// error-msg-servidor.
func (h *Hub) dispatch(r route, c *Client, in inbound) {
	logCtx := c.logCtx().WithField("event", in.Event)
	defer func() {
		if rec := recover(); rec != nil {
			logCtx.Errorf("Hub: handler panic: %v", rec)
			metrics.Events.WithLabelValues(in.Event, metrics.ResultError).Inc()
			h.emitError(c, errInternal)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	err := r.handle(ctx, c, in.Data)
	if err == nil {
		metrics.Events.WithLabelValues(in.Event, metrics.ResultOK).Inc()
		return
	}
	var ce *clientError
	if !errors.As(err, &ce) {
		ce = &clientError{text: errInternal, cause: err}
	}
	if ce.cause != nil {
		logCtx.WithError(ce.cause).Warn("Hub: event failed")
		metrics.Events.WithLabelValues(in.Event, metrics.ResultError).Inc()
	} else {
		logCtx.Debug("Hub: event rejected")
		metrics.Events.WithLabelValues(in.Event, metrics.ResultRejected).Inc()
	}
	h.emitError(c, ce.text)
}

// decode unmarshals and validates a payload; any failure is reported with text.
func (h *Hub) decode(data json.RawMessage, dst any, text string) error {
	if len(data) == 0 {
		return reject(text)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return reject(text)
	}
	if err := h.validate.Struct(dst); err != nil {
		return reject(text)
	}
	return nil
}

func (h *Hub) onInitGeneralChat(_ context.Context, c *Client, data json.RawMessage) error {
	var p domain.Presence
	if err := h.decode(data, &p, errGeneralChat); err != nil {
		return err
	}
	p.ConnID = c.id
	roster := h.registry.Join(registry.General, registry.GeneralRoom, p)
	h.emitAll(EventGeneralRoster, roster, nil)
	return nil
}

func (h *Hub) onEnterChatRoom(_ context.Context, c *Client, data json.RawMessage) error {
	var p chatRoomPayload
	if err := h.decode(data, &p, errEnterRoom); err != nil {
		return err
	}
	h.join(c, p.Room)
	member := *p.User
	member.ConnID = c.id
	roster := h.registry.Join(registry.NamedChat, p.Room, member)
	h.emitRoom(p.Room, EventChatRoster, roster, nil)
	return nil
}

func (h *Hub) onInitPrivateRoom(_ context.Context, c *Client, data json.RawMessage) error {
	var p privateRoomPayload
	if err := h.decode(data, &p, errPrivateRoom); err != nil {
		return err
	}
	key := string(p.RoomID)
	h.join(c, key)
	member := *p.User
	member.ConnID = c.id
	roster := h.registry.Join(registry.PrivateEvent, key, member)
	h.emitRoom(key, EventPrivateRoster, roster, nil)
	h.emitRoom(key, EventPrivateEvents, h.registry.Events(key), nil)
	return nil
}

func (h *Hub) onNewPrivateEvent(_ context.Context, _ *Client, data json.RawMessage) error {
	var p privateEventPayload
	if err := h.decode(data, &p, errAddEvent); err != nil {
		return err
	}
	key := string(p.RoomID)
	h.emitRoom(key, EventPrivateEvents, h.registry.AppendEvent(key, p.Event), nil)
	return nil
}

func (h *Hub) onDeletePrivateEvent(_ context.Context, _ *Client, data json.RawMessage) error {
	var p privateEventPayload
	if err := h.decode(data, &p, errDeleteEvent); err != nil {
		return err
	}
	key := string(p.RoomID)
	if events, ok := h.registry.RemoveEvent(key, p.Event); ok {
		h.emitRoom(key, EventPrivateEvents, events, nil)
	}
	return nil
}

func (h *Hub) onNewMeeting(ctx context.Context, c *Client, data json.RawMessage) error {
	var p meetingPayload
	if err := h.decode(data, &p, errCreateMeetingInput); err != nil {
		return err
	}
	userID, ok := p.UserID.Uint()
	if !ok {
		return reject(errCreateMeetingInput)
	}
	room, err := h.meetings.CreateMeeting(ctx, userID, p.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return reject(errUserNotFound)
		case errors.Is(err, service.ErrRoomNameTaken):
			return reject(errRoomTaken)
		}
		return fail(errCreateMeeting, err)
	}
	h.join(c, room.Name)
	h.emitTo(c, EventNewMeeting, meetingAck{
		OK:   true,
		Room: meetingRoom{ID: room.ID, Name: room.Name, Host: room.HostEmail},
	})
	return nil
}

func (h *Hub) onJoinMeeting(ctx context.Context, c *Client, data json.RawMessage) error {
	var p meetingPayload
	if err := h.decode(data, &p, errJoinMeetingInput); err != nil {
		return err
	}
	userID, ok := p.UserID.Uint()
	if !ok {
		return reject(errJoinMeetingInput)
	}
	room, collaborators, err := h.meetings.JoinMeeting(ctx, userID, p.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			return reject(errRoomNotFound)
		case errors.Is(err, service.ErrUserNotFound):
			return reject(errUserNotFound)
		}
		return fail(errJoinMeeting, err)
	}
	if collaborators == nil {
		collaborators = []domain.Collaborator{}
	}
	h.join(c, room.Name)
	h.emitTo(c, EventJoinMeeting, meetingAck{
		OK:            true,
		Room:          meetingRoom{ID: room.ID, Name: room.Name, Host: room.HostEmail},
		Collaborators: collaborators,
	})
	h.emitRoom(room.Name, EventCollaborators, collaboratorsPayload{
		Attendees: collaborators,
		Room:      room.Name,
		OK:        true,
	}, c)
	return nil
}

// onDiagramChanged relays the payload untouched. Without a room it goes to
// every other connection.
func (h *Hub) onDiagramChanged(_ context.Context, c *Client, data json.RawMessage) error {
	if len(data) == 0 {
		return reject(errRelayInput)
	}
	var scope roomScoped
	_ = json.Unmarshal(data, &scope)
	if scope.Room == "" {
		h.emitAll(EventDiagramChanged, data, c)
		return nil
	}
	h.emitRoom(scope.Room, EventDiagramChanged, data, c)
	return nil
}

// relayToRoom re-emits a payload to the rest of the room it names.
func (h *Hub) relayToRoom(event string) handlerFunc {
	return func(_ context.Context, c *Client, data json.RawMessage) error {
		var scope roomScoped
		if len(data) == 0 || json.Unmarshal(data, &scope) != nil || scope.Room == "" {
			return reject(errRelayInput)
		}
		h.emitRoom(scope.Room, event, data, c)
		return nil
	}
}

// onAssistantChat echoes the user's message to the rest of the room and
// hands the turn to the assistant. The reply is broadcast to the whole
// room by the assistant itself.
func (h *Hub) onAssistantChat(ctx context.Context, c *Client, data json.RawMessage) error {
	var p assistantChatPayload
	if err := h.decode(data, &p, errChatInput); err != nil {
		return err
	}
	roomID, ok := p.RoomID.Uint()
	if !ok {
		return reject(errChatInput)
	}
	userID, ok := p.UserID.Uint()
	if !ok {
		return reject(errChatInput)
	}
	var conversationID uint
	if p.ConversationID != "" {
		if conversationID, ok = p.ConversationID.Uint(); !ok {
			return reject(errChatInput)
		}
	}

	echo := chatEcho{
		RoomID:    roomID,
		UserID:    userID,
		UserEmail: p.UserEmail,
		Content:   p.Content,
		Kind:      domain.MessageKindUser,
		SentAt:    time.Now(),
	}
	if conversationID != 0 {
		echo.ConversationID = &conversationID
	}
	h.emitRoom(p.Room, EventAssistantMessage, echo, c)

	payload := tasks.AIChatPayload{
		ConversationID: conversationID,
		RoomID:         roomID,
		RoomName:       p.Room,
		UserID:         userID,
		Content:        p.Content,
		Diagram:        p.Diagram,
		ConnID:         c.id,
	}
	logCtx := c.logCtx().WithFields(logrus.Fields{"room": p.Room, "user_id": userID})
	if h.enqueuer != nil {
		err := h.enqueuer.EnqueueAIChat(ctx, payload)
		if err == nil {
			logCtx.Debug("Assistant turn enqueued")
			return nil
		}
		logCtx.WithError(err).Warn("Failed to enqueue assistant turn, running it inline")
	}
	go h.runChat(c, payload)
	return nil
}

func (h *Hub) runChat(c *Client, p tasks.AIChatPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
	defer cancel()
	_, err := h.assistant.Chat(ctx, service.ChatInput{
		ConversationID: p.ConversationID,
		RoomID:         p.RoomID,
		RoomName:       p.RoomName,
		UserID:         p.UserID,
		Content:        p.Content,
		Diagram:        p.Diagram,
	})
	if err != nil {
		c.logCtx().WithError(err).WithField("room", p.RoomName).Error("Assistant turn failed")
		h.emitError(c, errChat)
	}
}

// onRoomData persists a diagram and then relays it to the rest of the room.
// Writes for one room are applied in arrival order, so the stored diagram
// is always the last one relayed.
func (h *Hub) onRoomData(_ context.Context, c *Client, data json.RawMessage) error {
	var p roomDataPayload
	if err := h.decode(data, &p, errRoomDataInput); err != nil {
		return err
	}
	h.diagrams.push(h, diagramWrite{client: c, payload: p})
	return nil
}

type diagramWrite struct {
	client  *Client
	payload roomDataPayload
}

// diagramQueue holds pending diagram writes per room. A room with a key in
// pending has a drain goroutine running.
type diagramQueue struct {
	mu      sync.Mutex
	pending map[string][]diagramWrite
}

func (q *diagramQueue) push(h *Hub, w diagramWrite) {
	room := w.payload.RoomName
	q.mu.Lock()
	list, running := q.pending[room]
	q.pending[room] = append(list, w)
	q.mu.Unlock()
	if !running {
		go q.drain(h, room)
	}
}

func (q *diagramQueue) drain(h *Hub, room string) {
	for {
		q.mu.Lock()
		list := q.pending[room]
		if len(list) == 0 {
			delete(q.pending, room)
			q.mu.Unlock()
			return
		}
		w := list[0]
		q.pending[room] = list[1:]
		q.mu.Unlock()
		h.persistRoomData(w.client, w.payload)
	}
}

func (h *Hub) persistRoomData(c *Client, p roomDataPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := h.meetings.SaveDiagram(ctx, p.RoomName, domain.DiagramText(p.Info)); err != nil {
		c.logCtx().WithError(err).WithField("room", p.RoomName).Warn("Failed to persist room diagram")
		h.emitError(c, errRoomDataSave)
		return
	}
	h.emitRoom(p.RoomName, EventRoomData, p.Info, c)
}

func (h *Hub) onEnterWorkRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var p workRoomPayload
	if err := h.decode(data, &p, errEnterWorkRoom); err != nil {
		return err
	}
	h.join(c, p.RoomName)
	return h.announceCollaborators(ctx, c, p.RoomName)
}

func (h *Hub) onLeaveWorkRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var p workRoomPayload
	if err := h.decode(data, &p, errLeaveWorkRoom); err != nil {
		return err
	}
	h.leave(c, p.RoomName)
	return h.announceCollaborators(ctx, c, p.RoomName)
}

func (h *Hub) announceCollaborators(ctx context.Context, c *Client, room string) error {
	collaborators, err := h.meetings.Collaborators(ctx, room)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return reject(errRoomNotFound)
		}
		return fail(errInternal, err)
	}
	if collaborators == nil {
		collaborators = []domain.Collaborator{}
	}
	h.emitRoom(room, EventCollaborators, collaboratorsPayload{
		Attendees: collaborators,
		Room:      room,
		OK:        true,
	}, c)
	return nil
}

func (h *Hub) onMessage(_ context.Context, _ *Client, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	h.emitAll(EventNewMessage, data, nil)
	return nil
}

func (h *Hub) onClientMessage(_ context.Context, _ *Client, _ json.RawMessage) error {
	h.emitAll(EventServerMessage, serverMessage{From: "Servidor", Body: "Mensaje recibido"}, nil)
	return nil
}
