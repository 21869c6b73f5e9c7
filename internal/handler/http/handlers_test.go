package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jkarlos000/sw1-p1/internal/ai"
	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*service.Session)
	return s, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*service.Session)
	return s, args.Error(1)
}

type mockRooms struct{ mock.Mock }

func (m *mockRooms) CreateRoom(ctx context.Context, hostEmail, name string) (*domain.Room, error) {
	args := m.Called(ctx, hostEmail, name)
	r, _ := args.Get(0).(*domain.Room)
	return r, args.Error(1)
}

func (m *mockRooms) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*domain.Room)
	return r, args.Error(1)
}

func (m *mockRooms) SaveDiagram(ctx context.Context, name, diagram string) error {
	return m.Called(ctx, name, diagram).Error(0)
}

func (m *mockRooms) AddAttendance(ctx context.Context, email, roomName string) error {
	return m.Called(ctx, email, roomName).Error(0)
}

func (m *mockRooms) RemoveAttendance(ctx context.Context, email, roomName string) error {
	return m.Called(ctx, email, roomName).Error(0)
}

func (m *mockRooms) IsHost(ctx context.Context, email, roomName string) error {
	return m.Called(ctx, email, roomName).Error(0)
}

func (m *mockRooms) Attendees(ctx context.Context, name string) ([]domain.Collaborator, error) {
	args := m.Called(ctx, name)
	list, _ := args.Get(0).([]domain.Collaborator)
	return list, args.Error(1)
}

func (m *mockRooms) DeleteIfEmpty(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

type mockConversations struct{ mock.Mock }

func (m *mockConversations) Active(ctx context.Context, roomID uint) (*domain.Conversation, error) {
	args := m.Called(ctx, roomID)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *mockConversations) Start(ctx context.Context, roomID uint, title string, initial domain.JSONText) (*domain.Conversation, error) {
	args := m.Called(ctx, roomID, title, initial)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *mockConversations) History(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	list, _ := args.Get(0).([]domain.Message)
	return list, args.Error(1)
}

func (m *mockConversations) SaveConfig(ctx context.Context, in service.ConfigInput) (*domain.AIConfig, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*domain.AIConfig)
	return c, args.Error(1)
}

type mockSnapshots struct{ mock.Mock }

func (m *mockSnapshots) Save(ctx context.Context, conversationID uint, messageID *uint, diagram domain.JSONText, description string) (*domain.DiagramSnapshot, error) {
	args := m.Called(ctx, conversationID, messageID, diagram, description)
	s, _ := args.Get(0).(*domain.DiagramSnapshot)
	return s, args.Error(1)
}

func (m *mockSnapshots) List(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error) {
	args := m.Called(ctx, conversationID)
	list, _ := args.Get(0).([]domain.DiagramSnapshot)
	return list, args.Error(1)
}

type mockAssistant struct{ mock.Mock }

func (m *mockAssistant) Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*service.ChatResult)
	return r, args.Error(1)
}

func (m *mockAssistant) ApplyScript(diagram domain.JSONText, script ai.EditScript) (ai.ApplyResult, error) {
	args := m.Called(diagram, script)
	return args.Get(0).(ai.ApplyResult), args.Error(1)
}

func (m *mockAssistant) GenerateCollection(ctx context.Context, prompt string) (any, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0), args.Error(1)
}

func (m *mockAssistant) GenerateCode(ctx context.Context, language, info string) (string, error) {
	args := m.Called(ctx, language, info)
	return args.String(0), args.Error(1)
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func authRouter(a Authenticator) *gin.Engine {
	h := NewAuthHandler(a)
	r := gin.New()
	r.POST("/users", h.Register)
	r.POST("/users/confirm-login", h.Login)
	return r
}

func TestRegisterReturnsSession(t *testing.T) {
	a := &mockAuth{}
	a.On("Register", mock.Anything, "ana@x.com", "pw").
		Return(&service.Session{User: &domain.User{ID: 5, Email: "ana@x.com"}, Token: "tok"}, nil).Once()

	w, body := do(authRouter(a), http.MethodPost, "/users", `{"email":"ana@x.com","password":"pw"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 5, body["id"])
	assert.Equal(t, "tok", body["token"])
	a.AssertExpectations(t)
}

func TestRegisterErrors(t *testing.T) {
	a := &mockAuth{}
	a.On("Register", mock.Anything, "ana@x.com", "pw").Return(nil, service.ErrUserExists).Once()
	r := authRouter(a)

	w, body := do(r, http.MethodPost, "/users", `{"email":"ana@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email y password son requeridos", body["mensaje"])

	w, body = do(r, http.MethodPost, "/users", `{"email":"ana@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "El usuario ya existe", body["mensaje"])
}

func TestLoginErrors(t *testing.T) {
	a := &mockAuth{}
	a.On("Login", mock.Anything, "nobody@x.com", "pw").Return(nil, service.ErrUserNotFound).Once()
	a.On("Login", mock.Anything, "ana@x.com", "bad").Return(nil, service.ErrAuthenticationFailed).Once()
	a.On("Login", mock.Anything, "db@x.com", "pw").Return(nil, errors.New("connection reset")).Once()
	r := authRouter(a)

	w, body := do(r, http.MethodPost, "/users/confirm-login", `{"email":"nobody@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Este usuario no existe REGISTRE!!!", body["mensaje"])

	w, body = do(r, http.MethodPost, "/users/confirm-login", `{"email":"ana@x.com","password":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El usuario no existe o la contraseña es incorrecta", body["mensaje"])

	w, body = do(r, http.MethodPost, "/users/confirm-login", `{"email":"db@x.com","password":"pw"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, msgStorage, body["mensaje"])
}

func roomRouter(rooms Rooms) *gin.Engine {
	h := NewRoomHandler(rooms)
	r := gin.New()
	r.POST("/salaCreate", h.CreateRoom)
	r.POST("/salaData", h.RoomData)
	r.GET("/salas/:nombreSala", h.GetDiagram)
	r.PUT("/salas/:nombreSala", h.SaveDiagram)
	r.POST("/unirseSalaXcodigo", h.JoinByCode)
	r.POST("/asistenciaAnotar", h.AddAttendance)
	r.POST("/asistenciaBorrar", h.RemoveAttendance)
	r.POST("/esHost", h.IsHost)
	r.POST("/asistentesSala", h.Attendees)
	r.POST("/borrarSala", h.DeleteRoom)
	return r
}

func TestCreateRoom(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("CreateRoom", mock.Anything, "ana@x.com", "demo").
		Return(&domain.Room{ID: 1, Name: "demo", HostEmail: "ana@x.com"}, nil).Once()
	rooms.On("CreateRoom", mock.Anything, "ana@x.com", "taken").Return(nil, service.ErrRoomNameTaken).Once()
	r := roomRouter(rooms)

	w, body := do(r, http.MethodPost, "/salaCreate", `{"usuario":"ana@x.com","sala":"demo"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@x.com", body["host"])
	assert.Equal(t, "demo", body["sala"])

	w, body = do(r, http.MethodPost, "/salaCreate", `{"usuario":"ana@x.com","sala":"taken"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Error en la creacion de una sala", body["mensaje"])

	w, _ = do(r, http.MethodPost, "/salaCreate", `{"sala":"demo"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomDiagramReadAndWrite(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("FindByName", mock.Anything, "demo").Return(&domain.Room{Name: "demo", Diagram: `{"cells":[]}`}, nil)
	rooms.On("FindByName", mock.Anything, "ghost").Return(nil, service.ErrRoomNotFound)
	rooms.On("SaveDiagram", mock.Anything, "demo", `{"cells":[1]}`).Return(nil).Once()
	rooms.On("SaveDiagram", mock.Anything, "demo", `{"cells":[2]}`).Return(nil).Once()
	r := roomRouter(rooms)

	w, body := do(r, http.MethodGet, "/salas/demo", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"cells":[]}`, body["diagrama"])

	w, body = do(r, http.MethodGet, "/salas/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Sala no encontrada", body["mensaje"])

	w, body = do(r, http.MethodPost, "/salaData", `{"sala":"ghost"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Error en la consulta de una sala", body["mensaje"])

	// Both a string-encoded and an inline document are accepted.
	w, _ = do(r, http.MethodPut, "/salas/demo", `{"diagrama":"{\"cells\":[1]}"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(r, http.MethodPut, "/salas/demo", `{"diagrama":{"cells":[2]}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = do(r, http.MethodPost, "/unirseSalaXcodigo", `{"sala":"ghost"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "La sala no existe", body["mensaje"])
	rooms.AssertExpectations(t)
}

func TestAttendanceRoutes(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("AddAttendance", mock.Anything, "ana@x.com", "demo").Return(nil).Once()
	rooms.On("RemoveAttendance", mock.Anything, "ana@x.com", "demo").Return(service.ErrAttendanceNotFound).Once()
	rooms.On("IsHost", mock.Anything, "bob@x.com", "demo").Return(service.ErrNotHost).Once()
	rooms.On("Attendees", mock.Anything, "empty").Return(nil, service.ErrNoAttendees).Once()
	rooms.On("Attendees", mock.Anything, "demo").Return([]domain.Collaborator{{Email: "ana@x.com"}}, nil).Once()
	r := roomRouter(rooms)

	w, body := do(r, http.MethodPost, "/asistenciaAnotar", `{"usuario":"ana@x.com","sala":"demo"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@x.com", body["usuario"])

	w, body = do(r, http.MethodPost, "/asistenciaBorrar", `{"usuario":"ana@x.com","sala":"demo"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Error en la eliminacion de la asistencia a una sala", body["mensaje"])

	w, body = do(r, http.MethodPost, "/esHost", `{"usuario":"bob@x.com","sala":"demo"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "El usuario no es el host de la sala", body["mensaje"])

	w, _ = do(r, http.MethodPost, "/asistentesSala", `{"sala":"empty"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = do(r, http.MethodPost, "/asistentesSala", `{"sala":"demo"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body["asistentes"], 1)
	rooms.AssertExpectations(t)
}

func TestDeleteRoom(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("DeleteIfEmpty", mock.Anything, "busy").Return(false, nil).Once()
	rooms.On("DeleteIfEmpty", mock.Anything, "idle").Return(true, nil).Once()
	rooms.On("DeleteIfEmpty", mock.Anything, "ghost").Return(false, service.ErrRoomNotFound).Once()
	r := roomRouter(rooms)

	w, body := do(r, http.MethodPost, "/borrarSala", `{"sala":"busy"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["eliminada"])

	_, body = do(r, http.MethodPost, "/borrarSala", `{"sala":"idle"}`)
	assert.Equal(t, true, body["eliminada"])

	w, _ = do(r, http.MethodPost, "/borrarSala", `{"sala":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type chatDeps struct {
	conversations *mockConversations
	snapshots     *mockSnapshots
	assistant     *mockAssistant
}

func chatRouter() (*gin.Engine, chatDeps) {
	d := chatDeps{&mockConversations{}, &mockSnapshots{}, &mockAssistant{}}
	h := NewChatHandler(d.conversations, d.snapshots, d.assistant)
	r := gin.New()
	g := r.Group("/chat-ia")
	g.GET("/conversacion/sala/:id_sala", h.ActiveConversation)
	g.POST("/conversacion", h.StartConversation)
	g.GET("/mensajes/:id_conversacion", h.History)
	g.POST("/mensaje", h.SendMessage)
	g.POST("/snapshot", h.SaveSnapshot)
	g.GET("/snapshots/:id_conversacion", h.Snapshots)
	g.POST("/config", h.SaveConfig)
	g.POST("/aplicar", h.ApplyEdits)
	g.POST("/generar-postman", h.GenerateCollection)
	r.POST("/codigoIA", h.GenerateCode)
	return r, d
}

func TestActiveConversation(t *testing.T) {
	r, d := chatRouter()
	d.conversations.On("Active", mock.Anything, uint(3)).Return(nil, nil).Once()
	d.conversations.On("Active", mock.Anything, uint(4)).Return(&domain.Conversation{ID: 8, RoomID: 4}, nil).Once()

	w, body := do(r, http.MethodGet, "/chat-ia/conversacion/sala/3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["conversacion"])
	assert.Equal(t, "No hay conversación activa", body["mensaje"])

	_, body = do(r, http.MethodGet, "/chat-ia/conversacion/sala/4", "")
	assert.NotNil(t, body["conversacion"])

	w, body = do(r, http.MethodGet, "/chat-ia/conversacion/sala/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El id_sala es requerido", body["mensaje"])
}

func TestStartConversationDefaultsTitle(t *testing.T) {
	r, d := chatRouter()
	d.conversations.On("Start", mock.Anything, uint(2), "Nueva conversación", domain.JSONText("")).
		Return(&domain.Conversation{ID: 11}, nil).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/conversacion", `{"id_sala":2}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Conversación creada exitosamente", body["mensaje"])
	d.conversations.AssertExpectations(t)
}

func TestHistoryPaging(t *testing.T) {
	r, d := chatRouter()
	d.conversations.On("History", mock.Anything, uint(5), 50, 0).Return([]domain.Message{{ID: 1}, {ID: 2}}, nil).Once()
	d.conversations.On("History", mock.Anything, uint(5), 10, 20).Return([]domain.Message{}, nil).Once()

	_, body := do(r, http.MethodGet, "/chat-ia/mensajes/5", "")
	assert.EqualValues(t, 2, body["total"])

	_, body = do(r, http.MethodGet, "/chat-ia/mensajes/5?limite=10&offset=20", "")
	assert.EqualValues(t, 0, body["total"])
	d.conversations.AssertExpectations(t)
}

func TestSendMessage(t *testing.T) {
	r, d := chatRouter()
	script := &ai.EditScript{Actions: []ai.EditAction{{Type: "limpiar"}}}
	d.assistant.On("Chat", mock.Anything, service.ChatInput{RoomID: 1, UserID: 2, Content: "hola"}).
		Return(&service.ChatResult{
			UserMessage:      &domain.Message{ID: 1, Content: "hola"},
			AssistantMessage: &domain.Message{ID: 2, Content: "ok"},
			EditScript:       script,
		}, nil).Once()
	d.assistant.On("Chat", mock.Anything, service.ChatInput{RoomID: 1, UserID: 2, Content: "boom"}).
		Return(nil, service.ErrInternalServer).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/mensaje", `{"id_sala":1,"id_usuario":2,"contenido":"hola"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["mensaje_ia"])
	mod, ok := body["modificacion_diagrama"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, mod["acciones"], 1)

	w, body = do(r, http.MethodPost, "/chat-ia/mensaje", `{"id_sala":1,"id_usuario":2,"contenido":"boom"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error al procesar mensaje con IA", body["mensaje"])

	w, body = do(r, http.MethodPost, "/chat-ia/mensaje", `{"id_sala":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Faltan datos requeridos", body["mensaje"])

	w, _ = do(r, http.MethodPost, "/chat-ia/mensaje", `{"id_usuario":2,"contenido":"hola"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "a room or a conversation is needed")
	d.assistant.AssertExpectations(t)
}

func TestSendMessageWithConversationOnly(t *testing.T) {
	r, d := chatRouter()
	d.assistant.On("Chat", mock.Anything, service.ChatInput{ConversationID: 8, Content: "hola"}).
		Return(&service.ChatResult{
			UserMessage:      &domain.Message{ID: 1, Content: "hola"},
			AssistantMessage: &domain.Message{ID: 2, Content: "ok"},
		}, nil).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/mensaje", `{"id_conversacion":8,"contenido":"hola"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["mensaje_ia"])
	d.assistant.AssertExpectations(t)
}

func TestSnapshotRoutes(t *testing.T) {
	r, d := chatRouter()
	d.snapshots.On("Save", mock.Anything, uint(3), (*uint)(nil), domain.JSONText(`{"cells":[]}`), "Snapshot manual").
		Return(&domain.DiagramSnapshot{ID: 1}, nil).Once()
	d.snapshots.On("List", mock.Anything, uint(3)).Return([]domain.DiagramSnapshot{{ID: 2}, {ID: 1}}, nil).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/snapshot", `{"id_conversacion":3,"diagrama_json":{"cells":[]}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Snapshot guardado exitosamente", body["mensaje"])

	_, body = do(r, http.MethodGet, "/chat-ia/snapshots/3", "")
	assert.Len(t, body["snapshots"], 2)
	d.snapshots.AssertExpectations(t)
}

func TestSaveConfigPassesOptionalFields(t *testing.T) {
	r, d := chatRouter()
	d.conversations.On("SaveConfig", mock.Anything, mock.MatchedBy(func(in service.ConfigInput) bool {
		return in.RoomID == 4 && in.Model != nil && *in.Model == "gpt-4o" && in.Temperature == nil
	})).Return(&domain.AIConfig{RoomID: 4}, nil).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/config", `{"id_sala":4,"modelo":"gpt-4o"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Configuración guardada exitosamente", body["mensaje"])
	d.conversations.AssertExpectations(t)
}

func TestApplyEdits(t *testing.T) {
	r, d := chatRouter()
	d.assistant.On("ApplyScript", domain.JSONText(`{"cells":[]}`), ai.EditScript{Actions: []ai.EditAction{{Type: "limpiar"}}}).
		Return(ai.ApplyResult{Diagram: ai.Diagram{"cells": []any{}}, Applied: 1}, nil).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/aplicar", `{"diagrama":{"cells":[]},"modificaciones":{"acciones":[{"tipo":"limpiar"}]}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["diagrama"])

	w, _ = do(r, http.MethodPost, "/chat-ia/aplicar", `{"diagrama":{"cells":[]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateCollectionAndCode(t *testing.T) {
	r, d := chatRouter()
	d.assistant.On("GenerateCollection", mock.Anything, "users api").Return(map[string]any{"item": []any{}}, nil).Once()
	d.assistant.On("GenerateCollection", mock.Anything, "junk").Return(nil, service.ErrCollectionUnparseable).Once()
	d.assistant.On("GenerateCode", mock.Anything, "java", "classes").Return("class A {}", nil).Once()
	d.assistant.On("GenerateCode", mock.Anything, "go", "classes").Return("", service.ErrAIUnavailable).Once()

	w, body := do(r, http.MethodPost, "/chat-ia/generar-postman", `{"prompt":"users api"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["coleccion"])

	w, body = do(r, http.MethodPost, "/chat-ia/generar-postman", `{"prompt":"junk"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error al generar colección de Postman", body["mensaje"])

	w, body = do(r, http.MethodPost, "/chat-ia/generar-postman", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El prompt es requerido", body["mensaje"])

	w, body = do(r, http.MethodPost, "/codigoIA", `{"lenguaje":"java","info":"classes"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "class A {}", body["infoCodigo"])

	w, body = do(r, http.MethodPost, "/codigoIA", `{"lenguaje":"go","info":"classes"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error en pedir la informacion a la IA", body["mensaje"])
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health)

	w, body := do(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
