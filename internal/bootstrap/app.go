package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/ai"
	httpHandler "github.com/jkarlos000/sw1-p1/internal/handler/http"
	wsHandler "github.com/jkarlos000/sw1-p1/internal/handler/websocket"
	"github.com/jkarlos000/sw1-p1/internal/hub"
	gormpersistence "github.com/jkarlos000/sw1-p1/internal/infra/persistence/gorm"
	"github.com/jkarlos000/sw1-p1/internal/infra/setup"
	redisstate "github.com/jkarlos000/sw1-p1/internal/infra/state/redis"
	"github.com/jkarlos000/sw1-p1/internal/middleware"
	"github.com/jkarlos000/sw1-p1/internal/registry"
	"github.com/jkarlos000/sw1-p1/internal/service"
	"github.com/jkarlos000/sw1-p1/internal/worker"
)

// App holds every long-lived component.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	events *redisstate.RoomEventBus
	cancel context.CancelFunc
}

// NewLogger builds the process logger and installs it as logrus' standard
// logger, so package-level logrus calls share its format and level.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	return log
}

// Migrate opens the database and applies the schema.
func Migrate(cfg *Config) error {
	db, err := setup.InitDB(cfg.DBOptions())
	if err != nil {
		return fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}
	return nil
}

// NewApp wires the application from cfg.
func NewApp(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := NewLogger(cfg)
	log.WithFields(logrus.Fields{"env": cfg.AppEnv, "level": log.GetLevel().String()}).Info("Configuration loaded")

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	attendanceRepo := gormpersistence.NewGormAttendanceRepository(db)
	convRepo := gormpersistence.NewGormConversationRepository(db)
	msgRepo := gormpersistence.NewGormMessageRepository(db)
	snapshotRepo := gormpersistence.NewGormSnapshotRepository(db)
	configRepo := gormpersistence.NewGormAIConfigRepository(db)
	tx := gormpersistence.NewGormTransactor(db)
	limiter := redisstate.NewRateLimiter(redisClient, cfg.KeyPrefix)
	events := redisstate.NewRoomEventBus(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	defaults, err := ai.LoadDefaults(cfg.AIDefaultsFile)
	if err != nil {
		return nil, err
	}
	if cfg.AIModelOverride != "" {
		defaults.Model = cfg.AIModelOverride
	}
	dispatcher := ai.NewDispatcher(
		ai.NewOpenAIBackend(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		ai.NewAnthropicBackend(cfg.AnthropicKey, cfg.AnthropicURL),
	)
	if cfg.OpenAIKey == "" && cfg.AnthropicKey == "" {
		log.Warn("No AI backend key configured, the assistant will answer with canned replies")
	}

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, attendanceRepo, userRepo, tx)
	conversationService := service.NewConversationService(convRepo, msgRepo, configRepo, tx)
	snapshotService := service.NewSnapshotService(snapshotRepo, convRepo)
	assistantService := service.NewAssistantService(conversationService, msgRepo, configRepo, roomRepo, snapshotRepo, dispatcher, defaults)
	log.Info("Services initialized")

	hubInstance := hub.NewHub(registry.New(), roomService, assistantService, cfg.HubOptions())
	relay := hub.NewRelayBroadcaster(events, hubInstance)
	assistantService.SetBroadcaster(relay)

	var asynqClient *asynq.Client
	if cfg.AIAsync {
		asynqClient = asynq.NewClient(redisClientOpt)
		hubInstance.SetEnqueuer(worker.NewEnqueuer(asynqClient))
		log.Info("Assistant turns run on the background worker")
	}
	workerServer := worker.NewWorkerServer(redisClientOpt, assistantService, relay, cfg.WorkerConcurrency, log)

	router := newRouter(cfg, log, routeDeps{
		auth:    httpHandler.NewAuthHandler(authService),
		rooms:   httpHandler.NewRoomHandler(roomService),
		chat:    httpHandler.NewChatHandler(conversationService, snapshotService, assistantService),
		ws:      wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSOrigin),
		limiter: limiter,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Hub:         hubInstance,
		HttpServer:  httpServer,
		events:      events,
	}, nil
}

type routeDeps struct {
	auth    *httpHandler.AuthHandler
	rooms   *httpHandler.RoomHandler
	chat    *httpHandler.ChatHandler
	ws      *wsHandler.WebSocketHandler
	limiter middleware.Limiter
}

func newRouter(cfg *Config, log *logrus.Logger, d routeDeps) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSOrigin))

	router.GET("/health", httpHandler.Health)
	router.GET("/metrics", httpHandler.Metrics())

	guard := middleware.OptionalAuth(cfg.JWTSecret)
	if cfg.AuthRequired {
		guard = middleware.Auth(cfg.JWTSecret)
	}
	router.GET("/ws", guard, d.ws.HandleConnection)

	api := router.Group("/")
	api.Use(middleware.RateLimit(d.limiter, cfg.RateLimitMax, cfg.RateLimitWindow))

	api.POST("/users", d.auth.Register)
	api.POST("/users/confirm-login", d.auth.Login)

	rooms := api.Group("/", guard)
	{
		rooms.POST("/salaCreate", d.rooms.CreateRoom)
		rooms.POST("/salaData", d.rooms.RoomData)
		rooms.GET("/salas/:nombreSala", d.rooms.GetDiagram)
		rooms.PUT("/salas/:nombreSala", d.rooms.SaveDiagram)
		rooms.POST("/unirseSalaXcodigo", d.rooms.JoinByCode)
		rooms.POST("/asistenciaAnotar", d.rooms.AddAttendance)
		rooms.POST("/asistenciaBorrar", d.rooms.RemoveAttendance)
		rooms.POST("/esHost", d.rooms.IsHost)
		rooms.POST("/asistentesSala", d.rooms.Attendees)
		rooms.POST("/borrarSala", d.rooms.DeleteRoom)
		rooms.POST("/codigoIA", d.chat.GenerateCode)
	}

	chat := api.Group("/chat-ia", guard)
	{
		chat.GET("/conversacion/sala/:id_sala", d.chat.ActiveConversation)
		chat.POST("/conversacion", d.chat.StartConversation)
		chat.GET("/mensajes/:id_conversacion", d.chat.History)
		chat.POST("/mensaje", d.chat.SendMessage)
		chat.POST("/snapshot", d.chat.SaveSnapshot)
		chat.GET("/snapshots/:id_conversacion", d.chat.Snapshots)
		chat.POST("/config", d.chat.SaveConfig)
		chat.POST("/aplicar", d.chat.ApplyEdits)
		chat.POST("/generar-postman", d.chat.GenerateCollection)
	}
	return router
}

// Start launches the hub loop, the cross-process relay, the worker and the
// HTTP listener. It fails when the relay subscription cannot be established,
// since relayed assistant replies would otherwise be lost.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	subCtx, subCancel := context.WithTimeout(ctx, 5*time.Second)
	sub, err := a.events.Subscribe(subCtx)
	subCancel()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start room event relay: %w", err)
	}

	go a.Hub.Run(ctx)
	a.Log.Info("Hub routine started")

	go sub.Run(ctx, func(ev redisstate.RoomEvent) {
		if ev.Conn != "" {
			a.Hub.EmitToConn(ev.Conn, ev.Event, ev.Data)
			return
		}
		a.Hub.DeliverRemote(ev.Room, ev.Event, ev.Data)
	})
	a.Log.Info("Room event relay started")

	go a.AsynqServer.Start()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
	return nil
}

// Shutdown stops the components in reverse start order.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	}

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// Stops the relay listener and closes every websocket.
	if a.cancel != nil {
		a.cancel()
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs one line per request, at a level chosen by status.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		statusCode := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}

// CORSMiddleware answers preflight requests and sets the allow headers.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigin)
		if allowedOrigin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
