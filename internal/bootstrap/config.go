package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/hub"
	"github.com/jkarlos000/sw1-p1/internal/infra/setup"
	redisstate "github.com/jkarlos000/sw1-p1/internal/infra/state/redis"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is everything read from the environment at startup.
type Config struct {
	DBDriver   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	JWTSecret      string
	JWTExpiryHours int
	AuthRequired   bool

	ServerPort      string
	AppEnv          string
	LogLevel        string
	CORSOrigin      string
	RateLimitMax    int
	RateLimitWindow time.Duration

	OpenAIKey         string
	OpenAIBaseURL     string
	AnthropicKey      string
	AnthropicURL      string
	AIDefaultsFile    string
	AIAsync           bool
	AIModelOverride   string
	WorkerConcurrency int

	WSMaxMessageBytes int64
	WSEventsPerSecond float64
	WSEventBurst      int
	PrunePresence     bool
}

// LoadConfig reads the environment, after an optional .env file, and fills
// in defaults. It does not check required keys; see Validate.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:   getenv("DB_DRIVER", setup.DriverMySQL),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: os.Getenv("SQLITE_PATH"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		KeyPrefix:     getenv("REDIS_KEY_PREFIX", redisstate.DefaultKeyPrefix),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiryHours: getInt("JWT_EXPIRY_HOURS", 24),
		AuthRequired:   getBool("AUTH_REQUIRED", false),

		ServerPort:      getenv("SERVER_PORT", "8080"),
		AppEnv:          getenv("APP_ENV", "development"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		CORSOrigin:      getenv("CORS_ALLOWED_ORIGIN", "*"),
		RateLimitMax:    getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Second),

		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicURL:      os.Getenv("ANTHROPIC_BASE_URL"),
		AIDefaultsFile:    os.Getenv("AI_DEFAULTS_FILE"),
		AIAsync:           getBool("AI_ASYNC", true),
		AIModelOverride:   os.Getenv("MODELO_IA"),
		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 10),

		WSMaxMessageBytes: int64(getInt("WS_MAX_MESSAGE_BYTES", hub.DefaultMaxMessageSize)),
		WSEventsPerSecond: getFloat("WS_EVENTS_PER_SECOND", 50),
		WSEventBurst:      getInt("WS_EVENT_BURST", 100),
		PrunePresence:     getBool("PRESENCE_PRUNE_ON_DISCONNECT", false),
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg
}

// Validate checks the keys the server cannot start without.
func (c *Config) Validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if c.DBDriver != setup.DriverMySQL && c.DBDriver != setup.DriverSQLite {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// DBOptions selects the database from the config.
func (c *Config) DBOptions() setup.DBOptions {
	return setup.DBOptions{
		Driver:     c.DBDriver,
		User:       c.DBUser,
		Password:   c.DBPassword,
		Host:       c.DBHost,
		Port:       c.DBPort,
		Name:       c.DBName,
		SQLitePath: c.SQLitePath,
	}
}

func (c *Config) HubOptions() hub.Options {
	return hub.Options{
		PrunePresence:   c.PrunePresence,
		EventsPerSecond: c.WSEventsPerSecond,
		EventBurst:      c.WSEventBurst,
		MaxMessageSize:  c.WSMaxMessageBytes,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

// getDuration accepts a Go duration ("2s") or a number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
