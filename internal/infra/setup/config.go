package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBOptions selects and addresses the database.
type DBOptions struct {
	Driver     string
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// InitDB opens the database named by opts and tunes its pool.
func InitDB(opts DBOptions) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = "sw1.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		// sqlite allows one writer; an in-memory database also vanishes per connection
		sqlDB.SetMaxOpenConns(1)
		logrus.WithField("path", path).Info("SQLite connected")
	case DriverMySQL, "":
		dsn, dsnErr := mysqlDSN(opts)
		if dsnErr != nil {
			return nil, dsnErr
		}
		db, err = gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		logrus.Info("MySQL connected")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}
	return db, nil
}

func mysqlDSN(opts DBOptions) (string, error) {
	if opts.User == "" {
		return "", fmt.Errorf("DB_USER environment variable not set")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == "" {
		port = "3306"
	}
	name := opts.Name
	if name == "" {
		name = "sw1p1"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.User, opts.Password, host, port, name), nil
}

// InitRedis connects to Redis and verifies the connection with PING.
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxConnAge:   30 * time.Minute,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logrus.WithField("addr", addr).Info("Redis connected")
	return client, nil
}
