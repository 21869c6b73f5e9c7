package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/jkarlos000/sw1-p1/internal/tasks"
)

// WorkerServer runs the asynq server that consumes background tasks.
type WorkerServer struct {
	server    *asynq.Server
	log       *logrus.Entry
	assistant ChatRunner
	reporter  FailureReporter
}

func NewWorkerServer(redisOpt asynq.RedisClientOpt, assistant ChatRunner, reporter FailureReporter, concurrency int, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueAI: 6,
				"default":     3,
				"low":         1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
			Logger: &asynqLogger{entry: logEntry},
		},
	)

	return &WorkerServer{
		server:    server,
		log:       logEntry,
		assistant: assistant,
		reporter:  reporter,
	}
}

// Mux returns the task routes served by the worker.
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAIChat, NewAIChatHandler(ws.assistant, ws.reporter).ProcessTask)
	return mux
}

// Start runs the worker. Call it in its own goroutine.
func (ws *WorkerServer) Start() {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(ws.Mux()); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Errorf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}

// asynqLogger routes asynq's internal logging through logrus.
type asynqLogger struct {
	entry *logrus.Entry
}

func (l *asynqLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }
