package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker wraps the asynq server and its handler mux.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *zap.Logger
	Activity    ActivityRecorder
}

func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		Logger: zapAdapter{logger: logger.Sugar()},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
	return &Worker{server: srv, mux: NewServeMux(cfg.Activity, logger), logger: logger}
}

// NewServeMux registers every task handler the worker serves.
func NewServeMux(activity ActivityRecorder, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskStockAlert, NewStockAlertHandler(activity, logger))
	return mux
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type zapAdapter struct {
	logger *zap.SugaredLogger
}

func (a zapAdapter) Debug(args ...interface{}) { a.logger.Debug(args...) }
func (a zapAdapter) Info(args ...interface{})  { a.logger.Info(args...) }
func (a zapAdapter) Warn(args ...interface{})  { a.logger.Warn(args...) }
func (a zapAdapter) Error(args ...interface{}) { a.logger.Error(args...) }
func (a zapAdapter) Fatal(args ...interface{}) { a.logger.Fatal(args...) }
