package scheduler

import (
	"context"
	"fmt"

	"inmochat_backend/internal/chat/continuation"
	"inmochat_backend/platform/config"
	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// PendingLister finds team members whose notes bag holds a pending
// action. Satisfied by the team repository.
type PendingLister interface {
	ListWithPendingActions(ctx context.Context) ([]uuid.UUID, error)
}

// PendingLoader reads a member's pending actions, dropping any that
// expired. Satisfied by the continuation store.
type PendingLoader interface {
	LoadPending(ctx context.Context, actorID uuid.UUID) (*continuation.Action, []string, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	members PendingLister
	pending PendingLoader
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, members PendingLister, pending PendingLoader, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		members: members,
		pending: pending,
		log:     log,
	}

	mux.HandleFunc(TaskPendingSweep, w.handlePendingSweep)

	return w, nil
}

// handlePendingSweep loads each held pending action; the store's load
// path deletes any that already expired, so a load is all a sweep
// needs to do.
func (w *Worker) handlePendingSweep(ctx context.Context, task *asynq.Task) error {
	if _, err := ParsePendingSweepPayload(task); err != nil {
		return err
	}

	actors, err := w.members.ListWithPendingActions(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, actorID := range actors {
		actorID := actorID
		g.Go(func() error {
			if _, _, err := w.pending.LoadPending(gctx, actorID); err != nil {
				w.log.DatabaseError("pending_sweep.load", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	w.log.Info("pending sweep complete", "actors_checked", len(actors))
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
