package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inmochat_backend/internal/chat/continuation"
	"inmochat_backend/internal/chat/dispatcher"
	"inmochat_backend/internal/events"
	apphttp "inmochat_backend/internal/http"
	"inmochat_backend/internal/http/router"
	"inmochat_backend/internal/leads"
	"inmochat_backend/internal/notify"
	"inmochat_backend/internal/replies"
	"inmochat_backend/internal/team"
	"inmochat_backend/internal/webhook"
	"inmochat_backend/internal/whatsapp"
	"inmochat_backend/platform/config"
	"inmochat_backend/platform/db"
	"inmochat_backend/platform/logger"
	"inmochat_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Outbound WhatsApp bridge; nil when unconfigured (dev without a device)
	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("WHATSAPP_URL not configured; outbound replies disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	teamModule := team.NewModule(pool)
	leadsModule := leads.NewModule(pool)

	contStore := continuation.NewStore(teamModule.Repository(), cfg, log)
	catalog := replies.MustLoad()

	chatDispatcher := dispatcher.New(
		leadsModule.Repository(),
		teamModule.Repository(),
		contStore,
		whatsappClient,
		eventBus,
		catalog,
		log,
	)

	webhookModule := webhook.NewModule(teamModule.Repository(), chatDispatcher, whatsappClient, val, log)

	// Owners hear about stage moves and document requests made on their
	// leads by someone else.
	notify.New(leadsModule.Repository(), teamModule.Repository(), whatsappClient, log).Register(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
			leadsModule,
			teamModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
