// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ActorIDKey is the context key for the team member handling a message
	ActorIDKey contextKey = "actor_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if actorID, ok := ctx.Value(ActorIDKey).(string); ok && actorID != "" {
		newLogger = newLogger.WithActorID(actorID)
	}

	return newLogger
}

// WithActorID returns a logger scoped to a team member.
func (l *Logger) WithActorID(actorID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("actor_id", actorID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// InboundMessage logs a chat message entering the dispatcher.
func (l *Logger) InboundMessage(actorID, role string, length int) {
	l.Info("inbound_message",
		slog.String("actor_id", actorID),
		slog.String("role", role),
		slog.Int("length", length),
	)
}

// DeliveryError logs a failed outbound message delivery. Delivery is
// fire-and-forget, so this is the only trace a failure leaves.
func (l *Logger) DeliveryError(phone string, err error) {
	l.Error("delivery_error",
		slog.String("phone", phone),
		slog.String("error", err.Error()),
	)
}

// NotesRepaired logs a self-healing rewrite of a corrupted notes bag.
func (l *Logger) NotesRepaired(actorID string, strippedKeys int) {
	l.Warn("notes_repaired",
		slog.String("actor_id", actorID),
		slog.Int("stripped_keys", strippedKeys),
	)
}

// HandlerFault logs a recovered panic from an internal chat handler.
func (l *Logger) HandlerFault(handlerName string, recovered any) {
	l.Error("handler_fault",
		slog.String("handler", handlerName),
		slog.Any("panic", recovered),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
