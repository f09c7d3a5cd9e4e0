// Package webhook provides the inbound WhatsApp message bounded context.
// The gowa bridge posts everything received on the company number here;
// the service resolves the sender to a team member and hands the text
// to the chat dispatcher.
package webhook

import (
	apphttp "inmochat_backend/internal/http"
	"inmochat_backend/platform/logger"
	"inmochat_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(members MemberResolver, chat ChatDispatcher, replier Replier, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(members, chat, replier, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Bridge.POST("/webhook/messages", m.handler.HandleInboundMessage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
