// Package leads provides the lead bounded context: the repository used
// by the chat dispatcher and the read API used by the dashboard.
package leads

import (
	apphttp "inmochat_backend/internal/http"
	"inmochat_backend/internal/leads/handler"
	"inmochat_backend/internal/leads/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	repo    *repository.Repository
	handler *handler.Handler
}

// NewModule creates and initializes the leads module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{
		repo:    repo,
		handler: handler.New(repo),
	}
}

// Repository exposes the repo for composition-root wiring into the
// chat dispatcher.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the read API on the API-key protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Bridge.Group("/leads")
	group.GET("", m.handler.HandleSearch)
	group.GET("/:leadId", m.handler.HandleGet)
	group.GET("/:leadId/notes", m.handler.HandleListNotes)
	group.GET("/:leadId/activity", m.handler.HandleListActivity)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
