// Package team provides the team-member bounded context: the roster of
// vendors, advisors and admins who drive the CRM over chat.
package team

import (
	"time"

	"inmochat_backend/internal/chat/roles"
	apphttp "inmochat_backend/internal/http"
	"inmochat_backend/internal/team/repository"
	"inmochat_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the team bounded context module implementing http.Module.
type Module struct {
	repo *repository.Repository
}

// NewModule creates and initializes the team module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{repo: repository.New(pool)}
}

// Repository exposes the repo for composition-root wiring: the
// continuation store, dispatcher and webhook all read from it.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "team"
}

// MemberResponse is the wire shape of a roster entry. RoleClass is the
// classified role, Role the raw stored string.
type MemberResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	RoleClass string    `json:"roleClass"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRoutes mounts the roster read API on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Bridge.GET("/team", m.handleList)
}

func (m *Module) handleList(c *gin.Context) {
	members, err := m.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]MemberResponse, len(members))
	for i, member := range members {
		out[i] = MemberResponse{
			ID:        member.ID,
			Name:      member.Name,
			Role:      member.Role,
			RoleClass: roles.Classify(member.Role).String(),
			Phone:     member.Phone,
			CreatedAt: member.CreatedAt,
		}
	}
	httpkit.OK(c, gin.H{"members": out})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
