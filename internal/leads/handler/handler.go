// Package handler exposes the leads read API consumed by the office
// dashboard. Mutations stay on the chat channel; this surface is for
// looking things up.
package handler

import (
	"net/http"
	"strings"
	"time"

	"inmochat_backend/internal/funnel"
	"inmochat_backend/internal/leads/repository"
	"inmochat_backend/platform/apperr"
	"inmochat_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Stage      string     `json:"stage"`
	StageLabel string     `json:"stageLabel"`
	Score      int        `json:"score"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type NoteResponse struct {
	ID         uuid.UUID `json:"id"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ActivityResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   *uuid.UUID     `json:"actorId,omitempty"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func toLeadResponse(l repository.Lead) LeadResponse {
	stage, _ := funnel.ResolveStage(l.Status)
	return LeadResponse{
		ID:         l.ID,
		Name:       l.Name,
		Phone:      l.Phone,
		Stage:      stage,
		StageLabel: funnel.Label(stage),
		Score:      l.Score,
		AssignedTo: l.AssignedTo,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// HandleSearch searches leads by name or phone suffix.
// GET /api/v1/leads?q=
func (h *Handler) HandleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing query parameter q", nil)
		return
	}

	leads, err := h.repo.Search(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]LeadResponse, len(leads))
	for i, l := range leads {
		out[i] = toLeadResponse(l)
	}
	httpkit.OK(c, gin.H{"leads": out})
}

// HandleGet returns one lead.
// GET /api/v1/leads/:leadId
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	lead, err := h.repo.GetByID(c.Request.Context(), id)
	if err == repository.ErrNotFound {
		httpkit.HandleError(c, apperr.NotFound("lead not found"))
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(lead))
}

// HandleListNotes returns the newest notes for a lead.
// GET /api/v1/leads/:leadId/notes
func (h *Handler) HandleListNotes(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	notes, err := h.repo.ListLeadNotes(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = NoteResponse{ID: n.ID, AuthorName: n.AuthorName, Body: n.Body, CreatedAt: n.CreatedAt}
	}
	httpkit.OK(c, gin.H{"notes": out})
}

// HandleListActivity returns the newest timeline rows for a lead.
// GET /api/v1/leads/:leadId/activity
func (h *Handler) HandleListActivity(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	activity, err := h.repo.ListActivity(c.Request.Context(), id, 50)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]ActivityResponse, len(activity))
	for i, a := range activity {
		out[i] = ActivityResponse{ID: a.ID, ActorID: a.ActorID, Action: a.Action, Meta: a.Meta, CreatedAt: a.CreatedAt}
	}
	httpkit.OK(c, gin.H{"activity": out})
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
