package events

import (
	platformevents "inmochat_backend/platform/events"

	"github.com/google/uuid"
)

// Event name constants.
const (
	NameLeadStageChanged = "lead.stage_changed"
	NameDocsRequested    = "lead.docs_requested"
)

// LeadStageChanged is published after a funnel transition commits.
type LeadStageChanged struct {
	platformevents.BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	ActorID   uuid.UUID `json:"actorId"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	Score     int       `json:"score"`
}

func (LeadStageChanged) EventName() string { return NameLeadStageChanged }

// DocsRequested is published when an advisor asks a lead for
// mortgage documents.
type DocsRequested struct {
	platformevents.BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ActorID uuid.UUID `json:"actorId"`
}

func (DocsRequested) EventName() string { return NameDocsRequested }
