// Package continuation persists per-actor pending actions: single-use
// state describing what the next message from a team member is
// expected to resolve. The state lives under a well-known key inside
// the member's notes JSON bag, alongside free-text annotations this
// package must never disturb.
package continuation

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pending action kinds. At most one action of a given kind exists per
// actor; the next message that matches its expected shape consumes it.
// Different kinds coexist: a disambiguation prompt must not clobber an
// open vendor question.
const (
	KindLeadSelection  = "lead_selection"
	KindCitaAction     = "cita_action"
	KindVendorQuestion = "vendor_question"
)

// pendingRoot is the reserved key inside the notes bag; each kind gets
// its own slot below it.
const pendingRoot = "pending_actions"

// kindPrecedence orders slots for LoadPending. Transient prompts come
// before the vendor question so a numeric reply resolves the selection
// that asked for it.
var kindPrecedence = []string{KindLeadSelection, KindCitaAction, KindVendorQuestion}

func slotPath(kind string) string {
	return pendingRoot + "." + kind
}

// Candidate is one entry of a disambiguation list, stored in the exact
// order it was presented so numeric replies stay stable.
type Candidate struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CitaActionKind values for Action.CitaAction.
const (
	CitaCancel     = "cancel"
	CitaReschedule = "reschedule"
)

// Action is the tagged union of pending action variants.
type Action struct {
	Kind string `json:"kind"`

	// Candidates carries the presented list for lead_selection and
	// cita_action variants.
	Candidates []Candidate `json:"candidates,omitempty"`

	// CitaAction is cancel or reschedule, for cita_action.
	CitaAction string `json:"action,omitempty"`

	// Vendor question relay fields.
	SolicitudID string `json:"solicitudId,omitempty"`
	LeadName    string `json:"leadName,omitempty"`
	FromPhone   string `json:"fromPhone,omitempty"`

	// SelectHandler names the internal handler to resume once a
	// lead_selection is answered, with its original params.
	SelectHandler string            `json:"selectHandler,omitempty"`
	SelectParams  map[string]string `json:"selectParams,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the action's TTL has lapsed.
func (a *Action) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && now.After(a.ExpiresAt)
}

// MatchSelection interprets inbound text in the shape a lead_selection
// expects: a bare positive integer in [1, len(candidates)]. Anything
// else does not match and the caller falls through to normal routing,
// leaving the pending action intact.
func (a *Action) MatchSelection(text string) (Candidate, bool) {
	if a.Kind != KindLeadSelection && a.Kind != KindCitaAction {
		return Candidate{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return Candidate{}, false
	}
	if n < 1 || n > len(a.Candidates) {
		return Candidate{}, false
	}
	return a.Candidates[n-1], true
}
