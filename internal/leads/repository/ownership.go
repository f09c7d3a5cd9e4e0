package repository

import (
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ResolveOwnership collapses the three historical ownership sources
// into one answer with a fixed precedence: the assignment column wins,
// then the secondary owner marker in the notes bag, then a nested
// continuation-context reference left by asynchronous flows (e.g.
// mortgage underwriting). Returns false when nobody owns the lead.
func ResolveOwnership(lead Lead) (uuid.UUID, bool) {
	if lead.AssignedTo != nil {
		return *lead.AssignedTo, true
	}

	if id, err := uuid.Parse(gjson.Get(lead.Notes, "owner_id").String()); err == nil {
		return id, true
	}

	if id, err := uuid.Parse(gjson.Get(lead.Notes, "context.actor_id").String()); err == nil {
		return id, true
	}

	return uuid.Nil, false
}

// OwnedBy reports whether the member owns the lead under the resolved
// precedence.
func OwnedBy(lead Lead, memberID uuid.UUID) bool {
	owner, ok := ResolveOwnership(lead)
	return ok && owner == memberID
}
