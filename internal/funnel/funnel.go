// Package funnel implements the sales funnel stage machine: the
// canonical ordered stage list, legacy alias resolution, next/prev
// movement with clamping, and the stage-derived lead score.
package funnel

import "strings"

// Canonical stages, in pipeline order.
const (
	StageNew         = "new"
	StageContacted   = "contacted"
	StageQualified   = "qualified"
	StageScheduled   = "scheduled"
	StageVisited     = "visited"
	StageNegotiation = "negotiation"
	StageReserved    = "reserved"
	StageClosed      = "closed"
	StageDelivered   = "delivered"

	// StageLost is terminal and sits outside the ordered path.
	StageLost = "lost"
)

// Credit-flow statuses. These live outside the sales funnel ordering
// but participate in the rejected→prev special case.
const (
	StageRejected    = "rejected"
	StagePreApproved = "pre_approved"
)

// Ordered is the canonical pipeline, first to last.
var Ordered = []string{
	StageNew,
	StageContacted,
	StageQualified,
	StageScheduled,
	StageVisited,
	StageNegotiation,
	StageReserved,
	StageClosed,
	StageDelivered,
}

// aliases maps legacy spellings still present in stored lead rows to
// canonical stages. Resolution runs before any ordinal comparison.
var aliases = map[string]string{
	"nuevo":           StageNew,
	"contactado":      StageContacted,
	"calificado":      StageQualified,
	"visit_scheduled": StageScheduled,
	"cita_agendada":   StageScheduled,
	"cita agendada":   StageScheduled,
	"visitado":        StageVisited,
	"negotiating":     StageNegotiation,
	"negociacion":     StageNegotiation,
	"negociación":     StageNegotiation,
	"apartado":        StageReserved,
	"sold":            StageClosed,
	"vendido":         StageClosed,
	"cerrado":         StageClosed,
	"entregado":       StageDelivered,
	"perdido":         StageLost,
	"inactive":        StageLost,
	"rechazado":       StageRejected,
	"preaprobado":     StagePreApproved,
	"pre-aprobado":    StagePreApproved,
}

var ordinals = func() map[string]int {
	m := make(map[string]int, len(Ordered))
	for i, s := range Ordered {
		m[s] = i
	}
	return m
}()

// scores is the stage→score table. The score is a derived
// temperature used by reporting; it rides along with every status
// update so the two never disagree.
var scores = map[string]int{
	StageNew:         10,
	StageContacted:   20,
	StageQualified:   35,
	StageScheduled:   50,
	StageVisited:     60,
	StageNegotiation: 75,
	StageReserved:    85,
	StageClosed:      95,
	StageDelivered:   100,
	StageLost:        0,
}

// ResolveStage normalizes a raw status through the alias map. The
// second return reports whether the result is a known canonical stage
// (including lost and the credit statuses).
func ResolveStage(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := aliases[s]; ok {
		s = canonical
	}
	if _, ok := ordinals[s]; ok {
		return s, true
	}
	switch s {
	case StageLost, StageRejected, StagePreApproved:
		return s, true
	}
	return s, false
}

// InFunnel reports whether the raw status resolves to a stage on the
// ordered path.
func InFunnel(raw string) bool {
	s, _ := ResolveStage(raw)
	_, ok := ordinals[s]
	return ok
}

// Direction of a relative stage move.
type Direction int

const (
	Next Direction = iota
	Prev
)

// Move is the result of a relative stage transition.
type Move struct {
	// From is the alias-resolved stage the lead was on.
	From string
	// NewStage is the stage after the move.
	NewStage string
	// Noop is true when the move would not change the ordinal. A noop
	// is a successful, reportable outcome, not an error.
	Noop bool
}

// Advance moves a lead's status one step along the funnel. Statuses
// outside the ordered path fall back to an explicit re-entry point:
// next lands on contacted, prev lands on new — except the credit
// flow's rejected, where prev returns the lead to pre_approved rather
// than restarting the funnel. Both fallbacks are deliberate,
// independent policies; do not unify them.
func Advance(rawStatus string, dir Direction) Move {
	current, _ := ResolveStage(rawStatus)

	idx, ok := ordinals[current]
	if !ok {
		if current == StageRejected && dir == Prev {
			return Move{From: current, NewStage: StagePreApproved}
		}
		if dir == Next {
			return Move{From: current, NewStage: StageContacted}
		}
		return Move{From: current, NewStage: StageNew}
	}

	target := idx
	if dir == Next {
		target++
	} else {
		target--
	}
	if target < 0 {
		target = 0
	}
	if target > len(Ordered)-1 {
		target = len(Ordered) - 1
	}

	if target == idx {
		return Move{From: current, NewStage: current, Noop: true}
	}
	return Move{From: current, NewStage: Ordered[target]}
}

// SetDirect validates a requested target stage name, resolving aliases.
// Unknown names are rejected with ok=false; the caller reports the
// rejection to the actor, nothing is thrown.
func SetDirect(targetName string) (string, bool) {
	s, known := ResolveStage(targetName)
	if !known {
		return "", false
	}
	return s, true
}

// ScoreFor returns the derived lead score for a raw status. Statuses
// outside the score table keep a neutral zero.
func ScoreFor(rawStatus string) int {
	s, _ := ResolveStage(rawStatus)
	return scores[s]
}

// Label returns the human-facing Spanish label for a canonical stage.
func Label(stage string) string {
	switch stage {
	case StageNew:
		return "Nuevo"
	case StageContacted:
		return "Contactado"
	case StageQualified:
		return "Calificado"
	case StageScheduled:
		return "Cita agendada"
	case StageVisited:
		return "Visitado"
	case StageNegotiation:
		return "Negociación"
	case StageReserved:
		return "Apartado"
	case StageClosed:
		return "Cerrado"
	case StageDelivered:
		return "Entregado"
	case StageLost:
		return "Perdido"
	case StageRejected:
		return "Rechazado"
	case StagePreApproved:
		return "Pre-aprobado"
	}
	return stage
}
