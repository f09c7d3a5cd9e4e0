// Package roles classifies the free-text role string stored on a team
// member into a closed enum. Classification happens once at the
// boundary; everything downstream works with the typed Role.
package roles

import "strings"

// Role is the typed team role derived from the stored role string.
type Role int

const (
	Unknown Role = iota
	Vendor
	Advisor
	Coordinator
	CEO
	Admin
)

// adminTokens mark a role string as admin-scoped regardless of the
// rest of its content.
var adminTokens = []string{"ceo", "admin", "director", "gerente", "owner", "dueño"}

// Classify maps a raw role string to a Role. CEO wins over the generic
// admin tokens so that reporting can distinguish the two.
func Classify(raw string) Role {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Unknown
	}

	if strings.Contains(s, "ceo") {
		return CEO
	}
	for _, tok := range adminTokens {
		if strings.Contains(s, tok) {
			return Admin
		}
	}

	switch {
	case strings.Contains(s, "asesor") || strings.Contains(s, "advisor") || strings.Contains(s, "credito") || strings.Contains(s, "crédito"):
		return Advisor
	case strings.Contains(s, "coordinador") || strings.Contains(s, "coordinator"):
		return Coordinator
	case strings.Contains(s, "vendedor") || strings.Contains(s, "vendor") || strings.Contains(s, "ventas"):
		return Vendor
	}
	return Unknown
}

// IsAdmin reports whether the role bypasses the "only leads assigned
// to me" filter in lookups.
func (r Role) IsAdmin() bool {
	return r == CEO || r == Admin
}

func (r Role) String() string {
	switch r {
	case Vendor:
		return "vendor"
	case Advisor:
		return "advisor"
	case Coordinator:
		return "coordinator"
	case CEO:
		return "ceo"
	case Admin:
		return "admin"
	}
	return "unknown"
}
