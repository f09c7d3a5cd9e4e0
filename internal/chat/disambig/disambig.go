// Package disambig resolves a fuzzy lead lookup into exactly one of
// three outcomes: none, unique, or ambiguous. Every "act on a lead by
// name or phone" flow goes through it.
package disambig

import (
	"strings"

	"inmochat_backend/platform/phone"
)

// Outcome of a resolution.
type Outcome int

const (
	None Outcome = iota
	Unique
	Ambiguous
)

// Entry is the minimal view of a lead the matcher needs.
type Entry interface {
	MatchName() string
	MatchPhone() string
}

// Resolution is the result of resolving a query against candidates.
type Resolution[T Entry] struct {
	Outcome Outcome
	// Item is set when Outcome == Unique.
	Item T
	// Items holds the matches, in input order, when Outcome == Ambiguous.
	Items []T
}

// minPhoneDigits avoids over-matching short digit runs.
const minPhoneDigits = 4

// Resolve matches query against candidates: case-insensitive substring
// on name, or exact digit-suffix on phone when the query is at least
// four digits. An exact case-insensitive name match wins outright even
// when other candidates substring-match, so repeated disambiguation
// converges instead of re-prompting.
func Resolve[T Entry](query string, candidates []T) Resolution[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Resolution[T]{Outcome: None}
	}
	qDigits := phone.Digits(q)

	var matches []T
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.MatchName()))
		if name == q {
			return Resolution[T]{Outcome: Unique, Item: c}
		}
		if name != "" && strings.Contains(name, q) {
			matches = append(matches, c)
			continue
		}
		if len(qDigits) >= minPhoneDigits && strings.HasSuffix(phone.Digits(c.MatchPhone()), qDigits) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution[T]{Outcome: None}
	case 1:
		return Resolution[T]{Outcome: Unique, Item: matches[0]}
	default:
		return Resolution[T]{Outcome: Ambiguous, Items: matches}
	}
}
