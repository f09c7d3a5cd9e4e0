package intent

import (
	"regexp"
	"strings"

	"inmochat_backend/internal/chat/roles"
)

// Matcher is a predicate over the trimmed message. It returns the
// positional captures (index 0 is the full match) when it fires.
// Matching is case-insensitive but captures keep the original casing,
// so free-text arguments like note bodies survive intact.
type Matcher func(text string) ([]string, bool)

// Builder turns a matcher's captures into an Intent.
type Builder func(captures []string) Intent

// Rule pairs a matcher with its intent builder. Rules are evaluated in
// declaration order.
type Rule struct {
	Name  string
	Match Matcher
	Build Builder
}

// Router routes messages for one role surface.
type Router struct {
	rules []Rule
	help  string
}

// NewRouter builds a router over an ordered rule list. helpText is the
// role-appropriate fallback for unrecognized input.
func NewRouter(rules []Rule, helpText string) *Router {
	return &Router{rules: rules, help: helpText}
}

// Route resolves rawText to exactly one Intent. It is pure: no side
// effects, never an error — unmatched input is a normal outcome.
func (r *Router) Route(rawText string) Intent {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Intent{Kind: Unrecognized, Text: r.help}
	}

	for _, rule := range r.rules {
		if captures, ok := rule.Match(text); ok {
			return rule.Build(captures)
		}
	}
	return Intent{Kind: Unrecognized, Text: r.help}
}

// ForRole returns the rule table for a classified role. Admin surfaces
// see the CEO table; unknown roles get the vendor table, the most
// restrictive one.
func ForRole(role roles.Role) *Router {
	switch role {
	case roles.Advisor:
		return advisorRouter
	case roles.CEO, roles.Admin:
		return ceoRouter
	default:
		return vendorRouter
	}
}

// =============================================================================
// Matcher constructors
// =============================================================================

// Exact matches when the lowercased message equals one of the words.
func Exact(words ...string) Matcher {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return func(text string) ([]string, bool) {
		if _, ok := set[strings.ToLower(text)]; ok {
			return []string{text}, true
		}
		return nil, false
	}
}

// Pattern matches an anchored, case-insensitive regular expression and
// returns its capture groups with original casing.
func Pattern(expr string) Matcher {
	re := regexp.MustCompile(`(?i)^` + expr + `$`)
	return func(text string) ([]string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		return m, true
	}
}
