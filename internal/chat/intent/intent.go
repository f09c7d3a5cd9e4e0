// Package intent turns one inbound chat message into exactly one
// Intent: a canned reply, a named handler invocation with params, or
// unrecognized. Routing is an ordered rule list evaluated top to
// bottom, first match wins; that ordering is the conflict-resolution
// algorithm, so more specific rules must be declared before general
// ones that would shadow them.
package intent

// Kind discriminates the Intent union.
type Kind int

const (
	// Unrecognized means no rule fired; the dispatcher sends help text.
	Unrecognized Kind = iota
	// Reply carries canned text to send back as-is.
	Reply
	// Invoke names a handler (internal or external) with params.
	Invoke
)

// Intent is the resolved meaning of one inbound message. It is
// ephemeral, never persisted.
type Intent struct {
	Kind        Kind
	Text        string
	HandlerName string
	Params      map[string]string
}

// ReplyIntent builds a canned-text intent.
func ReplyIntent(text string) Intent {
	return Intent{Kind: Reply, Text: text}
}

// InvokeIntent builds a handler invocation intent.
func InvokeIntent(handler string, params map[string]string) Intent {
	if params == nil {
		params = map[string]string{}
	}
	return Intent{Kind: Invoke, HandlerName: handler, Params: params}
}
