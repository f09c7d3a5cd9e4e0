// Package replies holds the canned Spanish reply catalog. Message
// wording is data, not code: handlers reference replies by key so the
// texts can change without touching dispatch logic.
package replies

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed replies.yaml
var rawCatalog []byte

// Catalog resolves reply keys to rendered message text.
type Catalog struct {
	messages map[string]string
}

// Load parses the embedded catalog. It is called once at startup; a
// broken catalog is a build artifact problem and fails fast.
func Load() (*Catalog, error) {
	messages := make(map[string]string)
	if err := yaml.Unmarshal(rawCatalog, &messages); err != nil {
		return nil, fmt.Errorf("parse reply catalog: %w", err)
	}
	return &Catalog{messages: messages}, nil
}

// MustLoad is Load for composition roots.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Render formats the reply for key with positional args. An unknown
// key renders as the key itself so a missing entry is visible in chat
// instead of silently blank.
func (c *Catalog) Render(key string, args ...any) string {
	msg, ok := c.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Reply keys.
const (
	KeyNotFound             = "not_found"
	KeyGenericError         = "generic_error"
	KeySelectionPrompt      = "selection_prompt"
	KeySelectionExpired     = "selection_expired"
	KeyStageMoved           = "stage_moved"
	KeyStageNoop            = "stage_noop"
	KeyStageSet             = "stage_set"
	KeyStageUnknown         = "stage_unknown"
	KeyNoteAdded            = "note_added"
	KeyNoNotes              = "no_notes"
	KeyNoLeads              = "no_leads"
	KeyDocsSent             = "docs_sent"
	KeyCitaPromptCancel     = "cita_prompt_cancel"
	KeyCitaPromptReschedule = "cita_prompt_reschedule"
	KeyCitaCancelled        = "cita_cancelled"
	KeyCitaRescheduled      = "cita_rescheduled"
	KeyQuestionRelayed      = "question_relayed"
	KeyNoQuestion           = "no_question"
)
