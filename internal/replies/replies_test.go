package replies

import (
	"strings"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	keys := []string{
		KeyNotFound, KeyGenericError, KeySelectionPrompt, KeyStageMoved,
		KeyStageNoop, KeyStageSet, KeyNoteAdded, KeyNoLeads, KeyDocsSent,
		KeyCitaPromptCancel, KeyCitaCancelled, KeyQuestionRelayed,
	}
	for _, k := range keys {
		if c.Render(k) == k {
			t.Errorf("catalog missing key %q", k)
		}
	}
}

func TestRenderWithArgs(t *testing.T) {
	c := MustLoad()

	got := c.Render(KeyStageMoved, "Juan", "Negociación", "Apartado")
	for _, want := range []string{"Juan", "Negociación", "Apartado"} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered %q missing %q", got, want)
		}
	}

	if got := c.Render("missing_key"); got != "missing_key" {
		t.Errorf("unknown key should render as itself, got %q", got)
	}
}
