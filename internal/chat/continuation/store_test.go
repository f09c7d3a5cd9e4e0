package continuation

import (
	"context"
	"testing"
	"time"

	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type fakeNotes struct {
	bags map[uuid.UUID]string
}

func (f *fakeNotes) GetMemberNotes(_ context.Context, id uuid.UUID) (string, error) {
	return f.bags[id], nil
}

func (f *fakeNotes) SetMemberNotes(_ context.Context, id uuid.UUID, notes string) error {
	f.bags[id] = notes
	return nil
}

type fakeTTLs struct{}

func (fakeTTLs) GetPendingSelectionTTL() time.Duration { return 30 * time.Minute }
func (fakeTTLs) GetPendingCitaTTL() time.Duration      { return 30 * time.Minute }
func (fakeTTLs) GetPendingQuestionTTL() time.Duration  { return 48 * time.Hour }

func newTestStore(bags map[uuid.UUID]string) (*Store, *fakeNotes) {
	notes := &fakeNotes{bags: bags}
	return NewStore(notes, fakeTTLs{}, logger.New("development")), notes
}

func TestSaveThenLoadPending(t *testing.T) {
	actor := uuid.New()
	store, _ := newTestStore(map[uuid.UUID]string{actor: `{"nota":"humana"}`})

	cands := []Candidate{{ID: uuid.New(), Name: "Juan Pérez"}, {ID: uuid.New(), Name: "Juana García"}}
	if err := store.Save(context.Background(), actor, Action{Kind: KindLeadSelection, Candidates: cands}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _, err := store.LoadPending(context.Background(), actor)
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if got == nil || got.Kind != KindLeadSelection || len(got.Candidates) != 2 {
		t.Fatalf("unexpected pending action: %+v", got)
	}
	if got.ExpiresAt.Sub(got.CreatedAt) != 30*time.Minute {
		t.Errorf("selection TTL = %v, want 30m", got.ExpiresAt.Sub(got.CreatedAt))
	}
}

func TestSavePreservesHumanNotes(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{"nota":"no tocar"}`})

	if err := store.Save(context.Background(), actor, Action{Kind: KindVendorQuestion, LeadName: "Juan"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if gjson.Get(notes.bags[actor], "nota").String() != "no tocar" {
		t.Errorf("human annotation lost: %s", notes.bags[actor])
	}
}

func TestLoadPendingHealsMalformedBag(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{"0":"corrupt","nota":"ok"}`})

	got, _, err := store.LoadPending(context.Background(), actor)
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no pending action, got %+v", got)
	}
	// The cleaned bag must have been written back.
	if notes.bags[actor] != `{"nota":"ok"}` {
		t.Errorf("bag not healed on read: %s", notes.bags[actor])
	}
}

func TestLoadPendingInvalidJSONDegrades(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{broken`})

	got, _, err := store.LoadPending(context.Background(), actor)
	if err != nil || got != nil {
		t.Fatalf("malformed bag must degrade silently, got %+v err=%v", got, err)
	}
	if notes.bags[actor] != `{}` {
		t.Errorf("bag not reset: %s", notes.bags[actor])
	}
}

func TestLoadPendingDropsExpired(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{}`})

	if err := store.Save(context.Background(), actor, Action{Kind: KindCitaAction, CitaAction: CitaCancel}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	got, expired, err := store.LoadPending(context.Background(), actor)
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if got != nil {
		t.Fatalf("expired action should be absent, got %+v", got)
	}
	if len(expired) != 1 || expired[0] != KindCitaAction {
		t.Errorf("expired kinds = %v, want [%s]", expired, KindCitaAction)
	}
	if gjson.Get(notes.bags[actor], slotPath(KindCitaAction)).Exists() {
		t.Error("expired action should be deleted from the bag")
	}
}

func TestResolveClearsOnlyMatchingKind(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{}`})

	if err := store.Save(context.Background(), actor, Action{Kind: KindLeadSelection}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Resolve(context.Background(), actor, KindCitaAction); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !gjson.Get(notes.bags[actor], slotPath(KindLeadSelection)).Exists() {
		t.Fatal("mismatched kind must not clear the pending action")
	}

	if err := store.Resolve(context.Background(), actor, KindLeadSelection); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gjson.Get(notes.bags[actor], slotPath(KindLeadSelection)).Exists() {
		t.Fatal("matching kind must clear the pending action")
	}
}

func TestKindsCoexist(t *testing.T) {
	actor := uuid.New()
	store, _ := newTestStore(map[uuid.UUID]string{actor: `{}`})
	ctx := context.Background()

	if err := store.Save(ctx, actor, Action{Kind: KindVendorQuestion, LeadName: "Juan", FromPhone: "+525511112222"}); err != nil {
		t.Fatalf("Save question: %v", err)
	}
	if err := store.Save(ctx, actor, Action{Kind: KindLeadSelection, Candidates: []Candidate{{Name: "a"}, {Name: "b"}}}); err != nil {
		t.Fatalf("Save selection: %v", err)
	}

	// The transient selection wins precedence.
	got, _, err := store.LoadPending(ctx, actor)
	if err != nil || got == nil || got.Kind != KindLeadSelection {
		t.Fatalf("LoadPending = %+v err=%v, want lead_selection", got, err)
	}

	// The question is still reachable by kind.
	q, err := store.LoadPendingKind(ctx, actor, KindVendorQuestion)
	if err != nil || q == nil || q.LeadName != "Juan" {
		t.Fatalf("LoadPendingKind = %+v err=%v, want the saved question", q, err)
	}

	// Consuming the selection leaves the question alone.
	if err := store.Resolve(ctx, actor, KindLeadSelection); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	q, err = store.LoadPendingKind(ctx, actor, KindVendorQuestion)
	if err != nil || q == nil {
		t.Fatalf("question lost after resolving the selection: %+v err=%v", q, err)
	}
	if got, _, err := store.LoadPending(ctx, actor); err != nil || got == nil || got.Kind != KindVendorQuestion {
		t.Fatalf("LoadPending after resolve = %+v err=%v, want vendor_question", got, err)
	}
}

func TestLoadPendingSweepsAllExpiredSlots(t *testing.T) {
	actor := uuid.New()
	store, notes := newTestStore(map[uuid.UUID]string{actor: `{}`})
	ctx := context.Background()

	if err := store.Save(ctx, actor, Action{Kind: KindLeadSelection, Candidates: []Candidate{{Name: "a"}}}); err != nil {
		t.Fatalf("Save selection: %v", err)
	}
	if err := store.Save(ctx, actor, Action{Kind: KindCitaAction, CitaAction: CitaCancel, Candidates: []Candidate{{Name: "a"}}}); err != nil {
		t.Fatalf("Save cita: %v", err)
	}

	// Both transient kinds lapse; the load clears every dead slot, not
	// just the first one it reports on.
	store.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	got, expired, err := store.LoadPending(ctx, actor)
	if err != nil || got != nil {
		t.Fatalf("LoadPending = %+v err=%v, want nothing", got, err)
	}
	if len(expired) != 2 {
		t.Errorf("expired kinds = %v, want both transient kinds", expired)
	}
	for _, kind := range []string{KindLeadSelection, KindCitaAction} {
		if gjson.Get(notes.bags[actor], slotPath(kind)).Exists() {
			t.Errorf("expired %s slot survived the load", kind)
		}
	}
}

func TestMatchSelection(t *testing.T) {
	a := Action{
		Kind: KindLeadSelection,
		Candidates: []Candidate{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
		},
	}

	if got, ok := a.MatchSelection("2"); !ok || got.Name != "b" {
		t.Errorf(`MatchSelection("2") = %+v, %v`, got, ok)
	}
	if got, ok := a.MatchSelection(" 3 "); !ok || got.Name != "c" {
		t.Errorf(`MatchSelection(" 3 ") = %+v, %v`, got, ok)
	}
	for _, input := range []string{"0", "5", "-1", "dos", "", "1.5"} {
		if _, ok := a.MatchSelection(input); ok {
			t.Errorf("MatchSelection(%q) should not match", input)
		}
	}

	question := Action{Kind: KindVendorQuestion}
	if _, ok := question.MatchSelection("1"); ok {
		t.Error("vendor_question must not consume numeric replies")
	}
}
