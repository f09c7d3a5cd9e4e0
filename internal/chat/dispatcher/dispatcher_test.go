package dispatcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"inmochat_backend/internal/chat/continuation"
	"inmochat_backend/internal/events"
	leadrepo "inmochat_backend/internal/leads/repository"
	"inmochat_backend/internal/replies"
	teamrepo "inmochat_backend/internal/team/repository"
	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
)

// ------------------------------------------------------------------
// Fakes
// ------------------------------------------------------------------

type fakeLeads struct {
	leads   map[uuid.UUID]*leadrepo.Lead
	notes   map[uuid.UUID][]leadrepo.LeadNote
	updates []string
	panicOn string // handler trigger for the panic-barrier test
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	if l, ok := f.leads[id]; ok {
		return *l, nil
	}
	return leadrepo.Lead{}, leadrepo.ErrNotFound
}

func (f *fakeLeads) all() []leadrepo.Lead {
	out := make([]leadrepo.Lead, 0, len(f.leads))
	for _, l := range f.leads {
		out = append(out, *l)
	}
	return out
}

func (f *fakeLeads) ListByOwner(_ context.Context, memberID uuid.UUID) ([]leadrepo.Lead, error) {
	var out []leadrepo.Lead
	for _, l := range f.leads {
		if leadrepo.OwnedBy(*l, memberID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLeads) ListAll(_ context.Context) ([]leadrepo.Lead, error) {
	if f.panicOn == "ListAll" {
		panic("boom")
	}
	return f.all(), nil
}

func (f *fakeLeads) UpdateStatus(_ context.Context, id uuid.UUID, status string, score int) (leadrepo.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	l.Status = status
	l.Score = score
	f.updates = append(f.updates, status)
	return *l, nil
}

func (f *fakeLeads) CreateLeadNote(_ context.Context, leadID, authorID uuid.UUID, body string) (leadrepo.LeadNote, error) {
	note := leadrepo.LeadNote{ID: uuid.New(), LeadID: leadID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}
	f.notes[leadID] = append(f.notes[leadID], note)
	return note, nil
}

func (f *fakeLeads) ListLeadNotes(_ context.Context, leadID uuid.UUID) ([]leadrepo.LeadNote, error) {
	return f.notes[leadID], nil
}

func (f *fakeLeads) AddActivity(context.Context, uuid.UUID, *uuid.UUID, string, map[string]any) error {
	return nil
}

func (f *fakeLeads) ListActivity(context.Context, uuid.UUID, int) ([]leadrepo.Activity, error) {
	return nil, nil
}

type fakeMembers struct {
	members map[uuid.UUID]teamrepo.Member
}

func (f *fakeMembers) GetByID(_ context.Context, id uuid.UUID) (teamrepo.Member, error) {
	if m, ok := f.members[id]; ok {
		return m, nil
	}
	return teamrepo.Member{}, teamrepo.ErrNotFound
}

type fakeNotes struct {
	bags map[uuid.UUID]string
}

func (f *fakeNotes) GetMemberNotes(_ context.Context, id uuid.UUID) (string, error) {
	if bag, ok := f.bags[id]; ok {
		return bag, nil
	}
	return "{}", nil
}

func (f *fakeNotes) SetMemberNotes(_ context.Context, id uuid.UUID, notes string) error {
	f.bags[id] = notes
	return nil
}

type fakeTTLs struct{}

func (fakeTTLs) GetPendingSelectionTTL() time.Duration { return 30 * time.Minute }
func (fakeTTLs) GetPendingCitaTTL() time.Duration      { return 30 * time.Minute }
func (fakeTTLs) GetPendingQuestionTTL() time.Duration  { return 48 * time.Hour }

type sentMessage struct {
	phone string
	text  string
}

type fakeMessenger struct {
	sent []sentMessage
}

func (f *fakeMessenger) SendMessage(_ context.Context, phone, text string) error {
	f.sent = append(f.sent, sentMessage{phone, text})
	return nil
}

// ------------------------------------------------------------------
// Harness
// ------------------------------------------------------------------

type harness struct {
	d     *Dispatcher
	leads *fakeLeads
	msgr  *fakeMessenger
	notes *fakeNotes
	actor uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.New("development")
	actor := uuid.New()

	leads := &fakeLeads{leads: map[uuid.UUID]*leadrepo.Lead{}, notes: map[uuid.UUID][]leadrepo.LeadNote{}}
	members := &fakeMembers{members: map[uuid.UUID]teamrepo.Member{
		actor: {ID: actor, Name: "Ana Asesora", Role: "asesor de credito", Phone: "+525511112222"},
	}}
	notes := &fakeNotes{bags: map[uuid.UUID]string{}}
	cont := continuation.NewStore(notes, fakeTTLs{}, log)
	msgr := &fakeMessenger{}

	d := New(leads, members, cont, msgr, events.NewInMemoryBus(log), replies.MustLoad(), log)
	return &harness{d: d, leads: leads, msgr: msgr, notes: notes, actor: actor}
}

func (h *harness) addLead(name, phone, status string, owner uuid.UUID) uuid.UUID {
	id := uuid.New()
	l := &leadrepo.Lead{ID: id, Name: name, Phone: phone, Status: status, Notes: "{}"}
	if owner != uuid.Nil {
		l.AssignedTo = &owner
	}
	h.leads.leads[id] = l
	return id
}

// ------------------------------------------------------------------
// End-to-end scenarios
// ------------------------------------------------------------------

func TestDocsRequestEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "qualified", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "asesor de credito", "docs juan")

	if !strings.Contains(res.ResponseText, "Solicitud de documentos enviada") {
		t.Errorf("response = %q, want docs confirmation", res.ResponseText)
	}
	if res.NeedsExternalHandler {
		t.Error("docs request is an internal handler")
	}
	if len(h.msgr.sent) != 1 || h.msgr.sent[0].phone != "+525533334444" {
		t.Errorf("expected one message to the lead, got %+v", h.msgr.sent)
	}
}

func TestBareIntegerWithNothingPending(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "new", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "5")

	if res.HandlerInvoked != nil || res.NeedsExternalHandler {
		t.Errorf("bare integer must not invoke anything: %+v", res)
	}
	if !strings.Contains(res.ResponseText, "No entendí") {
		t.Errorf("response = %q, want help text", res.ResponseText)
	}
}

func TestStageAdvanceEndToEnd(t *testing.T) {
	h := newHarness(t)
	// Stored status is a legacy alias; it must resolve before moving.
	h.addLead("Juan Pérez", "+525533334444", "negotiating", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "adelante juan")

	if len(h.leads.updates) != 1 || h.leads.updates[0] != "reserved" {
		t.Fatalf("updates = %v, want [reserved]", h.leads.updates)
	}
	if !strings.Contains(res.ResponseText, "Negociación") || !strings.Contains(res.ResponseText, "Apartado") {
		t.Errorf("response %q should name both stages", res.ResponseText)
	}
}

func TestStageBoundaryNoop(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "delivered", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "adelante juan")

	if len(h.leads.updates) != 0 {
		t.Errorf("noop must not write, got updates %v", h.leads.updates)
	}
	if !strings.Contains(res.ResponseText, "ya está") {
		t.Errorf("response = %q, want noop message", res.ResponseText)
	}
}

func TestDisambiguationSelectionFlow(t *testing.T) {
	h := newHarness(t)
	first := h.addLead("Juan Pérez García", "+525511111111", "contacted", h.actor)
	second := h.addLead("Juan Carlos López", "+525522222222", "contacted", h.actor)
	_ = first

	// Ambiguous query prompts a numbered list and persists a pending
	// selection.
	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "adelante juan")
	if !strings.Contains(res.ResponseText, "1.") || !strings.Contains(res.ResponseText, "2.") {
		t.Fatalf("expected numbered prompt, got %q", res.ResponseText)
	}
	if len(h.leads.updates) != 0 {
		t.Fatal("no stage may move before the selection is answered")
	}

	// Out-of-range reply leaves the pending action intact and falls
	// through to routing.
	res = h.d.HandleMessage(context.Background(), h.actor, "vendedor", "5")
	if !strings.Contains(res.ResponseText, "No entendí") {
		t.Fatalf("out-of-range reply should fall through to help, got %q", res.ResponseText)
	}

	// Find which candidate is listed second; candidates keep
	// presentation order.
	prompt := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "adelante juan").ResponseText
	lines := strings.Split(prompt, "\n")
	secondName := strings.TrimPrefix(lines[2], "2. ")

	// A valid reply consumes the pending action and resumes the move.
	res = h.d.HandleMessage(context.Background(), h.actor, "vendedor", "2")
	if len(h.leads.updates) != 1 {
		t.Fatalf("selection should resume the stage move, updates=%v", h.leads.updates)
	}
	if !strings.Contains(res.ResponseText, secondName) {
		t.Errorf("response %q should be about %q", res.ResponseText, secondName)
	}
	_ = second

	// Exactly-once: replying again finds nothing pending.
	res = h.d.HandleMessage(context.Background(), h.actor, "vendedor", "2")
	if !strings.Contains(res.ResponseText, "No entendí") {
		t.Errorf("pending action must be consumed exactly once, got %q", res.ResponseText)
	}
}

func TestRoleScoping(t *testing.T) {
	h := newHarness(t)
	other := uuid.New()
	h.addLead("Juan Pérez", "+525533334444", "new", other)

	// A vendor cannot reach someone else's lead; the answer reads the
	// same as not-found.
	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "ver juan")
	if !strings.Contains(res.ResponseText, "No encontré") {
		t.Errorf("out-of-scope lookup must read as not found, got %q", res.ResponseText)
	}

	// An admin sees every lead.
	res = h.d.HandleMessage(context.Background(), h.actor, "Director Comercial", "ver juan")
	if !strings.Contains(res.ResponseText, "Juan Pérez") {
		t.Errorf("admin lookup failed: %q", res.ResponseText)
	}
}

func TestOwnershipThroughNotesBag(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	h.leads.leads[id] = &leadrepo.Lead{
		ID: id, Name: "María López", Phone: "+525599887766", Status: "contacted",
		Notes: `{"owner_id":"` + h.actor.String() + `"}`,
	}

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "ver maría")
	if !strings.Contains(res.ResponseText, "María López") {
		t.Errorf("secondary ownership marker not honored: %q", res.ResponseText)
	}
}

func TestExternalHandlerSignal(t *testing.T) {
	h := newHarness(t)
	res := h.d.HandleMessage(context.Background(), h.actor, "Director Comercial", "reporte")

	if !res.NeedsExternalHandler || res.HandlerInvoked == nil {
		t.Fatalf("expected external handler signal, got %+v", res)
	}
	if res.HandlerInvoked.Name != "generarReporte" {
		t.Errorf("handler = %q, want generarReporte", res.HandlerInvoked.Name)
	}
}

func TestExternalHandlerWithResolvedLead(t *testing.T) {
	h := newHarness(t)
	id := h.addLead("Juan Pérez", "+525533334444", "qualified", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "brochure juan")

	if !res.NeedsExternalHandler || res.HandlerInvoked == nil {
		t.Fatalf("brochure must signal external, got %+v", res)
	}
	if res.HandlerInvoked.Params["leadId"] != id.String() {
		t.Errorf("resolved lead id missing from params: %+v", res.HandlerInvoked.Params)
	}
}

func TestHandlerPanicBecomesApology(t *testing.T) {
	h := newHarness(t)
	h.leads.panicOn = "ListAll"

	res := h.d.HandleMessage(context.Background(), h.actor, "admin", "mis leads")
	if !strings.Contains(res.ResponseText, "algo salió mal") {
		t.Errorf("panic must surface as generic apology, got %q", res.ResponseText)
	}
}

func TestMalformedNotesBagStillRoutes(t *testing.T) {
	h := newHarness(t)
	h.notes.bags[h.actor] = `{0:::corrupt`
	h.addLead("Juan Pérez", "+525533334444", "new", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "mis leads")
	if !strings.Contains(res.ResponseText, "Juan Pérez") {
		t.Errorf("corrupt bag must not break routing: %q", res.ResponseText)
	}
}

func TestVendorQuestionRelay(t *testing.T) {
	h := newHarness(t)
	vendor := uuid.New()
	h.addLead("Juan Pérez", "+525533334444", "qualified", vendor)

	// The advisor's doc request leaves a question on the vendor.
	h.d.HandleMessage(context.Background(), h.actor, "Director Comercial", "docs juan")

	// Vendor answers; the text is relayed to the advisor's phone.
	res := h.d.HandleMessage(context.Background(), vendor, "vendedor", "responder ya los mandó ayer")
	if !strings.Contains(res.ResponseText, "Tu respuesta fue enviada") {
		t.Fatalf("relay confirmation missing: %q", res.ResponseText)
	}

	var relayed bool
	for _, m := range h.msgr.sent {
		if m.phone == "+525511112222" && strings.Contains(m.text, "ya los mandó ayer") {
			relayed = true
		}
	}
	if !relayed {
		t.Errorf("answer not relayed to requester: %+v", h.msgr.sent)
	}

	// The question is consumed exactly once.
	res = h.d.HandleMessage(context.Background(), vendor, "vendedor", "responder otra vez")
	if !strings.Contains(res.ResponseText, "ninguna pregunta pendiente") {
		t.Errorf("vendor question must be single-use: %q", res.ResponseText)
	}
}

func TestCitaCancelFlow(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "scheduled", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "cancelar cita de juan")

	if !strings.Contains(res.ResponseText, "cancelada") {
		t.Errorf("response = %q, want cancellation text", res.ResponseText)
	}
	if !res.NeedsExternalHandler || res.HandlerInvoked == nil || res.HandlerInvoked.Name != "calendarioCancelarCita" {
		t.Errorf("calendar mutation must be signaled external: %+v", res)
	}
}

func TestAddAndViewNotes(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "contacted", h.actor)

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "nota juan: Confirmó la visita")
	if !strings.Contains(res.ResponseText, "Nota agregada") {
		t.Fatalf("got %q", res.ResponseText)
	}

	res = h.d.HandleMessage(context.Background(), h.actor, "vendedor", "ver notas de juan")
	if !strings.Contains(res.ResponseText, "Confirmó la visita") {
		t.Errorf("note body missing, got %q", res.ResponseText)
	}
}

func TestDirectStageSetWording(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "contacted", h.actor)

	// The accented spelling is what the bot itself displays; typing it
	// back must work.
	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "etapa juan a negociación")

	if len(h.leads.updates) != 1 || h.leads.updates[0] != "negotiation" {
		t.Fatalf("updates = %v, want [negotiation]", h.leads.updates)
	}
	if !strings.Contains(res.ResponseText, "ahora está") || !strings.Contains(res.ResponseText, "Negociación") {
		t.Errorf("direct set should confirm with its own wording, got %q", res.ResponseText)
	}
}

func TestExpiredSelectionNumericReply(t *testing.T) {
	h := newHarness(t)
	h.addLead("Juan Pérez", "+525533334444", "contacted", h.actor)
	h.notes.bags[h.actor] = `{"pending_actions":{"lead_selection":{` +
		`"kind":"lead_selection",` +
		`"candidates":[{"id":"` + uuid.New().String() + `","name":"Juan Pérez"}],` +
		`"selectHandler":"vendedorAvanzarEtapa",` +
		`"createdAt":"2020-01-01T00:00:00Z","expiresAt":"2020-01-01T00:30:00Z"}}}`

	res := h.d.HandleMessage(context.Background(), h.actor, "vendedor", "1")

	if res.HandlerInvoked != nil || len(h.leads.updates) != 0 {
		t.Fatalf("an expired selection must not act: %+v", res)
	}
	if !strings.Contains(res.ResponseText, "ya no está disponible") {
		t.Errorf("response = %q, want the expired-selection notice", res.ResponseText)
	}

	// The lapsed slot is gone; the next number is plain noise.
	res = h.d.HandleMessage(context.Background(), h.actor, "vendedor", "1")
	if !strings.Contains(res.ResponseText, "No entendí") {
		t.Errorf("second numeric reply should hit help, got %q", res.ResponseText)
	}
}

func TestQuestionSurvivesDisambiguation(t *testing.T) {
	h := newHarness(t)
	vendor := uuid.New()
	h.addLead("María López", "+525599990000", "qualified", vendor)
	h.addLead("Juan Pérez", "+525511111111", "contacted", vendor)
	h.addLead("Juan Carlos", "+525522222222", "contacted", vendor)

	// The admin's doc request leaves a question on the vendor.
	h.d.HandleMessage(context.Background(), h.actor, "Director Comercial", "docs maría")

	// The vendor opens and answers a disambiguation prompt in between.
	res := h.d.HandleMessage(context.Background(), vendor, "vendedor", "adelante juan")
	if !strings.Contains(res.ResponseText, "1.") {
		t.Fatalf("expected numbered prompt, got %q", res.ResponseText)
	}
	h.d.HandleMessage(context.Background(), vendor, "vendedor", "1")

	// The prompt must not have clobbered the question.
	res = h.d.HandleMessage(context.Background(), vendor, "vendedor", "responder mañana se los llevo")
	if !strings.Contains(res.ResponseText, "Tu respuesta fue enviada") {
		t.Fatalf("question lost behind the selection: %q", res.ResponseText)
	}

	var relayed bool
	for _, m := range h.msgr.sent {
		if m.phone == "+525511112222" && strings.Contains(m.text, "mañana se los llevo") {
			relayed = true
		}
	}
	if !relayed {
		t.Errorf("answer not relayed to the requester: %+v", h.msgr.sent)
	}
}
