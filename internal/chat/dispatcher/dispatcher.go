// Package dispatcher orchestrates one inbound chat message end to end:
// continuation check, intent routing, role-scoped lookup,
// disambiguation, handler execution. It is the single boundary that
// guarantees a message is always answered; nothing below it is allowed
// to take the process down.
package dispatcher

import (
	"context"
	"strconv"
	"strings"

	"inmochat_backend/internal/chat/continuation"
	"inmochat_backend/internal/chat/intent"
	"inmochat_backend/internal/chat/roles"
	"inmochat_backend/internal/events"
	leadrepo "inmochat_backend/internal/leads/repository"
	"inmochat_backend/internal/replies"
	teamrepo "inmochat_backend/internal/team/repository"
	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the slice of the lead repository the dispatcher needs.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ListByOwner(ctx context.Context, memberID uuid.UUID) ([]leadrepo.Lead, error)
	ListAll(ctx context.Context) ([]leadrepo.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, score int) (leadrepo.Lead, error)
	CreateLeadNote(ctx context.Context, leadID, authorID uuid.UUID, body string) (leadrepo.LeadNote, error)
	ListLeadNotes(ctx context.Context, leadID uuid.UUID) ([]leadrepo.LeadNote, error)
	AddActivity(ctx context.Context, leadID uuid.UUID, actorID *uuid.UUID, action string, meta map[string]any) error
	ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]leadrepo.Activity, error)
}

// MemberStore is the slice of the team repository the dispatcher needs.
type MemberStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (teamrepo.Member, error)
}

// Messenger delivers outbound texts. Fire-and-forget: failures are
// logged, never retried here.
type Messenger interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}

// Invocation names a handler the surrounding system must execute.
type Invocation struct {
	Name   string
	Params map[string]string
}

// Result is the outcome of handling one message.
type Result struct {
	// ResponseText, when set, is sent back to the actor.
	ResponseText string
	// HandlerInvoked echoes the handler that ran, or the external one
	// that should.
	HandlerInvoked *Invocation
	// NeedsExternalHandler is true when HandlerInvoked names an
	// operation this core does not own.
	NeedsExternalHandler bool
}

// Dispatcher wires the chat core together.
type Dispatcher struct {
	leads   LeadStore
	members MemberStore
	cont    *continuation.Store
	msgr    Messenger
	bus     events.Bus
	catalog *replies.Catalog
	log     *logger.Logger
}

// New creates a dispatcher.
func New(leads LeadStore, members MemberStore, cont *continuation.Store, msgr Messenger, bus events.Bus, catalog *replies.Catalog, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		leads:   leads,
		members: members,
		cont:    cont,
		msgr:    msgr,
		bus:     bus,
		catalog: catalog,
		log:     log,
	}
}

// HandleMessage processes one inbound message from a team member and
// always produces a Result; it never returns an error to the transport.
func (d *Dispatcher) HandleMessage(ctx context.Context, actorID uuid.UUID, roleString, rawText string) Result {
	role := roles.Classify(roleString)
	d.log.InboundMessage(actorID.String(), role.String(), len(rawText))

	// Unfinished business first. A load failure degrades to "nothing
	// pending": the actor keeps a working chat even with a broken bag.
	pending, expired, err := d.cont.LoadPending(ctx, actorID)
	if err != nil {
		d.log.DatabaseError("continuation.load", err)
		pending = nil
	}

	if pending != nil {
		if res, done := d.resumePending(ctx, actorID, pending, rawText); done {
			return res
		}
		// Input did not match the pending shape: the actor is
		// abandoning the prompt, fall through to normal routing.
	} else if isBareInteger(rawText) && expiredPrompt(expired) {
		// A numeric reply to a prompt that just lapsed deserves better
		// than the generic help text.
		return Result{ResponseText: d.catalog.Render(replies.KeySelectionExpired)}
	}

	it := intent.ForRole(role).Route(rawText)
	switch it.Kind {
	case intent.Reply, intent.Unrecognized:
		return Result{ResponseText: it.Text}
	default:
		return d.execute(ctx, actorID, role, it)
	}
}

// resumePending interprets the inbound text only in the shape the
// pending action expects. The second return is false when the input
// does not match and routing should continue.
func (d *Dispatcher) resumePending(ctx context.Context, actorID uuid.UUID, pending *continuation.Action, rawText string) (Result, bool) {
	switch pending.Kind {
	case continuation.KindLeadSelection, continuation.KindCitaAction:
		cand, ok := pending.MatchSelection(rawText)
		if !ok {
			return Result{}, false
		}
		// Delete before acting: exactly-once consumption.
		if err := d.cont.Resolve(ctx, actorID, pending.Kind); err != nil {
			d.log.DatabaseError("continuation.resolve", err)
			return Result{ResponseText: d.catalog.Render(replies.KeyGenericError)}, true
		}

		lead, err := d.leads.GetByID(ctx, cand.ID)
		if err != nil {
			return Result{ResponseText: d.catalog.Render(replies.KeyNotFound, cand.Name)}, true
		}
		return d.applyToLead(ctx, actorID, pending.SelectHandler, lead, pending.SelectParams), true

	case continuation.KindVendorQuestion:
		// A vendor question is answered through the explicit
		// "responder ..." command, never by swallowing arbitrary text.
		return Result{}, false
	}
	return Result{}, false
}

// execute runs an intent's handler behind a recover barrier. A panic
// in any handler becomes a generic apology, never a dropped message.
func (d *Dispatcher) execute(ctx context.Context, actorID uuid.UUID, role roles.Role, it intent.Intent) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.HandlerFault(it.HandlerName, r)
			res = Result{ResponseText: d.catalog.Render(replies.KeyGenericError)}
		}
	}()

	switch it.HandlerName {
	case intent.HandlerListarLeads:
		return d.listarLeads(ctx, actorID, role)

	case intent.HandlerResponderPregunta:
		return d.responderPregunta(ctx, actorID, it.Params)

	case intent.HandlerVerNotas,
		intent.HandlerVerHistorial,
		intent.HandlerAgregarNota,
		intent.HandlerAvanzarEtapa,
		intent.HandlerRetrocederEtapa,
		intent.HandlerCambiarEtapa,
		intent.HandlerPedirDocs,
		intent.HandlerCitaCancelar,
		intent.HandlerCitaReagendar,
		intent.HandlerEnviarBrochure:
		query := it.Params[intent.ParamLead]
		if query == "" {
			query = it.Params[intent.ParamQuery]
		}
		lead, intercept := d.lookupLead(ctx, actorID, role, query, it.HandlerName, it.Params)
		if intercept != nil {
			return *intercept
		}
		return d.applyToLead(ctx, actorID, it.HandlerName, lead, it.Params)
	}

	// Recognized by the router but not owned by this core: signal the
	// surrounding system to run its richer flow.
	return Result{
		HandlerInvoked:       &Invocation{Name: it.HandlerName, Params: it.Params},
		NeedsExternalHandler: true,
	}
}

func isBareInteger(text string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(text))
	return err == nil
}

// expiredPrompt reports whether a selection-style prompt was among the
// kinds that lapsed on this load. A lapsed vendor question does not
// count: nothing numeric was ever expected for it.
func expiredPrompt(expired []string) bool {
	for _, kind := range expired {
		if kind == continuation.KindLeadSelection || kind == continuation.KindCitaAction {
			return true
		}
	}
	return false
}
