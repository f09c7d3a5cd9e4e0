package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"inmochat_backend/internal/chat/continuation"
	"inmochat_backend/internal/chat/disambig"
	"inmochat_backend/internal/chat/intent"
	"inmochat_backend/internal/chat/roles"
	"inmochat_backend/internal/events"
	"inmochat_backend/internal/funnel"
	leadrepo "inmochat_backend/internal/leads/repository"
	"inmochat_backend/internal/replies"
	platformevents "inmochat_backend/platform/events"

	"github.com/google/uuid"
)

// scopedLeads returns the leads the actor may act on. Admin roles see
// everything; everyone else sees only leads they own through the
// resolved ownership precedence.
func (d *Dispatcher) scopedLeads(ctx context.Context, actorID uuid.UUID, role roles.Role) ([]leadrepo.Lead, error) {
	if role.IsAdmin() {
		return d.leads.ListAll(ctx)
	}
	return d.leads.ListByOwner(ctx, actorID)
}

// lookupLead resolves a fuzzy query inside the actor's scope. The
// second return intercepts the flow: a not-found message (zero
// candidates and empty scope read identically, so nothing leaks about
// leads outside the actor's reach) or a disambiguation prompt that
// persists a pending selection.
func (d *Dispatcher) lookupLead(ctx context.Context, actorID uuid.UUID, role roles.Role, query, handlerName string, params map[string]string) (leadrepo.Lead, *Result) {
	scope, err := d.scopedLeads(ctx, actorID, role)
	if err != nil {
		d.log.DatabaseError("leads.scope", err)
		return leadrepo.Lead{}, &Result{ResponseText: d.catalog.Render(replies.KeyGenericError)}
	}

	resolution := disambig.Resolve(query, scope)
	switch resolution.Outcome {
	case disambig.None:
		return leadrepo.Lead{}, &Result{ResponseText: d.catalog.Render(replies.KeyNotFound, query)}

	case disambig.Ambiguous:
		res := d.promptSelection(ctx, actorID, handlerName, params, resolution.Items)
		return leadrepo.Lead{}, &res
	}

	return resolution.Item, nil
}

// promptSelection persists the candidate list in presentation order
// and renders the 1-based numbered prompt.
func (d *Dispatcher) promptSelection(ctx context.Context, actorID uuid.UUID, handlerName string, params map[string]string, items []leadrepo.Lead) Result {
	kind := continuation.KindLeadSelection
	promptKey := replies.KeySelectionPrompt
	switch handlerName {
	case intent.HandlerCitaCancelar:
		kind = continuation.KindCitaAction
		promptKey = replies.KeyCitaPromptCancel
	case intent.HandlerCitaReagendar:
		kind = continuation.KindCitaAction
		promptKey = replies.KeyCitaPromptReschedule
	}

	candidates := make([]continuation.Candidate, len(items))
	for i, l := range items {
		candidates[i] = continuation.Candidate{ID: l.ID, Name: l.Name}
	}

	action := continuation.Action{
		Kind:          kind,
		Candidates:    candidates,
		SelectHandler: handlerName,
		SelectParams:  params,
	}
	if kind == continuation.KindCitaAction {
		if handlerName == intent.HandlerCitaCancelar {
			action.CitaAction = continuation.CitaCancel
		} else {
			action.CitaAction = continuation.CitaReschedule
		}
	}

	if err := d.cont.Save(ctx, actorID, action); err != nil {
		d.log.DatabaseError("continuation.save", err)
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError)}
	}

	var b strings.Builder
	b.WriteString(d.catalog.Render(promptKey))
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Name)
	}
	return Result{ResponseText: b.String()}
}

// applyToLead executes a handler against a uniquely resolved lead.
// Also the resumption point after a numbered selection.
func (d *Dispatcher) applyToLead(ctx context.Context, actorID uuid.UUID, handlerName string, lead leadrepo.Lead, params map[string]string) Result {
	invoked := &Invocation{Name: handlerName, Params: params}

	switch handlerName {
	case intent.HandlerAvanzarEtapa:
		return d.moveStage(ctx, actorID, lead, funnel.Next, invoked)

	case intent.HandlerRetrocederEtapa:
		return d.moveStage(ctx, actorID, lead, funnel.Prev, invoked)

	case intent.HandlerCambiarEtapa:
		return d.setStage(ctx, actorID, lead, params[intent.ParamEtapa], invoked)

	case intent.HandlerVerNotas:
		return d.verNotas(ctx, lead, invoked)

	case intent.HandlerVerHistorial:
		return d.verHistorial(ctx, lead, invoked)

	case intent.HandlerAgregarNota:
		return d.agregarNota(ctx, actorID, lead, params[intent.ParamTexto], invoked)

	case intent.HandlerPedirDocs:
		return d.pedirDocs(ctx, actorID, lead, invoked)

	case intent.HandlerCitaCancelar:
		return Result{
			ResponseText:         d.catalog.Render(replies.KeyCitaCancelled, lead.Name),
			HandlerInvoked:       &Invocation{Name: "calendarioCancelarCita", Params: map[string]string{"leadId": lead.ID.String()}},
			NeedsExternalHandler: true,
		}

	case intent.HandlerCitaReagendar:
		return Result{
			ResponseText:         d.catalog.Render(replies.KeyCitaRescheduled, lead.Name),
			HandlerInvoked:       &Invocation{Name: "calendarioReagendarCita", Params: map[string]string{"leadId": lead.ID.String()}},
			NeedsExternalHandler: true,
		}
	}

	// Lead resolved, but the operation itself lives outside this core
	// (e.g. brochure delivery). Hand back the resolved lead id.
	external := map[string]string{"leadId": lead.ID.String()}
	for k, v := range params {
		external[k] = v
	}
	return Result{
		HandlerInvoked:       &Invocation{Name: handlerName, Params: external},
		NeedsExternalHandler: true,
	}
}

func (d *Dispatcher) moveStage(ctx context.Context, actorID uuid.UUID, lead leadrepo.Lead, dir funnel.Direction, invoked *Invocation) Result {
	move := funnel.Advance(lead.Status, dir)
	if move.Noop {
		return Result{
			ResponseText:   d.catalog.Render(replies.KeyStageNoop, lead.Name, funnel.Label(move.NewStage)),
			HandlerInvoked: invoked,
		}
	}

	updated, fail := d.commitStage(ctx, actorID, lead, move.From, move.NewStage, invoked)
	if fail != nil {
		return *fail
	}
	return Result{
		ResponseText:   d.catalog.Render(replies.KeyStageMoved, updated.Name, funnel.Label(move.From), funnel.Label(move.NewStage)),
		HandlerInvoked: invoked,
	}
}

func (d *Dispatcher) setStage(ctx context.Context, actorID uuid.UUID, lead leadrepo.Lead, target string, invoked *Invocation) Result {
	stage, ok := funnel.SetDirect(target)
	if !ok {
		return Result{
			ResponseText:   d.catalog.Render(replies.KeyStageUnknown, target),
			HandlerInvoked: invoked,
		}
	}
	from, _ := funnel.ResolveStage(lead.Status)
	if stage == from {
		return Result{
			ResponseText:   d.catalog.Render(replies.KeyStageNoop, lead.Name, funnel.Label(stage)),
			HandlerInvoked: invoked,
		}
	}

	updated, fail := d.commitStage(ctx, actorID, lead, from, stage, invoked)
	if fail != nil {
		return *fail
	}
	return Result{
		ResponseText:   d.catalog.Render(replies.KeyStageSet, updated.Name, funnel.Label(stage)),
		HandlerInvoked: invoked,
	}
}

// commitStage writes the status and its derived score together,
// records the timeline row and publishes the stage-changed event.
// Rendering is left to the caller: a direct set and a step each word
// their confirmation differently.
func (d *Dispatcher) commitStage(ctx context.Context, actorID uuid.UUID, lead leadrepo.Lead, from, to string, invoked *Invocation) (leadrepo.Lead, *Result) {
	score := funnel.ScoreFor(to)
	updated, err := d.leads.UpdateStatus(ctx, lead.ID, to, score)
	if err != nil {
		d.log.DatabaseError("leads.update_status", err)
		return updated, &Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}

	if err := d.leads.AddActivity(ctx, lead.ID, &actorID, leadrepo.ActivityStageChanged, map[string]any{
		"from": from,
		"to":   to,
	}); err != nil {
		d.log.DatabaseError("leads.add_activity", err)
	}

	d.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    lead.ID,
		ActorID:   actorID,
		FromStage: from,
		ToStage:   to,
		Score:     score,
	})

	return updated, nil
}

func (d *Dispatcher) verNotas(ctx context.Context, lead leadrepo.Lead, invoked *Invocation) Result {
	notes, err := d.leads.ListLeadNotes(ctx, lead.ID)
	if err != nil {
		d.log.DatabaseError("leads.list_notes", err)
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}
	if len(notes) == 0 {
		return Result{ResponseText: d.catalog.Render(replies.KeyNoNotes, lead.Name), HandlerInvoked: invoked}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 Notas de %s:", lead.Name)
	for _, n := range notes {
		fmt.Fprintf(&b, "\n• %s (%s, %s)", n.Body, n.AuthorName, n.CreatedAt.Format("02/01"))
	}
	return Result{ResponseText: b.String(), HandlerInvoked: invoked}
}

func (d *Dispatcher) verHistorial(ctx context.Context, lead leadrepo.Lead, invoked *Invocation) Result {
	stage, _ := funnel.ResolveStage(lead.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n📍 Etapa: %s\n📞 %s", lead.Name, funnel.Label(stage), lead.Phone)

	activity, err := d.leads.ListActivity(ctx, lead.ID, 5)
	if err != nil {
		d.log.DatabaseError("leads.list_activity", err)
	}
	for _, a := range activity {
		fmt.Fprintf(&b, "\n• %s — %s", a.CreatedAt.Format("02/01 15:04"), a.Action)
	}
	return Result{ResponseText: b.String(), HandlerInvoked: invoked}
}

func (d *Dispatcher) agregarNota(ctx context.Context, actorID uuid.UUID, lead leadrepo.Lead, body string, invoked *Invocation) Result {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > 2000 {
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}

	if _, err := d.leads.CreateLeadNote(ctx, lead.ID, actorID, body); err != nil {
		d.log.DatabaseError("leads.create_note", err)
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}
	if err := d.leads.AddActivity(ctx, lead.ID, &actorID, leadrepo.ActivityNoteAdded, nil); err != nil {
		d.log.DatabaseError("leads.add_activity", err)
	}
	return Result{ResponseText: d.catalog.Render(replies.KeyNoteAdded, lead.Name), HandlerInvoked: invoked}
}

// pedirDocs messages the lead asking for mortgage documents and leaves
// a vendor_question on the lead's owner so their next "responder ..."
// reaches the advisor.
func (d *Dispatcher) pedirDocs(ctx context.Context, actorID uuid.UUID, lead leadrepo.Lead, invoked *Invocation) Result {
	if lead.Phone != "" {
		msg := fmt.Sprintf("Hola %s, para continuar con tu trámite de crédito necesitamos tus documentos: identificación, comprobante de ingresos y comprobante de domicilio. ¿Nos los puedes enviar por aquí?", lead.Name)
		if err := d.msgr.SendMessage(ctx, lead.Phone, msg); err != nil {
			d.log.DeliveryError(lead.Phone, err)
		}
	}

	if err := d.leads.AddActivity(ctx, lead.ID, &actorID, leadrepo.ActivityDocsRequested, nil); err != nil {
		d.log.DatabaseError("leads.add_activity", err)
	}

	d.bus.Publish(ctx, events.DocsRequested{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    lead.ID,
		ActorID:   actorID,
	})

	if owner, ok := leadrepo.ResolveOwnership(lead); ok && owner != actorID {
		advisor, err := d.members.GetByID(ctx, actorID)
		if err == nil {
			if err := d.cont.Save(ctx, owner, continuation.Action{
				Kind:        continuation.KindVendorQuestion,
				SolicitudID: lead.ID.String(),
				LeadName:    lead.Name,
				FromPhone:   advisor.Phone,
			}); err != nil {
				d.log.DatabaseError("continuation.save", err)
			}
		}
	}

	return Result{ResponseText: d.catalog.Render(replies.KeyDocsSent, lead.Name), HandlerInvoked: invoked}
}

func (d *Dispatcher) listarLeads(ctx context.Context, actorID uuid.UUID, role roles.Role) Result {
	invoked := &Invocation{Name: intent.HandlerListarLeads, Params: map[string]string{}}

	scope, err := d.scopedLeads(ctx, actorID, role)
	if err != nil {
		d.log.DatabaseError("leads.scope", err)
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}
	if len(scope) == 0 {
		return Result{ResponseText: d.catalog.Render(replies.KeyNoLeads), HandlerInvoked: invoked}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tienes %d leads:", len(scope))
	for _, l := range scope {
		stage, _ := funnel.ResolveStage(l.Status)
		fmt.Fprintf(&b, "\n• %s — %s", l.Name, funnel.Label(stage))
	}
	return Result{ResponseText: b.String(), HandlerInvoked: invoked}
}

// responderPregunta relays the actor's answer back to whoever asked
// the pending vendor question.
func (d *Dispatcher) responderPregunta(ctx context.Context, actorID uuid.UUID, params map[string]string) Result {
	invoked := &Invocation{Name: intent.HandlerResponderPregunta, Params: params}

	pending, err := d.cont.LoadPendingKind(ctx, actorID, continuation.KindVendorQuestion)
	if err != nil || pending == nil {
		return Result{ResponseText: d.catalog.Render(replies.KeyNoQuestion), HandlerInvoked: invoked}
	}

	if err := d.cont.Resolve(ctx, actorID, continuation.KindVendorQuestion); err != nil {
		d.log.DatabaseError("continuation.resolve", err)
		return Result{ResponseText: d.catalog.Render(replies.KeyGenericError), HandlerInvoked: invoked}
	}

	if pending.FromPhone != "" {
		msg := fmt.Sprintf("Respuesta sobre %s: %s", pending.LeadName, params[intent.ParamTexto])
		if err := d.msgr.SendMessage(ctx, pending.FromPhone, msg); err != nil {
			d.log.DeliveryError(pending.FromPhone, err)
		}
	}
	return Result{ResponseText: d.catalog.Render(replies.KeyQuestionRelayed), HandlerInvoked: invoked}
}
