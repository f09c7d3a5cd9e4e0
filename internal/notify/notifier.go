// Package notify turns chat domain events into WhatsApp nudges for the
// lead's owner when someone else acted on their lead.
package notify

import (
	"context"
	"fmt"

	"inmochat_backend/internal/events"
	"inmochat_backend/internal/funnel"
	leadrepo "inmochat_backend/internal/leads/repository"
	teamrepo "inmochat_backend/internal/team/repository"
	"inmochat_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadReader is the slice of the lead repository the notifier needs.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
}

// MemberReader resolves team members for name and phone lookups.
type MemberReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (teamrepo.Member, error)
}

// Messenger delivers outbound texts.
type Messenger interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}

// Notifier subscribes to chat domain events and messages the lead's
// owner about actions they did not perform themselves.
type Notifier struct {
	leads   LeadReader
	members MemberReader
	msgr    Messenger
	log     *logger.Logger
}

// New creates a notifier.
func New(leads LeadReader, members MemberReader, msgr Messenger, log *logger.Logger) *Notifier {
	return &Notifier{leads: leads, members: members, msgr: msgr, log: log}
}

// Register subscribes the notifier's handlers on the bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.LeadStageChanged{}.EventName(), events.HandlerFunc(n.onStageChanged))
	bus.Subscribe(events.DocsRequested{}.EventName(), events.HandlerFunc(n.onDocsRequested))
}

func (n *Notifier) onStageChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadStageChanged)
	if !ok {
		return nil
	}

	owner, actor, lead, ok, err := n.resolve(ctx, e.LeadID, e.ActorID)
	if err != nil || !ok {
		return err
	}

	msg := fmt.Sprintf("📈 %s movió a %s de *%s* a *%s*.",
		actor.Name, lead.Name, funnel.Label(e.FromStage), funnel.Label(e.ToStage))
	return n.msgr.SendMessage(ctx, owner.Phone, msg)
}

func (n *Notifier) onDocsRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DocsRequested)
	if !ok {
		return nil
	}

	owner, actor, lead, ok, err := n.resolve(ctx, e.LeadID, e.ActorID)
	if err != nil || !ok {
		return err
	}

	msg := fmt.Sprintf("📄 %s pidió documentos a %s. Si %s te contesta a ti, escribe *responder <texto>*.",
		actor.Name, lead.Name, lead.Name)
	return n.msgr.SendMessage(ctx, owner.Phone, msg)
}

// resolve loads the lead, its owner and the acting member. ok is false
// when the lead has no owner or the actor is the owner: the person who
// did the thing does not need to hear about it.
func (n *Notifier) resolve(ctx context.Context, leadID, actorID uuid.UUID) (owner, actor teamrepo.Member, lead leadrepo.Lead, ok bool, err error) {
	lead, err = n.leads.GetByID(ctx, leadID)
	if err != nil {
		return owner, actor, lead, false, err
	}

	ownerID, has := leadrepo.ResolveOwnership(lead)
	if !has || ownerID == actorID {
		return owner, actor, lead, false, nil
	}

	owner, err = n.members.GetByID(ctx, ownerID)
	if err != nil {
		return owner, actor, lead, false, err
	}
	if owner.Phone == "" {
		return owner, actor, lead, false, nil
	}

	actor, err = n.members.GetByID(ctx, actorID)
	if err != nil {
		return owner, actor, lead, false, err
	}
	return owner, actor, lead, true, nil
}
