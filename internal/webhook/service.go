package webhook

import (
	"context"
	"errors"
	"strings"

	"inmochat_backend/internal/chat/dispatcher"
	teamrepo "inmochat_backend/internal/team/repository"
	"inmochat_backend/platform/apperr"
	"inmochat_backend/platform/logger"
	"inmochat_backend/platform/phone"

	"github.com/google/uuid"
)

// MemberResolver maps a sender phone to a team member. Satisfied by the
// team repository.
type MemberResolver interface {
	GetByPhone(ctx context.Context, phone string) (teamrepo.Member, error)
}

// ChatDispatcher turns one inbound message into a Result. Satisfied by
// the chat dispatcher.
type ChatDispatcher interface {
	HandleMessage(ctx context.Context, actorID uuid.UUID, roleString, rawText string) dispatcher.Result
}

// Replier sends the rendered response back over the same channel the
// message came in on.
type Replier interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}

// InboundResult is what the bridge gets back for one processed message.
type InboundResult struct {
	ResponseText  string            `json:"responseText"`
	Handler       string            `json:"handler,omitempty"`
	NeedsExternal bool              `json:"needsExternalHandler"`
	HandlerParams map[string]string `json:"handlerParams,omitempty"`
}

// Service resolves the sender and runs the message through the chat
// dispatcher.
type Service struct {
	members MemberResolver
	chat    ChatDispatcher
	replier Replier
	log     *logger.Logger
}

func NewService(members MemberResolver, chat ChatDispatcher, replier Replier, log *logger.Logger) *Service {
	return &Service{
		members: members,
		chat:    chat,
		replier: replier,
		log:     log,
	}
}

// ProcessInbound handles one message from the WhatsApp bridge. Unknown
// senders are rejected; messages from customers (leads) do not belong
// on this channel.
func (s *Service) ProcessInbound(ctx context.Context, from, text string) (InboundResult, error) {
	normalized := phone.NormalizeE164(from)

	member, err := s.members.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, teamrepo.ErrNotFound) {
			return InboundResult{}, apperr.NotFound("sender is not a registered team member")
		}
		s.log.DatabaseError("team.get_by_phone", err)
		return InboundResult{}, apperr.Internal("failed to resolve sender")
	}

	res := s.chat.HandleMessage(ctx, member.ID, member.Role, strings.TrimSpace(text))

	if res.ResponseText != "" && s.replier != nil {
		if err := s.replier.SendMessage(ctx, member.Phone, res.ResponseText); err != nil {
			s.log.DeliveryError(member.Phone, err)
		}
	}

	out := InboundResult{
		ResponseText:  res.ResponseText,
		NeedsExternal: res.NeedsExternalHandler,
	}
	if res.HandlerInvoked != nil {
		out.Handler = res.HandlerInvoked.Name
		out.HandlerParams = res.HandlerInvoked.Params
	}
	return out, nil
}
