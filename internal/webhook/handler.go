package webhook

import (
	"net/http"

	"inmochat_backend/platform/httpkit"
	"inmochat_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// InboundMessageRequest is what the gowa bridge posts for each message
// received on the company WhatsApp number.
type InboundMessageRequest struct {
	From      string `json:"from" validate:"required,min=8,max=20"`
	Text      string `json:"text" validate:"required,max=4000"`
	MessageID string `json:"messageId" validate:"max=128"`
}

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleInboundMessage processes one inbound chat message.
// POST /api/v1/webhook/messages
// Authenticated via X-Api-Key (enforced by the bridge route group).
func (h *Handler) HandleInboundMessage(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	res, err := h.service.ProcessInbound(c.Request.Context(), req.From, req.Text)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, res)
}
