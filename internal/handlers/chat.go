package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notiongram/notiongram/internal/chat"
)

// ChatHandler serves the page-change webhook that regenerates chat links.
type ChatHandler struct {
	logger  *slog.Logger
	service *chat.Service
}

func NewChatHandler(log *slog.Logger, service *chat.Service) *ChatHandler {
	return &ChatHandler{
		logger:  log.With(slog.String("handler", "chat")),
		service: service,
	}
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat/links", h.GenerateLinks)
}

// GenerateLinks handles POST /chat/links. It answers 200 for every terminal
// outcome (updated, cleared, skipped), 400 for a malformed payload, and 500
// with a generic body when an external call fails. Failed deliveries must be
// replayed by the webhook sender; there is no retry queue.
func (h *ChatHandler) GenerateLinks(c echo.Context) error {
	var payload chat.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
	}

	result, err := h.service.SyncContactMethods(c.Request().Context(), payload)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidPayload) {
			h.logger.Warn("rejected webhook payload", slog.Any("error", err))
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		}
		h.logger.Error("contact sync failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: outcomeMessage(result)})
}

func outcomeMessage(result chat.Result) string {
	switch result.Outcome {
	case chat.OutcomeCleared:
		return "Contact methods cleared."
	case chat.OutcomeSkipped:
		return "No resolvable contacts; nothing to update."
	default:
		return "Contact methods updated."
	}
}
