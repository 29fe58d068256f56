package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notiongram/notiongram/internal/diary"
)

// DiaryHandler serves the webhook that duplicates the diary page for today.
type DiaryHandler struct {
	logger  *slog.Logger
	service *diary.Service
}

func NewDiaryHandler(log *slog.Logger, service *diary.Service) *DiaryHandler {
	return &DiaryHandler{
		logger:  log.With(slog.String("handler", "diary")),
		service: service,
	}
}

func (h *DiaryHandler) Register(e *echo.Echo) {
	e.POST("/diary/duplicate", h.Duplicate)
}

// Duplicate handles POST /diary/duplicate. No body is required.
func (h *DiaryHandler) Duplicate(c echo.Context) error {
	result, err := h.service.Rollover(c.Request().Context())
	if err != nil {
		h.logger.Error("diary rollover failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}

	var message string
	switch result.Outcome {
	case diary.OutcomeNoRecent:
		message = "No diary entries found; nothing to duplicate."
	case diary.OutcomeAlreadyExists:
		message = "An entry for today already exists."
	default:
		message = "Created today's diary entry."
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: message})
}
