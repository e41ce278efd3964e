package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/domain/output"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/postgres/repository"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type GroupHandler struct {
	loop             Dispatcher
	signalingUsecase usecase.SignalingUsecase
	messageRepo      repository.MessageRepository
}

func NewGroupHandler(
	loop Dispatcher,
	signalingUsecase usecase.SignalingUsecase,
	messageRepo repository.MessageRepository,
) *GroupHandler {
	return &GroupHandler{
		loop:             loop,
		signalingUsecase: signalingUsecase,
		messageRepo:      messageRepo,
	}
}

// ListGroups - онлайн по группам, снимок берется внутри event loop
func (h *GroupHandler) ListGroups(c echo.Context) error {
	var counts []output.GroupCount

	err := h.loop.Call(c.Request().Context(), func() {
		counts = h.signalingUsecase.GroupCounts()
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "signaling unavailable"})
	}

	if counts == nil {
		counts = []output.GroupCount{}
	}

	return c.JSON(http.StatusOK, map[string]any{"groups": counts})
}

func (h *GroupHandler) History(c echo.Context) error {
	groupID := c.Param("id")

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}

		limit = min(n, maxHistoryLimit)
	}

	messages, err := h.messageRepo.ListByGroup(c.Request().Context(), groupID, limit)
	if err != nil {
		slog.Error(
			"list group messages",
			slog.Any(constant.Error, err),
			slog.String(constant.GroupID, groupID),
		)

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}
