package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/PairSpeak/internal/usecase"
)

type AdminHandler struct {
	loop             Dispatcher
	signalingUsecase usecase.SignalingUsecase
}

func NewAdminHandler(loop Dispatcher, signalingUsecase usecase.SignalingUsecase) *AdminHandler {
	return &AdminHandler{loop: loop, signalingUsecase: signalingUsecase}
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

// SuspendUser - внеполосный аналог события admin:suspend-user
func (h *AdminHandler) SuspendUser(c echo.Context) error {
	userID := c.Param("id")

	var req suspendRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
		}
	}

	var closed int

	err := h.loop.Call(c.Request().Context(), func() {
		closed = h.signalingUsecase.SuspendUser(userID, req.Reason)
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "signaling unavailable"})
	}

	return c.JSON(http.StatusOK, map[string]any{"user_id": userID, "closed_connections": closed})
}

func (h *AdminHandler) Stats(c echo.Context) error {
	var stats usecase.Stats

	err := h.loop.Call(c.Request().Context(), func() {
		stats = h.signalingUsecase.Stats()
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "signaling unavailable"})
	}

	return c.JSON(http.StatusOK, stats)
}
