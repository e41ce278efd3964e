package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

type IceHandler struct {
	issuer usecase.MediaTokenIssuer
}

func NewIceHandler(issuer usecase.MediaTokenIssuer) *IceHandler {
	return &IceHandler{issuer: issuer}
}

// IceServers выдает временные TURN креды, ?room= и ?name= попадают в username
func (h *IceHandler) IceServers(c echo.Context) error {
	server, err := h.issuer.Issue(c.QueryParam("room"), c.QueryParam("name"))
	if err != nil {
		slog.Error("issue turn credentials", slog.Any(constant.Error, err))

		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "media relay unavailable"})
	}

	return c.JSON(http.StatusOK, server)
}
