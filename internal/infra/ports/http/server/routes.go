package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/infra/ports/http/handlers"
	"github.com/qrave1/PairSpeak/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	verifier middleware.TokenVerifier,
	wsHandler *handlers.WebSocketHandler,
	iceHandler *handlers.IceHandler,
	groupHandler *handlers.GroupHandler,
	adminHandler *handlers.AdminHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	identity := middleware.IdentityMiddleware(verifier, cfg.AllowAnonymous)

	api := e.Group("/api")
	{
		v1 := api.Group("/v1")
		v1.Use(identity)
		{
			v1.GET("/ws", wsHandler.Handle)

			v1.GET("/ice", iceHandler.IceServers)

			v1.GET("/groups", groupHandler.ListGroups)
			v1.GET("/groups/:id/messages", groupHandler.History)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.IdentityMiddleware(verifier, true), middleware.AdminMiddleware(cfg.AdminKeyHash))
		{
			admin.POST("/users/:id/suspend", adminHandler.SuspendUser)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	return e
}
