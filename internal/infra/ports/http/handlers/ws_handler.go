package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
	"github.com/qrave1/PairSpeak/internal/infra/appctx"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

const maxMessageSize = 64 << 10

// Dispatcher - очередь задач ядра, см. usecase.EventLoop
type Dispatcher interface {
	Post(task func()) bool
	Call(ctx context.Context, task func()) error
}

type WebSocketHandler struct {
	upgrader *websocket.Upgrader
	cfg      config.SignalingConfig

	loop             Dispatcher
	signalingUsecase usecase.SignalingUsecase
}

func NewWebSocketHandler(cfg *config.Config, loop Dispatcher, signalingUsecase usecase.SignalingUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		cfg:              cfg.Signaling,
		loop:             loop,
		signalingUsecase: signalingUsecase,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	principal, ok := appctx.Principal(c.Request().Context())
	if !ok {
		principal = models.AnonymousPrincipal()
	}

	name := c.QueryParam("name")
	if err := events.ValidateDisplayName(name); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"WebSocket upgrade error",
			slog.Any(constant.Error, err),
		)
		return nil
	}

	connID := uuid.NewString()

	transport := newWSTransport(connID, ws, h.cfg.SendBuffer)
	go transport.writePump()

	conn := runtime.NewConnection(connID, principal, name, transport)

	if !h.loop.Post(func() { h.signalingUsecase.Connect(conn) }) {
		transport.Close()
		return nil
	}

	defer func() {
		h.loop.Post(func() { h.signalingUsecase.Disconnect(connID) })
		transport.Close()
	}()

	ws.SetReadLimit(maxMessageSize)

	if err = ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return nil
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateBurst)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			h.handleWebsocketError(connID, err)
			return nil
		}

		// любое входящее сообщение продлевает жизнь соединения
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			h.loop.Post(func() { h.signalingUsecase.Reject(connID, usecase.ErrRateLimited) })
			continue
		}

		ev, err := events.Decode(msg)
		if err != nil {
			h.loop.Post(func() { h.signalingUsecase.Reject(connID, err) })
			continue
		}

		h.loop.Post(func() { h.signalingUsecase.HandleEvent(connID, ev) })
	}
}

func (h *WebSocketHandler) handleWebsocketError(connID string, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
			slog.Info("client disconnected from websocket", slog.String(constant.ConnectionID, connID))
		default:
			slog.Warn(
				"websocket close error",
				slog.Int("code", closeErr.Code),
				slog.String(constant.ConnectionID, connID),
			)
		}

		return
	}

	slog.Debug(
		"websocket read",
		slog.Any(constant.Error, err),
		slog.String(constant.ConnectionID, connID),
	)
}
