package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// wsTransport - очередь отправки одного клиента. Пишет в сокет только writePump.
type wsTransport struct {
	connID string
	ws     *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newWSTransport(connID string, ws *websocket.Conn, buffer int) *wsTransport {
	return &wsTransport{
		connID: connID,
		ws:     ws,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Send enqueues without blocking the caller.
func (t *wsTransport) Send(ev events.Outbound) error {
	select {
	case <-t.done:
		return runtime.ErrTransportClosed
	default:
	}

	data, err := events.Encode(ev)
	if err != nil {
		return err
	}

	select {
	case t.send <- data:
		return nil
	default:
		return runtime.ErrBackpressure
	}
}

func (t *wsTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

// writePump пишет очередь в сокет и пингует клиента. После Close дописывает
// то что уже в очереди (например force-logout), шлет close frame и закрывает сокет.
func (t *wsTransport) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		t.ws.Close()
	}()

	for {
		select {
		case data := <-t.send:
			if err := t.write(websocket.TextMessage, data); err != nil {
				t.Close()
				return
			}

		case <-ticker.C:
			if err := t.write(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", slog.Any(constant.Error, err), slog.String(constant.ConnectionID, t.connID))

				t.Close()
				return
			}

		case <-t.done:
			t.flush()
			return
		}
	}
}

func (t *wsTransport) flush() {
	for {
		select {
		case data := <-t.send:
			if err := t.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			_ = t.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (t *wsTransport) write(messageType int, data []byte) error {
	if err := t.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return t.ws.WriteMessage(messageType, data)
}
