package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pion/webrtc/v4"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/memory"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

type nopRecorder struct{}

func (nopRecorder) Record(models.Record) {}

type staticIssuer struct{}

func (staticIssuer) Issue(roomName, displayName string) (webrtc.ICEServer, error) {
	return webrtc.ICEServer{URLs: []string{"turn:relay.test"}, Username: roomName, Credential: "x"}, nil
}

// matchedView keeps ice servers raw, the test only counts them.
type matchedView struct {
	events.Matched

	IceServers []json.RawMessage `json:"iceServers"`
}

func startServer(t *testing.T, signaling config.SignalingConfig) string {
	t.Helper()

	cfg := &config.Config{
		Debug:     true,
		Signaling: signaling,
		Matchmaking: config.MatchmakingConfig{
			Modes:      []string{"chat", "voice"},
			MediaModes: []string{"voice"},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())

	loop := usecase.NewEventLoop(64)
	go loop.Run(ctx)

	core := usecase.NewSignalingUsecase(
		cfg.Matchmaking,
		memory.NewConnectionRegistry(),
		memory.NewWaitingQueue(),
		memory.NewRoomPresence(),
		nopRecorder{},
		staticIssuer{},
		loop.Post,
	)

	e := echo.New()
	e.GET("/ws", NewWebSocketHandler(cfg, loop, core).Handle)

	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() { ws.Close() })

	return ws
}

func sendEvent(t *testing.T, ws *websocket.Conn, typ string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err = ws.WriteJSON(events.Message{Type: typ, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips other events until typ arrives and decodes its data into out.
func readUntil(t *testing.T, ws *websocket.Conn, typ string, out any) {
	t.Helper()

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

	for {
		var msg events.Message
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}

		if msg.Type != typ {
			continue
		}

		if out != nil {
			if err := json.Unmarshal(msg.Data, out); err != nil {
				t.Fatalf("decode %s: %v", typ, err)
			}
		}

		return
	}
}

func connect(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()

	ws := dial(t, url)

	var connected events.Connected
	readUntil(t, ws, events.TypeConnected, &connected)

	return ws, connected.ConnectionID
}

func TestWebSocketVoicePairing(t *testing.T) {
	url := startServer(t, config.SignalingConfig{SendBuffer: 16, RateLimit: 100, RateBurst: 100})

	a, aID := connect(t, url)
	b, bID := connect(t, url)

	sendEvent(t, a, events.TypeJoin, events.Join{Mode: "voice"})

	var waiting events.Waiting
	readUntil(t, a, events.TypeWaiting, &waiting)

	if waiting.Position != 1 {
		t.Fatalf("position = %d, want 1", waiting.Position)
	}

	sendEvent(t, b, events.TypeJoin, events.Join{Mode: "voice"})

	var matchedA, matchedB matchedView
	readUntil(t, a, events.TypeMatched, &matchedA)
	readUntil(t, b, events.TypeMatched, &matchedB)

	if matchedA.SessionID != matchedB.SessionID {
		t.Fatalf("session ids differ: %s vs %s", matchedA.SessionID, matchedB.SessionID)
	}

	if !matchedA.Initiator || matchedB.Initiator {
		t.Fatalf("initiator flags = %v/%v, want earlier waiter to initiate", matchedA.Initiator, matchedB.Initiator)
	}

	if matchedA.Partner.ID != bID || matchedB.Partner.ID != aID {
		t.Fatalf("partners = %s/%s", matchedA.Partner.ID, matchedB.Partner.ID)
	}

	if matchedA.RoomName != "voice-"+matchedA.SessionID || len(matchedA.IceServers) != 1 {
		t.Fatalf("media room = %q, ice = %v", matchedA.RoomName, matchedA.IceServers)
	}

	sendEvent(t, b, events.TypeSignal, events.Signal{PartnerID: aID, Payload: json.RawMessage(`{"sdp":"answer"}`)})

	var signal events.RelayedSignal
	readUntil(t, a, events.TypeSignal, &signal)

	if signal.From != bID || string(signal.Payload) != `{"sdp":"answer"}` {
		t.Fatalf("signal = %+v", signal)
	}

	b.Close()

	var gone events.PartnerDisconnected
	readUntil(t, a, events.TypePartnerDisconnected, &gone)

	if gone.SessionID != matchedA.SessionID || gone.Reason != models.EndReasonDisconnected {
		t.Fatalf("partner-disconnected = %+v", gone)
	}
}

func TestWebSocketRejectsMalformedAndFlooding(t *testing.T) {
	url := startServer(t, config.SignalingConfig{SendBuffer: 16, RateLimit: 0.001, RateBurst: 2})

	ws, _ := connect(t, url)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	var malformed events.Error
	readUntil(t, ws, events.TypeError, &malformed)

	if !strings.Contains(malformed.Message, events.ErrMalformedEvent.Error()) {
		t.Fatalf("error = %q", malformed.Message)
	}

	sendEvent(t, ws, events.TypePing, struct{}{})
	readUntil(t, ws, events.TypePong, nil)

	sendEvent(t, ws, events.TypePing, struct{}{})

	var limited events.Error
	readUntil(t, ws, events.TypeError, &limited)

	if limited.Message != usecase.ErrRateLimited.Error() {
		t.Fatalf("error = %q, want rate limit", limited.Message)
	}
}

func TestWebSocketRejectsLongDisplayName(t *testing.T) {
	url := startServer(t, config.SignalingConfig{SendBuffer: 16, RateLimit: 100, RateBurst: 100})

	ws, resp, err := websocket.DefaultDialer.Dial(url+"?name="+strings.Repeat("x", 65), nil)
	if err == nil {
		ws.Close()
		t.Fatal("dial with a 65 character name must fail")
	}

	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("response = %+v, want 400", resp)
	}

	ok, _, err := websocket.DefaultDialer.Dial(url+"?name="+strings.Repeat("x", 64), nil)
	if err != nil {
		t.Fatalf("dial with a 64 character name: %v", err)
	}
	defer ok.Close()

	var connected events.Connected
	readUntil(t, ok, events.TypeConnected, &connected)

	if connected.Identity.Name != strings.Repeat("x", 64) {
		t.Fatalf("name = %q", connected.Identity.Name)
	}
}

func TestWSTransportBackpressure(t *testing.T) {
	transport := newWSTransport("c1", nil, 1)

	if err := transport.Send(events.Pong{}); err != nil {
		t.Fatalf("first send: %v", err)
	}

	if err := transport.Send(events.Pong{}); !errors.Is(err, runtime.ErrBackpressure) {
		t.Fatalf("second send err = %v, want ErrBackpressure", err)
	}

	transport.Close()
	transport.Close()

	if err := transport.Send(events.Pong{}); !errors.Is(err, runtime.ErrTransportClosed) {
		t.Fatalf("send after close err = %v, want ErrTransportClosed", err)
	}
}
