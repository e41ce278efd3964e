package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pion/webrtc/v4"

	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/output"
	"github.com/qrave1/PairSpeak/internal/usecase"
)

type syncLoop struct{}

func (syncLoop) Post(task func()) bool { task(); return true }

func (syncLoop) Call(_ context.Context, task func()) error { task(); return nil }

type fakeCore struct {
	usecase.SignalingUsecase

	suspended map[string]string
}

func (f *fakeCore) GroupCounts() []output.GroupCount {
	return []output.GroupCount{{GroupID: "g1", Count: 2}}
}

func (f *fakeCore) SuspendUser(userID, reason string) int {
	f.suspended[userID] = reason
	return 1
}

func (f *fakeCore) Stats() usecase.Stats {
	return usecase.Stats{Connections: 3, Waiting: 1}
}

type fakeMessages struct {
	limit int
}

func (f *fakeMessages) Create(context.Context, *models.ChatMessage) error { return nil }

func (f *fakeMessages) ListByGroup(_ context.Context, groupID string, limit int) ([]*models.ChatMessage, error) {
	f.limit = limit
	return []*models.ChatMessage{{GroupID: groupID, Text: "hello"}}, nil
}

type failingIssuer struct{}

func (failingIssuer) Issue(string, string) (webrtc.ICEServer, error) {
	return webrtc.ICEServer{}, errors.New("no secret")
}

func newTestEcho(core *fakeCore, messages *fakeMessages) *echo.Echo {
	groups := NewGroupHandler(syncLoop{}, core, messages)
	admin := NewAdminHandler(syncLoop{}, core)

	e := echo.New()
	e.GET("/groups", groups.ListGroups)
	e.GET("/groups/:id/messages", groups.History)
	e.POST("/users/:id/suspend", admin.SuspendUser)
	e.GET("/stats", admin.Stats)
	e.GET("/ice", NewIceHandler(staticIssuer{}).IceServers)
	e.GET("/ice-broken", NewIceHandler(failingIssuer{}).IceServers)

	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestGroupHandlers(t *testing.T) {
	messages := &fakeMessages{}
	e := newTestEcho(&fakeCore{}, messages)

	rec := do(e, http.MethodGet, "/groups", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"groupId":"g1"`) {
		t.Fatalf("groups: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/groups/g1/messages?limit=1000", "")
	if rec.Code != http.StatusOK || messages.limit != maxHistoryLimit {
		t.Fatalf("history: %d, limit %d", rec.Code, messages.limit)
	}

	do(e, http.MethodGet, "/groups/g1/messages", "")
	if messages.limit != defaultHistoryLimit {
		t.Fatalf("default limit = %d", messages.limit)
	}

	if rec = do(e, http.MethodGet, "/groups/g1/messages?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

func TestAdminHandlers(t *testing.T) {
	core := &fakeCore{suspended: make(map[string]string)}
	e := newTestEcho(core, &fakeMessages{})

	rec := do(e, http.MethodPost, "/users/u1/suspend", `{"reason":"spam"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("suspend status = %d", rec.Code)
	}

	if core.suspended["u1"] != "spam" {
		t.Fatalf("suspended = %v", core.suspended)
	}

	rec = do(e, http.MethodGet, "/stats", "")

	var stats usecase.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil || stats.Connections != 3 {
		t.Fatalf("stats = %+v, err %v", stats, err)
	}
}

func TestIceHandler(t *testing.T) {
	e := newTestEcho(&fakeCore{}, &fakeMessages{})

	rec := do(e, http.MethodGet, "/ice?room=voice-1&name=ann", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "voice-1") {
		t.Fatalf("ice: %d %s", rec.Code, rec.Body.String())
	}

	if rec = do(e, http.MethodGet, "/ice-broken", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("broken ice status = %d", rec.Code)
	}
}
