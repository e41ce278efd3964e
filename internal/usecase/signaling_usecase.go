package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/output"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/memory"
)

var (
	ErrUnknownMode    = errors.New("unknown mode")
	ErrNotGroupMember = errors.New("not a member of the group")
	ErrForbidden      = errors.New("forbidden")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// SignalingUsecase - ядро матчмейкинга и ретрансляции.
// Методы не потокобезопасны и вызываются только из EventLoop.
type SignalingUsecase interface {
	Connect(conn *runtime.Connection)
	Disconnect(connID string)

	HandleEvent(connID string, ev events.Inbound)
	Reject(connID string, err error)

	SuspendUser(userID, reason string) int

	BroadcastAllGroupCounts()
	RefreshPresence()
	LoadTopics(rooms []*models.Room)

	GroupCounts() []output.GroupCount
	Stats() Stats
}

type Stats struct {
	Connections    int            `json:"connections"`
	Waiting        int            `json:"waiting"`
	WaitingByMode  map[string]int `json:"waiting_by_mode"`
	ActiveSessions int            `json:"active_sessions"`
	Groups         int            `json:"groups"`
}

type signalingUsecase struct {
	cfg config.MatchmakingConfig

	registry memory.ConnectionRegistry
	queue    memory.WaitingQueue
	rooms    memory.RoomPresence

	// sessions хранит только активные сессии: map[session_id]*activeSession
	sessions map[string]*activeSession

	recorder Recorder
	media    MediaTokenIssuer

	// post возвращает работу в event loop (таймеры сессий)
	post func(func()) bool

	now       func() time.Time
	afterFunc AfterFunc
}

func NewSignalingUsecase(
	cfg config.MatchmakingConfig,
	registry memory.ConnectionRegistry,
	queue memory.WaitingQueue,
	rooms memory.RoomPresence,
	recorder Recorder,
	media MediaTokenIssuer,
	post func(func()) bool,
	opts ...Option,
) SignalingUsecase {
	s := &signalingUsecase{
		cfg:       cfg,
		registry:  registry,
		queue:     queue,
		rooms:     rooms,
		sessions:  make(map[string]*activeSession),
		recorder:  recorder,
		media:     media,
		post:      post,
		now:       time.Now,
		afterFunc: realAfterFunc,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *signalingUsecase) Connect(conn *runtime.Connection) {
	s.registry.Register(conn)

	s.send(conn, events.Connected{ConnectionID: conn.ID, Identity: conn.Identity()})

	s.publishPresence(conn.Principal.ID, conn.DisplayName)

	slog.Info(
		"connection registered",
		slog.String(constant.ConnectionID, conn.ID),
		slog.String(constant.UserID, conn.Principal.ID),
	)
}

func (s *signalingUsecase) Disconnect(connID string) {
	s.disconnect(connID, models.EndReasonDisconnected)
}

// disconnect cleans every trace of the connection using the state Unregister hands back.
func (s *signalingUsecase) disconnect(connID, reason string) {
	state, ok := s.registry.Unregister(connID)
	if !ok {
		return
	}

	s.queue.Remove(connID)

	if state.SessionID != "" {
		s.endSession(state.SessionID, connID, reason)
	}

	if len(state.Rooms) > 0 {
		for _, groupID := range sortedKeys(state.Rooms) {
			if s.rooms.Leave(groupID, connID) {
				s.broadcastOnlineUsers(groupID)
			}
		}

		s.BroadcastAllGroupCounts()
	}

	s.publishPresence(state.Principal.ID, state.DisplayName)

	slog.Info(
		"connection unregistered",
		slog.String(constant.ConnectionID, connID),
		slog.String(constant.UserID, state.Principal.ID),
	)
}

func (s *signalingUsecase) HandleEvent(connID string, ev events.Inbound) {
	conn, ok := s.registry.Lookup(connID)
	if !ok {
		return
	}

	var err error

	switch e := ev.(type) {
	case events.Join:
		err = s.join(conn, e.Mode, "")

	case events.JoinChat:
		err = s.join(conn, modeChat, e.Name)

	case events.LeaveSession:
		s.leaveSession(conn)

	case events.Signal:
		s.relay(conn, e.PartnerID, e.Payload)

	case events.JoinGroup:
		s.joinGroup(conn, e)

	case events.LeaveGroup:
		s.leaveGroup(conn, e.GroupID)

	case events.SendGroupMessage:
		err = s.sendGroupMessage(conn, e)

	case events.SetGroupTopic:
		err = s.setGroupTopic(conn, e)

	case events.SubscribeLobby:
		conn.Lobby = true
		s.send(conn, events.AllGroupCounts{Groups: s.rooms.Counts()})

	case events.UnsubscribeLobby:
		conn.Lobby = false

	case events.Ping:
		s.send(conn, events.Pong{})

	case events.AdminSuspendUser:
		if !conn.Principal.IsAdmin() {
			err = fmt.Errorf("%w: %s requires admin role", ErrForbidden, e.Type())
			break
		}

		s.SuspendUser(e.UserID, e.Reason)

	default:
		err = fmt.Errorf("%w: %s", events.ErrUnknownEvent, ev.Type())
	}

	if err != nil {
		s.reject(conn, err)
	}
}

func (s *signalingUsecase) Reject(connID string, err error) {
	conn, ok := s.registry.Lookup(connID)
	if !ok {
		return
	}

	s.reject(conn, err)
}

// reject drops the offending event for this connection only.
func (s *signalingUsecase) reject(conn *runtime.Connection, err error) {
	reason := rejectReason(err)

	metric.IncrementInboundRejected(reason)

	slog.Warn(
		"inbound event rejected",
		slog.Any(constant.Error, err),
		slog.String(constant.Reason, reason),
		slog.String(constant.ConnectionID, conn.ID),
	)

	s.send(conn, events.Error{Message: err.Error()})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnknownMode):
		return "unknown_mode"
	case errors.Is(err, ErrNotGroupMember):
		return "not_member"
	case errors.Is(err, events.ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, events.ErrMalformedEvent):
		return "malformed"
	default:
		return "other"
	}
}

// send never blocks the loop; a client that cannot keep up is closed and cleaned up on its disconnect.
func (s *signalingUsecase) send(conn *runtime.Connection, ev events.Outbound) {
	err := conn.Transport.Send(ev)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, runtime.ErrBackpressure):
		slog.Warn(
			"client send queue full, closing connection",
			slog.String(constant.ConnectionID, conn.ID),
			slog.String(constant.EventType, ev.Type()),
		)

		conn.Transport.Close()

	case errors.Is(err, runtime.ErrTransportClosed):
		slog.Debug("send to closed transport", slog.String(constant.ConnectionID, conn.ID))

	default:
		slog.Error(
			"send event",
			slog.Any(constant.Error, err),
			slog.String(constant.ConnectionID, conn.ID),
			slog.String(constant.EventType, ev.Type()),
		)
	}
}

// sendTo resolves the target first; a missing target is a routing miss, not an error.
func (s *signalingUsecase) sendTo(connID string, ev events.Outbound) bool {
	conn, ok := s.registry.Lookup(connID)
	if !ok {
		slog.Debug(
			"recipient already gone",
			slog.String(constant.ConnectionID, connID),
			slog.String(constant.EventType, ev.Type()),
		)

		return false
	}

	s.send(conn, ev)

	return true
}

func (s *signalingUsecase) LoadTopics(rooms []*models.Room) {
	for _, room := range rooms {
		s.rooms.SetTopic(room.ID, room.Topic)
	}
}

func (s *signalingUsecase) GroupCounts() []output.GroupCount {
	return s.rooms.Counts()
}

func (s *signalingUsecase) Stats() Stats {
	byMode := make(map[string]int, len(s.cfg.Modes))
	for _, mode := range s.cfg.Modes {
		byMode[mode] = s.queue.Len(mode)
	}

	return Stats{
		Connections:    s.registry.Len(),
		Waiting:        s.queue.Total(),
		WaitingByMode:  byMode,
		ActiveSessions: len(s.sessions),
		Groups:         len(s.rooms.Counts()),
	}
}
