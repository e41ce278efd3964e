package events

import (
	"encoding/json"
	"errors"
)

// Message - общее событие
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Входящие события
const (
	TypeJoin             = "join"
	TypeJoinChat         = "join-chat"
	TypeLeaveSession     = "leave-session"
	TypeSignal           = "signal"
	TypeJoinGroup        = "join-group"
	TypeLeaveGroup       = "leave-group"
	TypeSendGroupMessage = "send-group-message"
	TypeSetGroupTopic    = "set-group-topic"
	TypeSubscribeLobby   = "subscribe-lobby"
	TypeUnsubscribeLobby = "unsubscribe-lobby"
	TypePing             = "ping"
	TypeAdminSuspendUser = "admin:suspend-user"
)

// Исходящие события
const (
	TypeConnected           = "connected"
	TypeWaiting             = "waiting"
	TypeMatched             = "matched"
	TypePartnerDisconnected = "partner-disconnected"
	TypeSessionEnded        = "session-ended"
	TypeOnlineUsers         = "update-online-users"
	TypeAllGroupCounts      = "update-all-group-counts"
	TypeGroupMessage        = "receive-group-message"
	TypeGroupTopic          = "group-topic-updated"
	TypeForceLogout         = "force-logout"
	TypeError               = "error"
	TypePong                = "pong"
)

var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrMalformedEvent = errors.New("malformed event")
)

// Identity - публичная идентичность участника
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
