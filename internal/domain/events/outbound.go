package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/qrave1/PairSpeak/internal/domain/output"
)

// Outbound is the closed set of server to client events.
type Outbound interface {
	Type() string
	outbound()
}

// Connected - первое событие после подключения, сообщает клиенту его connection id
type Connected struct {
	ConnectionID string   `json:"connectionId"`
	Identity     Identity `json:"identity"`
}

type Waiting struct {
	Mode     string `json:"mode"`
	Position int    `json:"position"`
}

// Matched - пара найдена. Initiator создает offer.
type Matched struct {
	SessionID  string             `json:"sessionId"`
	Mode       string             `json:"mode"`
	Partner    Identity           `json:"partner"`
	RoomName   string             `json:"roomName,omitempty"`
	Duration   int64              `json:"duration,omitempty"`
	Initiator  bool               `json:"initiator"`
	IceServers []webrtc.ICEServer `json:"iceServers,omitempty"`
}

type PartnerDisconnected struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type SessionEnded struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type RelayedSignal struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type OnlineUsers struct {
	GroupID string                  `json:"groupId"`
	Users   []output.OnlineUserInfo `json:"users"`
}

type AllGroupCounts struct {
	Groups []output.GroupCount `json:"groups"`
}

type GroupMessage struct {
	ID      string    `json:"id"`
	GroupID string    `json:"groupId"`
	Sender  Identity  `json:"sender"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sentAt"`
}

type GroupTopic struct {
	GroupID string `json:"groupId"`
	Topic   string `json:"topic"`
	SetBy   string `json:"setBy,omitempty"`
}

type ForceLogout struct {
	Reason string `json:"reason"`
}

type Error struct {
	Message string `json:"message"`
}

type Pong struct{}

func (Connected) Type() string           { return TypeConnected }
func (Waiting) Type() string             { return TypeWaiting }
func (Matched) Type() string             { return TypeMatched }
func (PartnerDisconnected) Type() string { return TypePartnerDisconnected }
func (SessionEnded) Type() string        { return TypeSessionEnded }
func (RelayedSignal) Type() string       { return TypeSignal }
func (OnlineUsers) Type() string         { return TypeOnlineUsers }
func (AllGroupCounts) Type() string      { return TypeAllGroupCounts }
func (GroupMessage) Type() string        { return TypeGroupMessage }
func (GroupTopic) Type() string          { return TypeGroupTopic }
func (ForceLogout) Type() string         { return TypeForceLogout }
func (Error) Type() string               { return TypeError }
func (Pong) Type() string                { return TypePong }

func (Connected) outbound()           {}
func (Waiting) outbound()             {}
func (Matched) outbound()             {}
func (PartnerDisconnected) outbound() {}
func (SessionEnded) outbound()        {}
func (RelayedSignal) outbound()       {}
func (OnlineUsers) outbound()         {}
func (AllGroupCounts) outbound()      {}
func (GroupMessage) outbound()        {}
func (GroupTopic) outbound()          {}
func (ForceLogout) outbound()         {}
func (Error) outbound()               {}
func (Pong) outbound()                {}

// Encode wraps an outbound event into the {type, data} envelope.
func Encode(ev Outbound) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Type(), err)
	}

	raw, err := json.Marshal(Message{Type: ev.Type(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return raw, nil
}
