package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 64
	maxTopicLength   = 256
	maxMessageLength = 4096
)

// Inbound is the closed set of client to server events.
type Inbound interface {
	Type() string
	validate() error
}

type Join struct {
	Mode string `json:"mode"`
}

type JoinChat struct {
	Name string `json:"name"`
}

type LeaveSession struct{}

// Signal carries an opaque handshake payload (offer, answer or candidate).
type Signal struct {
	PartnerID string          `json:"partnerId"`
	Payload   json.RawMessage `json:"payload"`
}

type JoinGroup struct {
	GroupID  string   `json:"groupId"`
	Identity Identity `json:"identity"`
}

type LeaveGroup struct {
	GroupID  string   `json:"groupId"`
	Identity Identity `json:"identity"`
}

type SendGroupMessage struct {
	GroupID string   `json:"groupId"`
	Sender  Identity `json:"sender"`
	Text    string   `json:"text"`
}

type SetGroupTopic struct {
	GroupID string `json:"groupId"`
	Topic   string `json:"topic"`
}

type SubscribeLobby struct{}

type UnsubscribeLobby struct{}

type Ping struct{}

type AdminSuspendUser struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

func (Join) Type() string             { return TypeJoin }
func (JoinChat) Type() string         { return TypeJoinChat }
func (LeaveSession) Type() string     { return TypeLeaveSession }
func (Signal) Type() string           { return TypeSignal }
func (JoinGroup) Type() string        { return TypeJoinGroup }
func (LeaveGroup) Type() string       { return TypeLeaveGroup }
func (SendGroupMessage) Type() string { return TypeSendGroupMessage }
func (SetGroupTopic) Type() string    { return TypeSetGroupTopic }
func (SubscribeLobby) Type() string   { return TypeSubscribeLobby }
func (UnsubscribeLobby) Type() string { return TypeUnsubscribeLobby }
func (Ping) Type() string             { return TypePing }
func (AdminSuspendUser) Type() string { return TypeAdminSuspendUser }

func (e Join) validate() error {
	return required("mode", e.Mode)
}

func (e JoinChat) validate() error {
	return maxLen("name", e.Name, maxNameLength)
}

func (LeaveSession) validate() error { return nil }

func (e Signal) validate() error {
	if err := required("partnerId", e.PartnerID); err != nil {
		return err
	}

	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return fmt.Errorf("%w: payload is required", ErrMalformedEvent)
	}

	return nil
}

func (e JoinGroup) validate() error {
	if err := required("groupId", e.GroupID); err != nil {
		return err
	}

	return maxLen("identity.name", e.Identity.Name, maxNameLength)
}

func (e LeaveGroup) validate() error {
	return required("groupId", e.GroupID)
}

func (e SendGroupMessage) validate() error {
	if err := required("groupId", e.GroupID); err != nil {
		return err
	}

	if err := required("text", e.Text); err != nil {
		return err
	}

	return maxLen("text", e.Text, maxMessageLength)
}

func (e SetGroupTopic) validate() error {
	if err := required("groupId", e.GroupID); err != nil {
		return err
	}

	return maxLen("topic", e.Topic, maxTopicLength)
}

func (SubscribeLobby) validate() error   { return nil }
func (UnsubscribeLobby) validate() error { return nil }
func (Ping) validate() error             { return nil }

func (e AdminSuspendUser) validate() error {
	return required("userId", e.UserID)
}

// Decode parses a raw frame into one of the Inbound variants.
func Decode(raw []byte) (Inbound, error) {
	var msg Message

	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var ev Inbound

	switch msg.Type {
	case TypeJoin:
		ev = &Join{}
	case TypeJoinChat:
		ev = &JoinChat{}
	case TypeLeaveSession:
		ev = &LeaveSession{}
	case TypeSignal:
		ev = &Signal{}
	case TypeJoinGroup:
		ev = &JoinGroup{}
	case TypeLeaveGroup:
		ev = &LeaveGroup{}
	case TypeSendGroupMessage:
		ev = &SendGroupMessage{}
	case TypeSetGroupTopic:
		ev = &SetGroupTopic{}
	case TypeSubscribeLobby:
		ev = &SubscribeLobby{}
	case TypeUnsubscribeLobby:
		ev = &UnsubscribeLobby{}
	case TypePing:
		ev = &Ping{}
	case TypeAdminSuspendUser:
		ev = &AdminSuspendUser{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}

	if len(msg.Data) > 0 && string(msg.Data) != "null" {
		if err := json.Unmarshal(msg.Data, ev); err != nil {
			return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrMalformedEvent, msg.Type, err)
		}
	}

	if err := ev.validate(); err != nil {
		return nil, err
	}

	return deref(ev), nil
}

// deref hands out value variants so handlers switch on plain types.
func deref(ev Inbound) Inbound {
	switch e := ev.(type) {
	case *Join:
		return *e
	case *JoinChat:
		return *e
	case *LeaveSession:
		return *e
	case *Signal:
		return *e
	case *JoinGroup:
		return *e
	case *LeaveGroup:
		return *e
	case *SendGroupMessage:
		return *e
	case *SetGroupTopic:
		return *e
	case *SubscribeLobby:
		return *e
	case *UnsubscribeLobby:
		return *e
	case *Ping:
		return *e
	case *AdminSuspendUser:
		return *e
	}

	return ev
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrMalformedEvent, field)
	}

	return nil
}

// ValidateDisplayName applies the join-chat name limit to names from other sources.
func ValidateDisplayName(name string) error {
	return maxLen("name", name, maxNameLength)
}

func maxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrMalformedEvent, field, limit)
	}

	return nil
}
