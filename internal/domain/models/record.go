package models

// Record - запись для моста персистентности
type Record interface {
	Kind() string
}

type SessionStarted struct {
	Session Session
}

type SessionFinished struct {
	Session Session
}

type GroupMessagePosted struct {
	Message ChatMessage
}

type GroupTopicChanged struct {
	Room Room
}

// PresenceChanged - пользователь появился или пропал из сети, Groups - его текущие группы
type PresenceChanged struct {
	UserID string
	Name   string
	Online bool
	Groups []string
}

func (SessionStarted) Kind() string     { return "session_started" }
func (SessionFinished) Kind() string    { return "session_ended" }
func (GroupMessagePosted) Kind() string { return "group_message" }
func (GroupTopicChanged) Kind() string  { return "group_topic" }
func (PresenceChanged) Kind() string    { return "presence" }
