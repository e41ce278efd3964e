package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Причины завершения сессии
const (
	EndReasonLeft         = "left"
	EndReasonDisconnected = "disconnected"
	EndReasonTimeout      = "time's up"
	EndReasonSuspended    = "suspended"
)

// Session - сохраненная запись о паре. ParticipantA/B - id пользователя или id соединения для анонимов.
type Session struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Mode            string        `json:"mode" db:"mode"`
	RoomName        string        `json:"room_name" db:"room_name"`
	ParticipantA    string        `json:"participant_a" db:"participant_a"`
	ParticipantB    string        `json:"participant_b" db:"participant_b"`
	Status          SessionStatus `json:"status" db:"status"`
	DurationSeconds int64         `json:"duration_seconds" db:"duration_seconds"`
	EndReason       string        `json:"end_reason" db:"end_reason"`
	StartedAt       time.Time     `json:"started_at" db:"started_at"`
	EndedAt         *time.Time    `json:"ended_at" db:"ended_at"`
}

// End returns the immutable ended form of the session.
func (s Session) End(at time.Time, reason string) Session {
	s.Status = SessionEnded
	s.EndReason = reason
	s.EndedAt = &at

	return s
}
