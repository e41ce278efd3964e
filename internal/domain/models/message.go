package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	GroupID    string    `json:"group_id" db:"group_id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	SenderName string    `json:"sender_name" db:"sender_name"`
	Text       string    `json:"text" db:"text"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
}
