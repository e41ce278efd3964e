package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	MarkEnded(ctx context.Context, id uuid.UUID, endedAt time.Time, reason string) error
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

// Create is idempotent so a retried write does not fail on the primary key.
func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, mode, room_name, participant_a, participant_b, status, duration_seconds, end_reason, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		session.ID,
		session.Mode,
		session.RoomName,
		session.ParticipantA,
		session.ParticipantB,
		session.Status,
		session.DurationSeconds,
		session.EndReason,
		session.StartedAt,
		session.EndedAt,
	)

	return err
}

// MarkEnded only touches active rows: an ended session is immutable.
func (r *sessionRepo) MarkEnded(ctx context.Context, id uuid.UUID, endedAt time.Time, reason string) error {
	_, err := r.db.ExecContext(
		ctx,
		"UPDATE sessions SET status = $1, ended_at = $2, end_reason = $3 WHERE id = $4 AND status = $5",
		models.SessionEnded,
		endedAt,
		reason,
		id,
		models.SessionActive,
	)

	return err
}
