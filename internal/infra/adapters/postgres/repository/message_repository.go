package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error

	// ListByGroup returns the latest messages of a group, oldest first.
	ListByGroup(ctx context.Context, groupID string, limit int) ([]*models.ChatMessage, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepo(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, message *models.ChatMessage) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO group_messages (id, group_id, sender_id, sender_name, text, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		message.ID,
		message.GroupID,
		message.SenderID,
		message.SenderName,
		message.Text,
		message.SentAt,
	)

	return err
}

func (r *messageRepo) ListByGroup(ctx context.Context, groupID string, limit int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage

	query := `
		SELECT * FROM (
			SELECT *
			FROM group_messages
			WHERE group_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		) latest
		ORDER BY sent_at ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, groupID, limit)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
