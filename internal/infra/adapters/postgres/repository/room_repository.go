package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type RoomRepository interface {
	UpsertTopic(ctx context.Context, room *models.Room) error
	ListWithTopic(ctx context.Context) ([]*models.Room, error)
}

type roomRepo struct {
	db *sqlx.DB
}

func NewRoomRepo(db *sqlx.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) UpsertTopic(ctx context.Context, room *models.Room) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO rooms (id, topic, updated_by, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET topic = EXCLUDED.topic, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		room.ID,
		room.Topic,
		room.UpdatedBy,
		room.UpdatedAt,
	)

	return err
}

func (r *roomRepo) ListWithTopic(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room

	err := r.db.SelectContext(ctx, &rooms, "SELECT * FROM rooms WHERE topic <> ''")
	if err != nil {
		return nil, err
	}

	return rooms, nil
}
