package postgres

import (
	"context"
	"fmt"

	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/infra/adapters/postgres/repository"
)

// StoreSink пишет записи моста в postgres
type StoreSink struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	rooms    repository.RoomRepository
}

func NewStoreSink(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
) *StoreSink {
	return &StoreSink{sessions: sessions, messages: messages, rooms: rooms}
}

func (s *StoreSink) Name() string {
	return "postgres"
}

func (s *StoreSink) Write(ctx context.Context, record models.Record) error {
	switch r := record.(type) {
	case models.SessionStarted:
		if err := s.sessions.Create(ctx, &r.Session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

	case models.SessionFinished:
		// started record may have been lost: create first, then close
		if err := s.sessions.Create(ctx, &r.Session); err != nil {
			return fmt.Errorf("ensure session: %w", err)
		}

		if err := s.sessions.MarkEnded(ctx, r.Session.ID, *r.Session.EndedAt, r.Session.EndReason); err != nil {
			return fmt.Errorf("mark session ended: %w", err)
		}

	case models.GroupMessagePosted:
		if err := s.messages.Create(ctx, &r.Message); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

	case models.GroupTopicChanged:
		if err := s.rooms.UpsertTopic(ctx, &r.Room); err != nil {
			return fmt.Errorf("upsert room topic: %w", err)
		}
	}

	return nil
}
