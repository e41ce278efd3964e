package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/domain/models"
)

const presenceKeyPrefix = "presence:user:"

// PresenceSink зеркалит онлайн-статус пользователей в redis для других сервисов.
// Источник правды - реестр соединений в памяти, сюда только пишем.
type PresenceSink struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceSink(cfg config.RedisConfig) *PresenceSink {
	return &PresenceSink{
		client: goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.PresenceTTL,
	}
}

type presenceValue struct {
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

func PresenceKey(userID string) string {
	return presenceKeyPrefix + userID
}

func (s *PresenceSink) Name() string {
	return "redis"
}

func (s *PresenceSink) Write(ctx context.Context, record models.Record) error {
	presence, ok := record.(models.PresenceChanged)
	if !ok {
		return nil
	}

	key := PresenceKey(presence.UserID)

	if !presence.Online {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}

		return nil
	}

	value, err := json.Marshal(presenceValue{Name: presence.Name, Groups: presence.Groups})
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}

	if err = s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

func (s *PresenceSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *PresenceSink) Close() error {
	return s.client.Close()
}
