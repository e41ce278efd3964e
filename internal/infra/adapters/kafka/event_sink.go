package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventSink публикует события сессий и сообщения групп в kafka
type EventSink struct {
	writer messageWriter
	now    func() time.Time
}

func NewEventSink(brokers []string, topic string) *EventSink {
	return &EventSink{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			// мост пишет по одной записи синхронно, ждать добора батча нельзя
			BatchSize:    1,
			BatchTimeout: batchTimeout,
		},
		now: time.Now,
	}
}

type envelope struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func (s *EventSink) Name() string {
	return "kafka"
}

func (s *EventSink) Write(ctx context.Context, record models.Record) error {
	msg, ok, err := s.encode(record)
	if err != nil || !ok {
		return err
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	return nil
}

// encode keys messages by session or group so one stream stays ordered per partition.
func (s *EventSink) encode(record models.Record) (kafkago.Message, bool, error) {
	var (
		key  string
		data any
	)

	switch r := record.(type) {
	case models.SessionStarted:
		key, data = r.Session.ID.String(), r.Session
	case models.SessionFinished:
		key, data = r.Session.ID.String(), r.Session
	case models.GroupMessagePosted:
		key, data = r.Message.GroupID, r.Message
	case models.GroupTopicChanged:
		key, data = r.Room.ID, r.Room
	default:
		return kafkago.Message{}, false, nil
	}

	value, err := json.Marshal(envelope{Kind: record.Kind(), OccurredAt: s.now().UTC(), Data: data})
	if err != nil {
		return kafkago.Message{}, false, fmt.Errorf("marshal %s: %w", record.Kind(), err)
	}

	return kafkago.Message{Key: []byte(key), Value: value}, true, nil
}

func (s *EventSink) Close() error {
	return s.writer.Close()
}
