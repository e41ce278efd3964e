package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type fakeWriter struct {
	messages []kafkago.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestEventSinkPublishes(t *testing.T) {
	writer := &fakeWriter{}
	sink := &EventSink{writer: writer, now: func() time.Time { return time.Unix(0, 0) }}

	id := uuid.New()

	records := []models.Record{
		models.SessionStarted{Session: models.Session{ID: id, Mode: "voice"}},
		models.GroupMessagePosted{Message: models.ChatMessage{GroupID: "g1", Text: "hi"}},
		models.PresenceChanged{UserID: "u1"},
	}

	for _, rec := range records {
		if err := sink.Write(context.Background(), rec); err != nil {
			t.Fatalf("write %s: %v", rec.Kind(), err)
		}
	}

	if len(writer.messages) != 2 {
		t.Fatalf("published %d messages, want 2 (presence is skipped)", len(writer.messages))
	}

	if string(writer.messages[0].Key) != id.String() || string(writer.messages[1].Key) != "g1" {
		t.Fatalf("keys = %s, %s", writer.messages[0].Key, writer.messages[1].Key)
	}

	var env struct {
		Kind string `json:"kind"`
	}

	if err := json.Unmarshal(writer.messages[1].Value, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if env.Kind != "group_message" {
		t.Fatalf("kind = %q", env.Kind)
	}
}

func TestNewEventSinkDoesNotWaitForBatch(t *testing.T) {
	sink := NewEventSink([]string{"localhost:9092"}, "signaling-events")
	defer sink.Close()

	writer, ok := sink.writer.(*kafkago.Writer)
	if !ok {
		t.Fatalf("writer = %T", sink.writer)
	}

	if writer.BatchSize != 1 || writer.BatchTimeout > batchTimeout {
		t.Fatalf("batch size = %d, timeout = %s", writer.BatchSize, writer.BatchTimeout)
	}
}
