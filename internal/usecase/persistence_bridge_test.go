package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/domain/models"
)

type recordingSink struct {
	name string

	mu       sync.Mutex
	failures int
	attempts int
	written  []models.Record
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++

	if s.failures > 0 {
		s.failures--
		return errors.New("store unavailable")
	}

	s.written = append(s.written, record)

	return nil
}

func (s *recordingSink) snapshot() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts, len(s.written)
}

func testBridgeConfig() config.BridgeConfig {
	return config.BridgeConfig{
		BufferSize:   4,
		WriteTimeout: time.Second,
		MaxRetries:   2,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestBridgeRetriesTransientFailure(t *testing.T) {
	sink := &recordingSink{name: "flaky", failures: 2}
	bridge := NewPersistenceBridge(testBridgeConfig(), sink)
	bridge.backoffBase = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go bridge.Run(ctx)

	bridge.Record(models.GroupMessagePosted{})

	waitFor(t, func() bool {
		_, written := sink.snapshot()
		return written == 1
	})

	if attempts, _ := sink.snapshot(); attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestBridgeFailingSinkDoesNotStopOthers(t *testing.T) {
	broken := &recordingSink{name: "broken", failures: 1000}
	healthy := &recordingSink{name: "healthy"}

	bridge := NewPersistenceBridge(testBridgeConfig(), broken, healthy)
	bridge.backoffBase = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go bridge.Run(ctx)

	bridge.Record(models.SessionStarted{})
	bridge.Record(models.SessionFinished{})

	waitFor(t, func() bool {
		_, written := healthy.snapshot()
		return written == 2
	})

	// broken sink runs on its own worker: 2 records x (1 try + 2 retries)
	waitFor(t, func() bool {
		attempts, _ := broken.snapshot()
		return attempts == 6
	})
}

// hangingSink blocks every write until the write timeout expires.
type hangingSink struct{}

func (hangingSink) Name() string { return "mirror" }

func (hangingSink) Write(ctx context.Context, _ models.Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBridgeHangingSinkDoesNotStarveOthers(t *testing.T) {
	store := &recordingSink{name: "postgres"}

	bridge := NewPersistenceBridge(config.BridgeConfig{
		BufferSize:   16,
		WriteTimeout: 200 * time.Millisecond,
		MaxRetries:   2,
	}, hangingSink{}, store)
	bridge.backoffBase = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go bridge.Run(ctx)

	// each record costs the hanging sink about 600ms; the store must not wait for it
	const batches, batchSize = 5, 8

	for i := 1; i <= batches; i++ {
		for j := 0; j < batchSize; j++ {
			bridge.Record(models.GroupMessagePosted{})
		}

		waitFor(t, func() bool {
			_, written := store.snapshot()
			return written == i*batchSize
		})
	}

	if attempts, written := store.snapshot(); attempts != written {
		t.Fatalf("store attempts = %d, written = %d", attempts, written)
	}
}

func TestBridgeRecordNeverBlocks(t *testing.T) {
	bridge := NewPersistenceBridge(testBridgeConfig(), &recordingSink{name: "idle"})

	done := make(chan struct{})

	go func() {
		defer close(done)

		// worker is not running: the buffer fills and the rest is dropped
		for i := 0; i < 100; i++ {
			bridge.Record(models.GroupMessagePosted{})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked")
	}

	if got := len(bridge.queues[0].records); got != 4 {
		t.Fatalf("buffered = %d, want 4", got)
	}
}

func TestBridgeDrainsOnShutdown(t *testing.T) {
	sink := &recordingSink{name: "store"}
	bridge := NewPersistenceBridge(testBridgeConfig(), sink)

	bridge.Record(models.SessionStarted{})
	bridge.Record(models.SessionFinished{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := bridge.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, written := sink.snapshot(); written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}
}
