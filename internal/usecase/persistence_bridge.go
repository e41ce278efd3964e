package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/qrave1/PairSpeak/internal/application/config"
	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/models"
)

// Sink - внешнее хранилище записей. Записи чужого типа sink пропускает.
type Sink interface {
	Name() string
	Write(ctx context.Context, record models.Record) error
}

// sinkQueue - своя очередь и свой воркер на каждый sink:
// медленный или упавший sink теряет только свои записи.
type sinkQueue struct {
	sink    Sink
	records chan models.Record
}

// PersistenceBridge пишет записи в sinks в фоне. Ошибки логируются и проглатываются.
type PersistenceBridge struct {
	queues []*sinkQueue

	writeTimeout time.Duration
	maxRetries   uint64
	backoffBase  time.Duration
}

func NewPersistenceBridge(cfg config.BridgeConfig, sinks ...Sink) *PersistenceBridge {
	queues := make([]*sinkQueue, 0, len(sinks))
	for _, sink := range sinks {
		queues = append(queues, &sinkQueue{
			sink:    sink,
			records: make(chan models.Record, cfg.BufferSize),
		})
	}

	return &PersistenceBridge{
		queues:       queues,
		writeTimeout: cfg.WriteTimeout,
		maxRetries:   cfg.MaxRetries,
		backoffBase:  100 * time.Millisecond,
	}
}

// Record never blocks the caller; a sink whose buffer is full drops the record.
func (b *PersistenceBridge) Record(record models.Record) {
	for _, q := range b.queues {
		select {
		case q.records <- record:
		default:
			metric.RecordBridgeResult(q.sink.Name(), record.Kind(), "dropped")

			slog.Error(
				"persistence buffer full, record dropped",
				slog.String(constant.Sink, q.sink.Name()),
				slog.String("kind", record.Kind()),
			)
		}
	}
}

// Run starts one worker per sink and returns when all of them have drained after ctx is cancelled.
// Writes in flight are not cut by the cancellation, only by the write timeout.
func (b *PersistenceBridge) Run(ctx context.Context) error {
	var g errgroup.Group

	for _, q := range b.queues {
		g.Go(func() error {
			b.runQueue(ctx, q)
			return nil
		})
	}

	return g.Wait()
}

func (b *PersistenceBridge) runQueue(ctx context.Context, q *sinkQueue) {
	writeCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			b.drain(writeCtx, q)
			return
		default:
		}

		select {
		case record := <-q.records:
			b.write(writeCtx, q.sink, record)
		case <-ctx.Done():
			b.drain(writeCtx, q)
			return
		}
	}
}

func (b *PersistenceBridge) drain(ctx context.Context, q *sinkQueue) {
	for {
		select {
		case record := <-q.records:
			b.write(ctx, q.sink, record)
		default:
			return
		}
	}
}

func (b *PersistenceBridge) write(ctx context.Context, sink Sink, record models.Record) {
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(b.backoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		writeCtx, cancel := context.WithTimeout(ctx, b.writeTimeout)
		defer cancel()

		if err := sink.Write(writeCtx, record); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	})

	if err != nil {
		metric.RecordBridgeResult(sink.Name(), record.Kind(), "failed")

		slog.Error(
			"persist record",
			slog.Any(constant.Error, err),
			slog.String(constant.Sink, sink.Name()),
			slog.String("kind", record.Kind()),
		)

		return
	}

	metric.RecordBridgeResult(sink.Name(), record.Kind(), "ok")
}
