package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

var ErrLoopStopped = errors.New("event loop stopped")

// EventLoop выполняет задачи строго по одной в одной горутине.
// Все состояние сигналинга меняется только отсюда, поэтому блокировки не нужны.
type EventLoop struct {
	tasks   chan func()
	stopped chan struct{}
}

func NewEventLoop(buffer int) *EventLoop {
	return &EventLoop{
		tasks:   make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled.
func (l *EventLoop) Run(ctx context.Context) error {
	defer close(l.stopped)

	slog.Info("event loop started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("event loop stopped")
			return nil
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

func (l *EventLoop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(
				"event loop task panicked",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	task()
}

// Post enqueues task, false when the loop is gone. Must not be called from inside a task.
func (l *EventLoop) Post(task func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}

	select {
	case l.tasks <- task:
		return true
	case <-l.stopped:
		return false
	}
}

// Call runs task on the loop and waits for it to finish.
func (l *EventLoop) Call(ctx context.Context, task func()) error {
	done := make(chan struct{})

	if !l.Post(func() {
		defer close(done)
		task()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}
