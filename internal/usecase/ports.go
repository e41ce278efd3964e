package usecase

import (
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/qrave1/PairSpeak/internal/domain/models"
)

// Recorder принимает записи для асинхронного сохранения, не блокирует
type Recorder interface {
	Record(record models.Record)
}

// MediaTokenIssuer выдает временные креды для внешнего медиа relay
type MediaTokenIssuer interface {
	Issue(roomName, displayName string) (webrtc.ICEServer, error)
}

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f on its own goroutine after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*signalingUsecase)

// WithClock replaces wall clock and timers, used by tests.
func WithClock(now func() time.Time, afterFunc AfterFunc) Option {
	return func(s *signalingUsecase) {
		s.now = now
		s.afterFunc = afterFunc
	}
}
