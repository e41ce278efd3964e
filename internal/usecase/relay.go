package usecase

import (
	"encoding/json"
	"log/slog"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

// relay forwards an opaque handshake payload. At most once, no buffering:
// a target that is gone or no longer related to the sender is a silent drop.
func (s *signalingUsecase) relay(from *runtime.Connection, toID string, payload json.RawMessage) {
	to, ok := s.registry.Lookup(toID)
	if !ok || !canSignal(from, to) {
		metric.IncrementSignalsDropped()

		slog.Debug(
			"signal dropped",
			slog.String(constant.ConnectionID, from.ID),
			slog.String("target", toID),
		)

		return
	}

	s.send(to, events.RelayedSignal{From: from.ID, Payload: payload})
}

// canSignal allows the current session partner or a member of a shared group.
func canSignal(from, to *runtime.Connection) bool {
	if from.ID == to.ID {
		return false
	}

	if from.PartnerID == to.ID && to.PartnerID == from.ID {
		return true
	}

	for groupID := range from.Rooms {
		if _, ok := to.Rooms[groupID]; ok {
			return true
		}
	}

	return false
}
