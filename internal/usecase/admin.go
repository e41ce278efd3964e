package usecase

import (
	"log/slog"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
)

const defaultSuspendReason = "account suspended"

// SuspendUser pushes force-logout to every live connection of userID, cleans it up and closes the transport.
func (s *signalingUsecase) SuspendUser(userID, reason string) int {
	if reason == "" {
		reason = defaultSuspendReason
	}

	conns := s.registry.ByUserID(userID)

	for _, conn := range conns {
		transport := conn.Transport

		s.send(conn, events.ForceLogout{Reason: reason})
		s.disconnect(conn.ID, models.EndReasonSuspended)

		transport.Close()
	}

	slog.Info(
		"user suspended",
		slog.String(constant.UserID, userID),
		slog.Int("connections", len(conns)),
	)

	return len(conns)
}
