package usecase

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/qrave1/PairSpeak/internal/application/constant"
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

const modeChat = "chat"

type activeSession struct {
	record       models.Session
	participants [2]string
	timer        Timer
}

func (a *activeSession) other(connID string) string {
	if a.participants[0] == connID {
		return a.participants[1]
	}

	return a.participants[0]
}

// join pairs conn with the oldest live waiter of mode, or queues it.
// A repeated join changes nothing, the display name included.
func (s *signalingUsecase) join(conn *runtime.Connection, mode, displayName string) error {
	if !s.cfg.IsKnownMode(mode) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if _, queued := s.queue.ModeOf(conn.ID); queued || conn.InSession() {
		return nil
	}

	if displayName != "" {
		conn.DisplayName = displayName
	}

	for {
		partnerID, ok := s.queue.PopFront(mode)
		if !ok {
			break
		}

		partner, live := s.registry.Lookup(partnerID)
		if !live || partner.InSession() {
			slog.Debug("skip stale queue head", slog.String(constant.ConnectionID, partnerID))
			continue
		}

		s.match(partner, conn, mode)

		return nil
	}

	position, _ := s.queue.Enqueue(mode, conn.ID)
	conn.Mode = mode

	s.send(conn, events.Waiting{Mode: mode, Position: position})

	return nil
}

// match links first (the earlier waiter) and second into a new session.
func (s *signalingUsecase) match(first, second *runtime.Connection, mode string) {
	id := uuid.New()
	sessionID := id.String()
	duration := s.cfg.DurationFor(mode)

	var roomName string
	if s.cfg.IsMediaMode(mode) {
		roomName = mode + "-" + sessionID
	}

	first.PartnerID, second.PartnerID = second.ID, first.ID
	first.SessionID, second.SessionID = sessionID, sessionID
	first.Mode, second.Mode = mode, mode

	sess := &activeSession{
		record: models.Session{
			ID:              id,
			Mode:            mode,
			RoomName:        roomName,
			ParticipantA:    first.ActorID(),
			ParticipantB:    second.ActorID(),
			Status:          models.SessionActive,
			DurationSeconds: int64(duration.Seconds()),
			StartedAt:       s.now().UTC(),
		},
		participants: [2]string{first.ID, second.ID},
	}

	s.sessions[sessionID] = sess

	if duration > 0 {
		sess.timer = s.afterFunc(duration, func() {
			s.post(func() { s.expireSession(sessionID) })
		})
	}

	s.send(first, s.matchedEvent(sess, first, second, true))
	s.send(second, s.matchedEvent(sess, second, first, false))

	s.recorder.Record(models.SessionStarted{Session: sess.record})

	metric.IncrementMatches(mode)

	slog.Info(
		"session matched",
		slog.String(constant.SessionID, sessionID),
		slog.String(constant.Mode, mode),
	)
}

func (s *signalingUsecase) matchedEvent(sess *activeSession, self, partner *runtime.Connection, initiator bool) events.Matched {
	ev := events.Matched{
		SessionID: sess.record.ID.String(),
		Mode:      sess.record.Mode,
		Partner:   partner.Identity(),
		RoomName:  sess.record.RoomName,
		Duration:  sess.record.DurationSeconds,
		Initiator: initiator,
	}

	if ev.RoomName == "" || s.media == nil {
		return ev
	}

	server, err := s.media.Issue(ev.RoomName, self.DisplayName)
	if err != nil {
		slog.Error(
			"issue media credentials",
			slog.Any(constant.Error, err),
			slog.String(constant.SessionID, ev.SessionID),
		)

		return ev
	}

	ev.IceServers = append(ev.IceServers, server)

	return ev
}

func (s *signalingUsecase) leaveSession(conn *runtime.Connection) {
	if s.queue.Remove(conn.ID) {
		conn.Mode = ""
		return
	}

	if conn.InSession() {
		s.endSession(conn.SessionID, conn.ID, models.EndReasonLeft)
	}
}

// endSession tears down a session left by leaverID and tells the partner.
func (s *signalingUsecase) endSession(sessionID, leaverID, reason string) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	s.closeSession(sess, reason)

	if partner, ok := s.registry.Lookup(sess.other(leaverID)); ok && partner.SessionID == sessionID {
		partner.ClearPartner()

		s.send(partner, events.PartnerDisconnected{SessionID: sessionID, Reason: reason})
	}

	if leaver, ok := s.registry.Lookup(leaverID); ok && leaver.SessionID == sessionID {
		leaver.ClearPartner()
	}
}

// expireSession runs when the fixed duration elapses. A session already torn down is ignored.
func (s *signalingUsecase) expireSession(sessionID string) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	s.closeSession(sess, models.EndReasonTimeout)

	for _, connID := range sess.participants {
		conn, ok := s.registry.Lookup(connID)
		if !ok || conn.SessionID != sessionID {
			continue
		}

		conn.ClearPartner()

		s.send(conn, events.SessionEnded{SessionID: sessionID, Reason: models.EndReasonTimeout})
	}
}

func (s *signalingUsecase) closeSession(sess *activeSession, reason string) {
	delete(s.sessions, sess.record.ID.String())

	if sess.timer != nil {
		sess.timer.Stop()
	}

	s.recorder.Record(models.SessionFinished{Session: sess.record.End(s.now().UTC(), reason)})

	metric.IncrementSessionsEnded(reason)

	slog.Info(
		"session ended",
		slog.String(constant.SessionID, sess.record.ID.String()),
		slog.String(constant.Reason, reason),
	)
}
