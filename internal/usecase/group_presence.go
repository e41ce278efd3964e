package usecase

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
	"github.com/qrave1/PairSpeak/internal/domain/output"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

func (s *signalingUsecase) joinGroup(conn *runtime.Connection, ev events.JoinGroup) {
	member := output.OnlineUserInfo{
		ConnectionID: conn.ID,
		ID:           displayID(conn, ev.Identity.ID),
		Name:         displayName(conn, ev.Identity.Name),
	}

	s.rooms.Join(ev.GroupID, member)
	conn.Rooms[ev.GroupID] = struct{}{}

	s.broadcastOnlineUsers(ev.GroupID)

	if topic := s.rooms.Topic(ev.GroupID); topic != "" {
		s.send(conn, events.GroupTopic{GroupID: ev.GroupID, Topic: topic})
	}

	s.BroadcastAllGroupCounts()
	s.publishPresence(conn.Principal.ID, conn.DisplayName)
}

func (s *signalingUsecase) leaveGroup(conn *runtime.Connection, groupID string) {
	if !s.rooms.Leave(groupID, conn.ID) {
		return
	}

	delete(conn.Rooms, groupID)

	s.broadcastOnlineUsers(groupID)
	s.BroadcastAllGroupCounts()
	s.publishPresence(conn.Principal.ID, conn.DisplayName)
}

// broadcastOnlineUsers sends the member list rebuilt from the current set to every member.
func (s *signalingUsecase) broadcastOnlineUsers(groupID string) {
	users := s.rooms.Members(groupID)
	ev := events.OnlineUsers{GroupID: groupID, Users: users}

	for _, user := range users {
		s.sendTo(user.ConnectionID, ev)
	}
}

// sendGroupMessage delivers to every member including the sender, then persists.
func (s *signalingUsecase) sendGroupMessage(conn *runtime.Connection, ev events.SendGroupMessage) error {
	if !s.rooms.IsMember(ev.GroupID, conn.ID) {
		return fmt.Errorf("%w: %s", ErrNotGroupMember, ev.GroupID)
	}

	id := uuid.New()
	sentAt := s.now().UTC()
	sender := events.Identity{
		ID:   displayID(conn, ev.Sender.ID),
		Name: displayName(conn, ev.Sender.Name),
	}

	msg := events.GroupMessage{
		ID:      id.String(),
		GroupID: ev.GroupID,
		Sender:  sender,
		Text:    ev.Text,
		SentAt:  sentAt,
	}

	for _, member := range s.rooms.Members(ev.GroupID) {
		s.sendTo(member.ConnectionID, msg)
	}

	s.recorder.Record(models.GroupMessagePosted{
		Message: models.ChatMessage{
			ID:         id,
			GroupID:    ev.GroupID,
			SenderID:   sender.ID,
			SenderName: sender.Name,
			Text:       ev.Text,
			SentAt:     sentAt,
		},
	})

	metric.IncrementGroupMessages()

	return nil
}

func (s *signalingUsecase) setGroupTopic(conn *runtime.Connection, ev events.SetGroupTopic) error {
	if !conn.Principal.CanModerate() {
		return fmt.Errorf("%w: %s requires moderator role", ErrForbidden, ev.Type())
	}

	s.rooms.SetTopic(ev.GroupID, ev.Topic)

	update := events.GroupTopic{GroupID: ev.GroupID, Topic: ev.Topic, SetBy: conn.DisplayName}
	for _, member := range s.rooms.Members(ev.GroupID) {
		s.sendTo(member.ConnectionID, update)
	}

	s.recorder.Record(models.GroupTopicChanged{
		Room: models.Room{
			ID:        ev.GroupID,
			Topic:     ev.Topic,
			UpdatedBy: conn.ActorID(),
			UpdatedAt: s.now().UTC(),
		},
	})

	return nil
}

// BroadcastAllGroupCounts pushes the lobby aggregate to every lobby subscriber.
func (s *signalingUsecase) BroadcastAllGroupCounts() {
	ev := events.AllGroupCounts{Groups: s.rooms.Counts()}

	s.registry.Range(func(conn *runtime.Connection) {
		if conn.Lobby {
			s.send(conn, ev)
		}
	})
}

// RefreshPresence re-publishes every signed-in user so the presence mirror TTL stays alive.
func (s *signalingUsecase) RefreshPresence() {
	seen := make(map[string]struct{})
	names := make(map[string]string)

	s.registry.Range(func(conn *runtime.Connection) {
		if conn.Principal.IsAnonymous() {
			return
		}

		seen[conn.Principal.ID] = struct{}{}
		names[conn.Principal.ID] = conn.DisplayName
	})

	for _, userID := range sortedKeys(seen) {
		s.publishPresence(userID, names[userID])
	}
}

// publishPresence records whether userID still has live connections and which groups they hold.
func (s *signalingUsecase) publishPresence(userID, name string) {
	if userID == "" {
		return
	}

	conns := s.registry.ByUserID(userID)
	groups := make(map[string]struct{})

	for _, conn := range conns {
		maps.Copy(groups, conn.Rooms)
	}

	s.recorder.Record(models.PresenceChanged{
		UserID: userID,
		Name:   name,
		Online: len(conns) > 0,
		Groups: sortedKeys(groups),
	})
}

// displayID trusts the verified principal; anonymous clients may name themselves.
func displayID(conn *runtime.Connection, claimed string) string {
	if conn.Principal.IsAnonymous() && claimed != "" {
		return claimed
	}

	return conn.ActorID()
}

func displayName(conn *runtime.Connection, claimed string) string {
	if claimed != "" {
		return claimed
	}

	return conn.DisplayName
}

func sortedKeys(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}
