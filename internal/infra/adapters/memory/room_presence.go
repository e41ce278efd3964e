package memory

import (
	"cmp"
	"slices"

	"github.com/qrave1/PairSpeak/internal/domain/output"
)

// RoomPresence хранит онлайн участников групп и их темы. Не потокобезопасен: владеет event loop.
type RoomPresence interface {
	// Join adds or refreshes a member, ok=false when it was already joined.
	Join(groupID string, member output.OnlineUserInfo) bool

	// Remove a connection from a group
	Leave(groupID, connID string) bool

	IsMember(groupID, connID string) bool

	// Members is rebuilt from the member set on every call, in join order.
	Members(groupID string) []output.OnlineUserInfo

	// Counts aggregates every non-empty group ordered by group id.
	Counts() []output.GroupCount

	Topic(groupID string) string
	SetTopic(groupID, topic string)
}

type roomMember struct {
	info output.OnlineUserInfo
	seq  uint64
}

type roomPresence struct {
	// rooms хранит map[group_id]map[connection_id]roomMember
	rooms  map[string]map[string]roomMember
	topics map[string]string
	seq    uint64
}

func NewRoomPresence() RoomPresence {
	return &roomPresence{
		rooms:  make(map[string]map[string]roomMember),
		topics: make(map[string]string),
	}
}

func (r *roomPresence) Join(groupID string, member output.OnlineUserInfo) bool {
	members, ok := r.rooms[groupID]
	if !ok {
		members = make(map[string]roomMember)
		r.rooms[groupID] = members
	}

	if existing, joined := members[member.ConnectionID]; joined {
		existing.info = member
		members[member.ConnectionID] = existing

		return false
	}

	r.seq++
	members[member.ConnectionID] = roomMember{info: member, seq: r.seq}

	return true
}

func (r *roomPresence) Leave(groupID, connID string) bool {
	members, ok := r.rooms[groupID]
	if !ok {
		return false
	}

	if _, joined := members[connID]; !joined {
		return false
	}

	delete(members, connID)

	if len(members) == 0 {
		delete(r.rooms, groupID)
	}

	return true
}

func (r *roomPresence) IsMember(groupID, connID string) bool {
	_, ok := r.rooms[groupID][connID]
	return ok
}

func (r *roomPresence) Members(groupID string) []output.OnlineUserInfo {
	members := r.rooms[groupID]

	ordered := make([]roomMember, 0, len(members))
	for _, m := range members {
		ordered = append(ordered, m)
	}

	slices.SortFunc(ordered, func(a, b roomMember) int {
		return cmp.Compare(a.seq, b.seq)
	})

	users := make([]output.OnlineUserInfo, 0, len(ordered))
	for _, m := range ordered {
		users = append(users, m.info)
	}

	return users
}

func (r *roomPresence) Counts() []output.GroupCount {
	counts := make([]output.GroupCount, 0, len(r.rooms))

	for groupID := range r.rooms {
		users := r.Members(groupID)

		counts = append(counts, output.GroupCount{
			GroupID: groupID,
			Count:   len(users),
			Users:   users,
		})
	}

	slices.SortFunc(counts, func(a, b output.GroupCount) int {
		return cmp.Compare(a.GroupID, b.GroupID)
	})

	return counts
}

func (r *roomPresence) Topic(groupID string) string {
	return r.topics[groupID]
}

func (r *roomPresence) SetTopic(groupID, topic string) {
	if topic == "" {
		delete(r.topics, groupID)
		return
	}

	r.topics[groupID] = topic
}
