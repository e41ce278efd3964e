package runtime

import (
	"maps"

	"github.com/qrave1/PairSpeak/internal/domain/events"
	"github.com/qrave1/PairSpeak/internal/domain/models"
)

// Transport - канал доставки событий клиенту. Send не блокирует.
type Transport interface {
	Send(ev events.Outbound) error
	Close()
}

// Connection - эфемерное состояние одного живого подключения.
// Изменяется только из event loop.
type Connection struct {
	ID          string
	Principal   models.Principal
	DisplayName string

	Mode      string
	PartnerID string
	SessionID string
	Rooms     map[string]struct{}
	Lobby     bool

	Transport Transport
}

func NewConnection(id string, principal models.Principal, displayName string, transport Transport) *Connection {
	if displayName == "" {
		displayName = principal.Name
	}

	return &Connection{
		ID:          id,
		Principal:   principal,
		DisplayName: displayName,
		Rooms:       make(map[string]struct{}),
		Transport:   transport,
	}
}

// ActorID - устойчивый id участника: пользователь, а для анонимов id соединения
func (c *Connection) ActorID() string {
	if c.Principal.IsAnonymous() {
		return c.ID
	}

	return c.Principal.ID
}

func (c *Connection) Identity() events.Identity {
	return events.Identity{ID: c.ActorID(), Name: c.DisplayName}
}

func (c *Connection) InSession() bool {
	return c.PartnerID != ""
}

func (c *Connection) ClearPartner() {
	c.PartnerID = ""
	c.SessionID = ""
	c.Mode = ""
}

// Snapshot copies the connection state so it survives later mutation.
func (c *Connection) Snapshot() Connection {
	cp := *c
	cp.Rooms = maps.Clone(c.Rooms)

	return cp
}
