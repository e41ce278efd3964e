package memory

import (
	"github.com/qrave1/PairSpeak/internal/application/metric"
	"github.com/qrave1/PairSpeak/internal/domain/runtime"
)

// ConnectionRegistry хранит живые подключения. Не потокобезопасен: владеет event loop.
type ConnectionRegistry interface {
	Register(conn *runtime.Connection)

	// Lookup never fails loudly: a missing id means the recipient is already gone.
	Lookup(connID string) (*runtime.Connection, bool)

	// Unregister removes the entry and returns the state it held right before removal.
	Unregister(connID string) (runtime.Connection, bool)

	ByUserID(userID string) []*runtime.Connection
	Range(fn func(conn *runtime.Connection))
	Len() int
}

type connectionRegistry struct {
	// conns хранит map[connection_id]*Connection
	conns map[string]*runtime.Connection

	// byUser хранит map[user_id]set[connection_id], анонимы не индексируются
	byUser map[string]map[string]struct{}
}

func NewConnectionRegistry() ConnectionRegistry {
	return &connectionRegistry{
		conns:  make(map[string]*runtime.Connection, 64),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (r *connectionRegistry) Register(conn *runtime.Connection) {
	if _, exists := r.conns[conn.ID]; !exists {
		metric.IncrementWSActiveConnections()
	}

	r.conns[conn.ID] = conn

	if userID := conn.Principal.ID; userID != "" {
		if _, ok := r.byUser[userID]; !ok {
			r.byUser[userID] = make(map[string]struct{})
		}

		r.byUser[userID][conn.ID] = struct{}{}
	}
}

func (r *connectionRegistry) Lookup(connID string) (*runtime.Connection, bool) {
	conn, ok := r.conns[connID]
	return conn, ok
}

func (r *connectionRegistry) Unregister(connID string) (runtime.Connection, bool) {
	conn, ok := r.conns[connID]
	if !ok {
		return runtime.Connection{}, false
	}

	delete(r.conns, connID)

	if userID := conn.Principal.ID; userID != "" {
		delete(r.byUser[userID], connID)

		if len(r.byUser[userID]) == 0 {
			delete(r.byUser, userID)
		}
	}

	metric.DecrementWSActiveConnections()

	return conn.Snapshot(), true
}

func (r *connectionRegistry) ByUserID(userID string) []*runtime.Connection {
	if userID == "" {
		return nil
	}

	ids := r.byUser[userID]
	conns := make([]*runtime.Connection, 0, len(ids))

	for id := range ids {
		conns = append(conns, r.conns[id])
	}

	return conns
}

func (r *connectionRegistry) Range(fn func(conn *runtime.Connection)) {
	for _, conn := range r.conns {
		fn(conn)
	}
}

func (r *connectionRegistry) Len() int {
	return len(r.conns)
}
