package constant

// Ключи атрибутов slog
const (
	Error        = "error"
	UserID       = "user_id"
	ConnectionID = "connection_id"
	SessionID    = "session_id"
	GroupID      = "group_id"
	Mode         = "mode"
	EventType    = "event_type"
	Sink         = "sink"
	Reason       = "reason"
)
