package runtime

import "errors"

var (
	// ErrBackpressure - очередь отправки клиента переполнена
	ErrBackpressure = errors.New("send queue full")

	ErrTransportClosed = errors.New("transport closed")
)
