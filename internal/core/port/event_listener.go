package port

import "context"

// EventListenerPort - входящий адаптер, который слушает очередь до отмены контекста
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
