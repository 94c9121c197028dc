package eventstream

import "context"

// Publisher publishes write events to an event stream backend.
type Publisher interface {
	PublishWrite(ctx context.Context, event *WriteAcceptedEvent) error
	Close() error
}
