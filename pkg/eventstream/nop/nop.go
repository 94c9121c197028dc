// Package nop provides a no-op eventstream publisher used for tests and
// disabled mode.
package nop

import (
	"context"

	"github.com/papercomputeco/chorus/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishWrite validates input and otherwise does nothing.
func (p *Publisher) PublishWrite(_ context.Context, event *eventstream.WriteAcceptedEvent) error {
	if event == nil {
		return eventstream.ErrNilWriteEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
