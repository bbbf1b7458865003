// Package nop provides the disabled-mode eventstream publisher.
package nop

import (
	"context"

	"github.com/replyscope/replyscope/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

var _ eventstream.Publisher = (*Publisher)(nil)

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishAnalysis validates input and otherwise does nothing.
func (p *Publisher) PublishAnalysis(_ context.Context, event *eventstream.AnalysisCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// PublishTask validates input and otherwise does nothing.
func (p *Publisher) PublishTask(_ context.Context, event *eventstream.TaskSyncedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
