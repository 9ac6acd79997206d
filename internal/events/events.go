// Package events publishes progress notifications such as a pathway
// crossing its halfway or completion threshold.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Type names the kind of event; it is also the subject suffix.
type Type string

const (
	MilestoneReached Type = "milestone_reached"
)

// Event is the published payload.
type Event struct {
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id"`
	PathwayID string    `json:"pathway_id"`
	Threshold string    `json:"threshold"`
	Percent   int       `json:"percent"`
	At        time.Time `json:"at"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "pathway_event",
		"type", string(e.Type),
		"user_id", e.UserID,
		"pathway_id", e.PathwayID,
		"threshold", e.Threshold,
		"percent", e.Percent,
	)
	return nil
}

// Multi fans an event out to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
