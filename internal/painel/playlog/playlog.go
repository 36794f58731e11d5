// Package playlog records what a kiosk actually showed, for proof of play
package playlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType classifies play events
type EventType string

const (
	EventSnapshotAccepted EventType = "SNAPSHOT_ACCEPTED"
	EventTablePage        EventType = "TABLE_PAGE"
	EventPlaceholder      EventType = "PLACEHOLDER"
	EventItemCompleted    EventType = "ITEM_COMPLETED"
)

// Event is one entry of the play log
type Event struct {
	ID        uuid.UUID
	DeviceID  string
	Type      EventType
	Timestamp time.Time

	// Page and TotalPages are set for table pages
	Page       int
	TotalPages int

	// Item fields are set for completed playlist items
	ItemIndex int
	ItemKind  string
	Source    string
	Reason    string
	Elapsed   time.Duration

	// Fingerprint is set for accepted snapshots
	Fingerprint uint64
	// Detail carries free-form context such as an error message
	Detail string
}

// NewEvent stamps a new event
func NewEvent(deviceID string, t EventType) Event {
	return Event{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		Type:      t,
		Timestamp: time.Now().UTC(),
	}
}

// Recorder stores play events. Record must not block the display loop.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Nop discards events
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// Multi records every event on all recorders
type Multi []Recorder

func (m Multi) Record(ctx context.Context, ev Event) {
	for _, r := range m {
		r.Record(ctx, ev)
	}
}

// LogRecorder writes events to a zerolog logger
type LogRecorder struct {
	logger zerolog.Logger
}

// NewLogRecorder creates a recorder logging at debug level
func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With().Str("component", "playlog").Logger()}
}

// Record implements Recorder
func (r *LogRecorder) Record(ctx context.Context, ev Event) {
	e := r.logger.Debug().
		Str("event", string(ev.Type)).
		Str("id", ev.ID.String())

	switch ev.Type {
	case EventSnapshotAccepted:
		e = e.Uint64("fingerprint", ev.Fingerprint)
	case EventTablePage:
		e = e.Int("page", ev.Page).Int("totalPages", ev.TotalPages)
	case EventItemCompleted:
		e = e.Int("index", ev.ItemIndex).
			Str("kind", ev.ItemKind).
			Str("source", ev.Source).
			Str("reason", ev.Reason).
			Dur("elapsed", ev.Elapsed)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	e.Msg("play event")
}
