// Package postgres stores the play log in PostgreSQL. Writes happen on a
// background goroutine; when the buffer is full, events are dropped rather
// than stalling the display.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/playlog"
)

// DefaultBuffer is the number of events held while the database is slow
const DefaultBuffer = 256

const writeTimeout = 5 * time.Second

// PostgreSQL error codes
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Recorder implements playlog.Recorder on a play_events table
type Recorder struct {
	db      *sql.DB
	events  chan playlog.Event
	logger  zerolog.Logger
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder with room for buffer pending events
func NewRecorder(db *sql.DB, buffer int, logger zerolog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Recorder{
		db:     db,
		events: make(chan playlog.Event, buffer),
		logger: logger.With().Str("component", "playlog.postgres").Logger(),
	}
}

// Start writes buffered events until ctx is cancelled. Events still
// pending at that point are flushed before Wait returns.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case ev := <-r.events:
				r.write(ev)
			case <-ctx.Done():
				r.flush()
				return
			}
		}
	}()
}

// Wait blocks until the writer started by Start has stopped
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) flush() {
	for {
		select {
		case ev := <-r.events:
			r.write(ev)
		default:
			return
		}
	}
}

// write stores ev with its own deadline so pending events survive the
// cancellation of the run context
func (r *Recorder) write(ev playlog.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.Save(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("failed to store play event")
	}
}

// Record implements playlog.Recorder. It never blocks.
func (r *Recorder) Record(ctx context.Context, ev playlog.Event) {
	select {
	case r.events <- ev:
	default:
		n := r.dropped.Add(1)
		r.logger.Warn().Int64("dropped", n).Msg("play log buffer full, event dropped")
	}
}

// Dropped returns the number of events discarded because the buffer was full
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Save stores a single event synchronously
func (r *Recorder) Save(ctx context.Context, ev playlog.Event) error {
	const op = "PlayLog.Save"

	var fingerprint string
	if ev.Fingerprint != 0 {
		fingerprint = strconv.FormatUint(ev.Fingerprint, 16)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO play_events (
			id, device_id, type, timestamp, page, total_pages,
			item_index, item_kind, source, reason, elapsed_ms,
			fingerprint, detail
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		ev.ID,
		ev.DeviceID,
		ev.Type,
		ev.Timestamp,
		ev.Page,
		ev.TotalPages,
		ev.ItemIndex,
		ev.ItemKind,
		ev.Source,
		ev.Reason,
		ev.Elapsed.Milliseconds(),
		fingerprint,
		ev.Detail,
	)
	return mapError(err, op)
}

// Events returns the events of a device since a point in time, newest first
func (r *Recorder) Events(ctx context.Context, deviceID string, since time.Time, limit int) ([]playlog.Event, error) {
	const op = "PlayLog.Events"

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, device_id, type, timestamp, page, total_pages,
			item_index, item_kind, source, reason, elapsed_ms,
			fingerprint, detail
		FROM play_events
		WHERE device_id = $1 AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT $3
	`, deviceID, since, limit)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	var events []playlog.Event
	for rows.Next() {
		var (
			ev          playlog.Event
			elapsedMS   int64
			fingerprint string
		)
		err := rows.Scan(
			&ev.ID,
			&ev.DeviceID,
			&ev.Type,
			&ev.Timestamp,
			&ev.Page,
			&ev.TotalPages,
			&ev.ItemIndex,
			&ev.ItemKind,
			&ev.Source,
			&ev.Reason,
			&elapsedMS,
			&fingerprint,
			&ev.Detail,
		)
		if err != nil {
			return nil, mapError(err, op)
		}
		ev.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if fingerprint != "" {
			ev.Fingerprint, _ = strconv.ParseUint(fingerprint, 16, 64)
		}
		events = append(events, ev)
	}

	return events, mapError(rows.Err(), op)
}

// mapError converts PostgreSQL errors into the player's error taxonomy
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return perrors.NewError("CONFLICT", "event already recorded", op, err)
		case pgUndefinedTable:
			return perrors.NewError("SCHEMA", "play log schema missing, run migrations", op, err)
		}
		return perrors.NewError("DATABASE", pqErr.Message, op, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return perrors.NewError("NOT_FOUND", "no events", op, perrors.ErrNotFound)
	}

	return perrors.NewError("DATABASE", err.Error(), op, err)
}
