// Package player drives the display cycle: it asks the engine for the
// next action, executes it against the renderers and waits as told.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/internal/painel/engine"
	"github.com/wrale/wrale-painel/internal/painel/identity"
	"github.com/wrale/wrale-painel/internal/painel/layout"
	"github.com/wrale/wrale-painel/internal/painel/playlog"
	"github.com/wrale/wrale-painel/internal/painel/render"
	"github.com/wrale/wrale-painel/internal/painel/snapshot"
)

// DefaultErrorDwell is used when Config.ErrorDwell is not set
const DefaultErrorDwell = 5 * time.Second

// Config holds the collaborators of a Player
type Config struct {
	Device   identity.DeviceID
	Holder   *snapshot.Holder
	Engine   *engine.Engine
	Table    *render.Table
	Overlay  *render.Overlay
	Recorder playlog.Recorder
	Logger   zerolog.Logger

	// ErrorDwell is the least time a failed item keeps its turn, so a
	// playlist of broken items cannot spin the cycle
	ErrorDwell time.Duration
}

// Player runs one device session. Only one step is ever in flight.
type Player struct {
	device   identity.DeviceID
	holder   *snapshot.Holder
	engine   *engine.Engine
	table    *render.Table
	overlay  *render.Overlay
	recorder playlog.Recorder
	logger   zerolog.Logger
	dwell    time.Duration

	mu      sync.Mutex
	running bool
	last    engine.Action
}

// New creates a player
func New(cfg Config) *Player {
	rec := cfg.Recorder
	if rec == nil {
		rec = playlog.Nop{}
	}
	dwell := cfg.ErrorDwell
	if dwell <= 0 {
		dwell = DefaultErrorDwell
	}
	return &Player{
		device:   cfg.Device,
		holder:   cfg.Holder,
		engine:   cfg.Engine,
		table:    cfg.Table,
		overlay:  cfg.Overlay,
		recorder: rec,
		dwell:    dwell,
		logger:   cfg.Logger.With().Str("component", "player").Logger(),
	}
}

// Run waits for the first snapshot and then steps the cycle until ctx is
// cancelled
func (p *Player) Run(ctx context.Context) error {
	select {
	case <-p.holder.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	p.engine.Start(p.holder.Current().Mode())
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	p.logger.Info().Str("state", string(p.engine.State().State)).Msg("display cycle started")

	for {
		act, err := p.Step(ctx)
		if err != nil {
			return err
		}
		if err := sleep(ctx, act.Delay); err != nil {
			return err
		}
	}
}

// Step executes one engine action. Rendering problems are logged and the
// cycle moves on; only cancellation of ctx is returned.
func (p *Player) Step(ctx context.Context) (engine.Action, error) {
	snap := p.holder.Current()
	if snap == nil {
		return engine.Action{}, nil
	}

	content := snap.Content
	act := p.engine.Next(engine.Input{
		Mode:         content.Config.Mode,
		Products:     content.Products,
		Playlist:     content.Playlist,
		PageCapacity: snap.Layout.Capacity,
	})

	p.mu.Lock()
	p.last = act
	p.mu.Unlock()

	if act.Kind != engine.ActionPlay && (act.HideOverlay || p.overlay.Visible()) {
		if err := p.overlay.Hide(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("failed to hide overlay")
		}
	}

	switch act.Kind {
	case engine.ActionTable:
		if err := p.table.Render(ctx, act.Page, act.TotalPages, content.Products, snap.Layout); err != nil {
			if ctx.Err() != nil {
				return act, ctx.Err()
			}
			p.logger.Warn().Err(err).Int("page", act.Page).Msg("failed to render table page")
		}
		ev := playlog.NewEvent(p.device.String(), playlog.EventTablePage)
		ev.Page = act.Page
		ev.TotalPages = act.TotalPages
		p.recorder.Record(ctx, ev)

	case engine.ActionPlaceholder:
		if err := p.table.Placeholder(ctx, layout.PlaceholderMessage); err != nil {
			if ctx.Err() != nil {
				return act, ctx.Err()
			}
			p.logger.Warn().Err(err).Msg("failed to render placeholder")
		}
		p.recorder.Record(ctx, playlog.NewEvent(p.device.String(), playlog.EventPlaceholder))

	case engine.ActionPlay:
		start := time.Now()
		c := p.overlay.Play(ctx, act.Item)
		if c.Reason == render.ReasonCancelled {
			return act, ctx.Err()
		}
		elapsed := time.Since(start)
		if c.Reason == render.ReasonError && elapsed < p.dwell {
			if err := sleep(ctx, p.dwell-elapsed); err != nil {
				return act, err
			}
		}
		p.engine.ItemDone()

		ev := playlog.NewEvent(p.device.String(), playlog.EventItemCompleted)
		ev.ItemIndex = act.ItemIndex
		ev.ItemKind = string(act.Item.RawKind())
		ev.Source = act.Item.Source()
		ev.Reason = string(c.Reason)
		ev.Elapsed = elapsed
		if c.Err != nil {
			ev.Detail = c.Err.Error()
		}
		p.recorder.Record(ctx, ev)
	}

	return act, nil
}

// Running reports whether the cycle has started
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// State returns the current cycle position
func (p *Player) State() engine.CycleState {
	return p.engine.State()
}

// LastAction returns the most recently executed action
func (p *Player) LastAction() engine.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
