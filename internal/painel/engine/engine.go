// Package engine implements the display cycle: a state machine alternating
// between paged price tables and the video playlist.
//
// The engine performs no I/O and keeps no timers. Each call to Next runs
// one step against the current snapshot and returns the Action a driver
// has to execute; the driver calls ItemDone when a playlist item finishes
// and Next again when the action's delay has elapsed.
package engine

import (
	"sync"
	"time"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

// State is the active half of the cycle
type State string

const (
	StateTable State = "TABELA"
	StateVideo State = "VIDEO"
)

// maxHops bounds the re-evaluations within a single step. Reachable
// configurations settle in at most three.
const maxHops = 4

// CycleState is the mutable position of the cycle
type CycleState struct {
	State      State `json:"state"`
	TablePage  int   `json:"tablePage"`
	VideoIndex int   `json:"videoIndex"`
}

// Input is read fresh from the current snapshot on every step
type Input struct {
	Mode         v1alpha1.DisplayMode
	Products     []v1alpha1.Product
	Playlist     []v1alpha1.PlaylistItem
	PageCapacity int
}

// ActionKind tells the driver what to do
type ActionKind string

const (
	// ActionTable renders one page of the price table
	ActionTable ActionKind = "TABLE"
	// ActionPlaceholder renders the no-products message
	ActionPlaceholder ActionKind = "PLACEHOLDER"
	// ActionPlay plays a playlist item and waits for its completion
	ActionPlay ActionKind = "PLAY"
)

// Action is the outcome of one step
type Action struct {
	Kind ActionKind

	// Page and TotalPages are set for ActionTable
	Page       int
	TotalPages int

	// Item and ItemIndex are set for ActionPlay
	Item      v1alpha1.PlaylistItem
	ItemIndex int

	// HideOverlay asks the driver to tear down the video overlay before
	// rendering the table
	HideOverlay bool

	// Delay is how long the driver waits before the next step. It is zero
	// for ActionPlay; progression then follows ItemDone.
	Delay time.Duration
}

// Engine owns the cycle state of one device session
type Engine struct {
	pageInterval time.Duration

	mu    sync.Mutex
	state CycleState
}

// New creates an engine that keeps each table page on screen for
// pageInterval
func New(pageInterval time.Duration) *Engine {
	return &Engine{
		pageInterval: pageInterval,
		state:        CycleState{State: StateTable},
	}
}

// Start resets the cycle for the first snapshot. A VIDEO device starts on
// the playlist, any other mode on the table.
func (e *Engine) Start(mode v1alpha1.DisplayMode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = CycleState{State: StateTable}
	if mode == v1alpha1.ModeVideo {
		e.state.State = StateVideo
	}
}

// State returns a copy of the cycle state
func (e *Engine) State() CycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ItemDone records the completion of the item being played
func (e *Engine) ItemDone() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.VideoIndex++
}

// Next runs one step of the cycle
func (e *Engine) Next(in Input) Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch in.Mode {
	case v1alpha1.ModeTable:
		e.state.State = StateTable
	case v1alpha1.ModeVideo:
		e.state.State = StateVideo
	}

	hide := false
	for hop := 0; hop < maxHops; hop++ {
		var (
			act  Action
			done bool
		)
		switch e.state.State {
		case StateVideo:
			act, done = e.video(in, &hide)
		default:
			act, done = e.table(in)
		}
		if done {
			if act.Kind != ActionPlay {
				act.HideOverlay = hide
			}
			return act
		}
	}

	return Action{Kind: ActionPlaceholder, HideOverlay: hide, Delay: e.pageInterval}
}

// table runs the TABELA state. done is false when the state switched and
// the step has to be re-evaluated.
func (e *Engine) table(in Input) (Action, bool) {
	hasProducts := len(in.Products) > 0
	hasPlaylist := len(in.Playlist) > 0

	if !hasProducts && hasPlaylist && in.Mode != v1alpha1.ModeTable {
		e.state.State = StateVideo
		// an exhausted index would send the step straight back here
		if e.state.VideoIndex >= len(in.Playlist) {
			e.state.VideoIndex = 0
		}
		return Action{}, false
	}

	capacity := in.PageCapacity
	if capacity <= 0 {
		capacity = 1
	}
	total := layout.TotalPages(len(in.Products), capacity)
	if e.state.TablePage >= total || e.state.TablePage < 0 {
		e.state.TablePage = 0
	}

	act := Action{Kind: ActionPlaceholder, Delay: e.pageInterval}
	if hasProducts {
		act = Action{
			Kind:       ActionTable,
			Page:       e.state.TablePage,
			TotalPages: total,
			Delay:      e.pageInterval,
		}
	}

	switch {
	case e.state.TablePage < total-1:
		e.state.TablePage++
	case in.Mode == v1alpha1.ModeMixed && hasPlaylist:
		e.state.State = StateVideo
		e.state.VideoIndex = 0
	default:
		e.state.TablePage = 0
	}

	return act, true
}

// video runs the VIDEO state
func (e *Engine) video(in Input, hide *bool) (Action, bool) {
	if len(in.Playlist) == 0 {
		e.state.State = StateTable
		return Action{}, false
	}

	if e.state.VideoIndex < 0 {
		e.state.VideoIndex = 0
	}
	if e.state.VideoIndex < len(in.Playlist) {
		return Action{
			Kind:      ActionPlay,
			Item:      in.Playlist[e.state.VideoIndex],
			ItemIndex: e.state.VideoIndex,
		}, true
	}

	if in.Mode == v1alpha1.ModeMixed {
		e.state.State = StateTable
		e.state.TablePage = 0
		*hide = true
		return Action{}, false
	}

	e.state.VideoIndex = 0
	return Action{}, false
}
