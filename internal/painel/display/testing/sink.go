// Package testing provides an in-memory display sink for tests
package testing

import (
	"context"
	"sync"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// Sink records frames and lets tests inject media events
type Sink struct {
	mu     sync.Mutex
	frames []v1alpha1.Frame
	shown  chan v1alpha1.Frame
	events chan v1alpha1.MediaEvent
}

// NewSink creates an empty recording sink
func NewSink() *Sink {
	return &Sink{
		shown:  make(chan v1alpha1.Frame, 256),
		events: make(chan v1alpha1.MediaEvent, 16),
	}
}

// Show implements display.Sink
func (s *Sink) Show(ctx context.Context, frame v1alpha1.Frame) error {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()

	select {
	case s.shown <- frame:
	default:
	}
	return nil
}

// MediaEvents implements display.MediaSource
func (s *Sink) MediaEvents() <-chan v1alpha1.MediaEvent {
	return s.events
}

// Emit injects a media event as if sent by the kiosk page
func (s *Sink) Emit(ev v1alpha1.MediaEvent) {
	s.events <- ev
}

// Shown delivers frames as they are shown
func (s *Sink) Shown() <-chan v1alpha1.Frame {
	return s.shown
}

// Frames returns a copy of every frame shown so far
func (s *Sink) Frames() []v1alpha1.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]v1alpha1.Frame(nil), s.frames...)
}

// Types returns the type of every frame shown so far
func (s *Sink) Types() []v1alpha1.FrameType {
	frames := s.Frames()
	out := make([]v1alpha1.FrameType, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

// Last returns the most recent frame of type t
func (s *Sink) Last(t v1alpha1.FrameType) (v1alpha1.Frame, bool) {
	frames := s.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type == t {
			return frames[i], true
		}
	}
	return v1alpha1.Frame{}, false
}
