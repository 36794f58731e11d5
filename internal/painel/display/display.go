// Package display defines where render frames go and where media events
// come from.
package display

import (
	"context"
	"errors"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// Sink receives render frames
type Sink interface {
	Show(ctx context.Context, frame v1alpha1.Frame) error
}

// MediaSource reports playback outcomes of overlay videos
type MediaSource interface {
	MediaEvents() <-chan v1alpha1.MediaEvent
}

// Multi sends every frame to all of its sinks
type Multi []Sink

// Show implements Sink. Every sink is attempted; errors are joined.
func (m Multi) Show(ctx context.Context, frame v1alpha1.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Show(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a sink that drops every frame
type Discard struct{}

func (Discard) Show(context.Context, v1alpha1.Frame) error { return nil }
