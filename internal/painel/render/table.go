// Package render turns engine actions into display frames
package render

import (
	"context"
	"time"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/display"
	"github.com/wrale/wrale-painel/internal/painel/layout"
)

// Table draws pages of the price table with a fade transition
type Table struct {
	sink      display.Sink
	fadeDelay time.Duration
}

// NewTable creates a table renderer. fadeDelay is the pause between the
// fade-out and the new content.
func NewTable(sink display.Sink, fadeDelay time.Duration) *Table {
	return &Table{sink: sink, fadeDelay: fadeDelay}
}

// Render shows page of products
func (t *Table) Render(ctx context.Context, page, totalPages int, products []v1alpha1.Product, params layout.Params) error {
	frame := v1alpha1.NewFrame(v1alpha1.FrameTable)
	frame.Table = layout.BuildPage(page, totalPages, products, params)
	return t.transition(ctx, frame)
}

// Placeholder shows message in place of the table
func (t *Table) Placeholder(ctx context.Context, message string) error {
	frame := v1alpha1.NewFrame(v1alpha1.FramePlaceholder)
	frame.Message = message
	return t.transition(ctx, frame)
}

func (t *Table) transition(ctx context.Context, frame v1alpha1.Frame) error {
	if err := t.fade(ctx, v1alpha1.FadeOut); err != nil {
		return err
	}

	if err := sleep(ctx, t.fadeDelay); err != nil {
		return err
	}

	frame.Timestamp = time.Now()
	if err := t.sink.Show(ctx, frame); err != nil {
		return err
	}

	return t.fade(ctx, v1alpha1.FadeIn)
}

func (t *Table) fade(ctx context.Context, dir v1alpha1.FadeDirection) error {
	frame := v1alpha1.NewFrame(v1alpha1.FrameFade)
	frame.Fade = dir
	return t.sink.Show(ctx, frame)
}

// sleep waits for d or until ctx is done
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
