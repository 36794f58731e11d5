package cmd

import (
	"context"
	"errors"
	"sync"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/display"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

// setupHint is the placeholder of the code input on the setup screen
const setupHint = "Código de pareamento"

// pairer is the pairing operation driven from the setup screen
type pairer interface {
	Pair(ctx context.Context, code string) (identity.DeviceID, error)
}

// setupFlow serves pairing requests from the kiosk setup screen. Failures
// are written back to the screen; the first success is delivered on
// Paired and later requests are refused.
type setupFlow struct {
	pairer pairer
	sink   display.Sink

	mu     sync.Mutex
	done   bool
	paired chan identity.DeviceID
}

func newSetupFlow(p pairer, sink display.Sink) *setupFlow {
	return &setupFlow{
		pairer: p,
		sink:   sink,
		paired: make(chan identity.DeviceID, 1),
	}
}

// Show puts the setup screen up with an optional error message
func (s *setupFlow) Show(ctx context.Context, message string) error {
	frame := v1alpha1.NewFrame(v1alpha1.FrameSetup)
	frame.Setup = &v1alpha1.SetupScreen{Hint: setupHint, Error: message}
	return s.sink.Show(ctx, frame)
}

// Paired delivers the identifier once pairing succeeded
func (s *setupFlow) Paired() <-chan identity.DeviceID {
	return s.paired
}

// Pair implements the HTTP pairer
func (s *setupFlow) Pair(ctx context.Context, code string) (identity.DeviceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return "", perrors.Validation("setup.Pair", "Dispositivo já pareado.")
	}

	id, err := s.pairer.Pair(ctx, code)
	if err != nil {
		msg := err.Error()
		var perr *perrors.Error
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		_ = s.Show(ctx, "FALHA NO PAREAMENTO: "+msg)
		return "", err
	}

	s.done = true
	s.paired <- id
	return id, nil
}

// markPaired refuses further pairing for a device that was already paired
// at startup
func (s *setupFlow) markPaired() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}
