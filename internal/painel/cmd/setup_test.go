package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	displaytest "github.com/wrale/wrale-painel/internal/painel/display/testing"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

type mockPairer struct {
	mock.Mock
}

func (m *mockPairer) Pair(ctx context.Context, code string) (identity.DeviceID, error) {
	args := m.Called(ctx, code)
	return identity.DeviceID(args.String(0)), args.Error(1)
}

func TestSetupFlow(t *testing.T) {
	ctx := context.Background()
	sink := displaytest.NewSink()
	pairer := &mockPairer{}
	pairer.On("Pair", mock.Anything, "ZZ").
		Return("", perrors.Pairing("pairing.Pair", "HTTP 404: Código inválido", nil)).Once()
	pairer.On("Pair", mock.Anything, "A4X9B2").Return("uuid-1", nil).Once()

	setup := newSetupFlow(pairer, sink)
	require.NoError(t, setup.Show(ctx, ""))

	frame, ok := sink.Last(v1alpha1.FrameSetup)
	require.True(t, ok)
	assert.Equal(t, setupHint, frame.Setup.Hint)
	assert.Empty(t, frame.Setup.Error)

	_, err := setup.Pair(ctx, "ZZ")
	require.Error(t, err)
	assert.True(t, perrors.IsPairing(err))

	frame, _ = sink.Last(v1alpha1.FrameSetup)
	assert.Equal(t, "FALHA NO PAREAMENTO: HTTP 404: Código inválido", frame.Setup.Error)

	select {
	case <-setup.Paired():
		t.Fatal("paired after a failure")
	default:
	}

	id, err := setup.Pair(ctx, "A4X9B2")
	require.NoError(t, err)
	assert.Equal(t, identity.DeviceID("uuid-1"), id)
	assert.Equal(t, identity.DeviceID("uuid-1"), <-setup.Paired())

	_, err = setup.Pair(ctx, "A4X9B2")
	assert.True(t, perrors.IsValidation(err))
	pairer.AssertExpectations(t)
}

func TestSetupFlowAlreadyPaired(t *testing.T) {
	setup := newSetupFlow(&mockPairer{}, displaytest.NewSink())
	setup.markPaired()

	_, err := setup.Pair(context.Background(), "A4X9B2")
	assert.True(t, perrors.IsValidation(err))
}
