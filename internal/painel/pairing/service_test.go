package pairing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/client"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Pair(ctx context.Context, code string) (*v1alpha1.PairResponse, error) {
	args := m.Called(ctx, code)
	if resp := args.Get(0); resp != nil {
		return resp.(*v1alpha1.PairResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestPair(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		setup     func(*mockBackend)
		wantID    identity.DeviceID
		wantCheck func(error) bool
		wantMsg   string
	}{
		{
			name: "success trims code",
			code: "  A4X9B2 ",
			setup: func(m *mockBackend) {
				m.On("Pair", mock.Anything, "A4X9B2").
					Return(&v1alpha1.PairResponse{UUID: "uuid-1", Name: "TV 1"}, nil).Once()
			},
			wantID: "uuid-1",
		},
		{
			name:      "empty code",
			code:      "   ",
			setup:     func(m *mockBackend) {},
			wantCheck: perrors.IsValidation,
			wantMsg:   "pairing.Pair: Digite o código.",
		},
		{
			name:      "single character",
			code:      "A",
			setup:     func(m *mockBackend) {},
			wantCheck: perrors.IsValidation,
		},
		{
			name: "backend rejects code",
			code: "ZZZZ",
			setup: func(m *mockBackend) {
				m.On("Pair", mock.Anything, "ZZZZ").
					Return(nil, &client.StatusError{StatusCode: 404, Message: "Código inválido"}).Once()
			},
			wantCheck: perrors.IsPairing,
			wantMsg:   "pairing.Pair: HTTP 404: Código inválido",
		},
		{
			name: "transport failure",
			code: "AB",
			setup: func(m *mockBackend) {
				m.On("Pair", mock.Anything, "AB").
					Return(nil, errors.New("dial tcp: connection refused")).Once()
			},
			wantCheck: perrors.IsPairing,
			wantMsg:   "pairing.Pair: dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{}
			tt.setup(backend)
			store := identity.NewMemoryStore()
			svc := NewService(backend, store, zerolog.Nop())

			id, err := svc.Pair(context.Background(), tt.code)
			backend.AssertExpectations(t)

			if tt.wantCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.wantCheck(err))
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, err.Error())
				}
				_, loadErr := store.Load(context.Background())
				assert.True(t, perrors.IsNotPaired(loadErr), "nothing is stored on failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			stored, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, stored)
		})
	}
}

func TestReset(t *testing.T) {
	store := identity.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "uuid-1"))

	svc := NewService(&mockBackend{}, store, zerolog.Nop())
	require.NoError(t, svc.Reset(context.Background()))

	_, err := store.Load(context.Background())
	assert.True(t, perrors.IsNotPaired(err))
}
