package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
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

func newTestRouter(p Pairer, ws http.Handler) http.Handler {
	status := StatusFunc(func(context.Context) v1alpha1.PlayerStatus {
		return v1alpha1.PlayerStatus{Paired: true, DeviceID: "uuid-1", State: "TABELA", Products: 3}
	})
	return NewHandler(p, status, ws, zerolog.Nop()).Router()
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&mockPairer{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	router := newTestRouter(&mockPairer{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1alpha1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st v1alpha1.PlayerStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.True(t, st.Paired)
	assert.Equal(t, "uuid-1", st.DeviceID)
	assert.Equal(t, 3, st.Products)
}

func TestPair(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*mockPairer)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"codigo": "A4X9B2"}`,
			setup: func(m *mockPairer) {
				m.On("Pair", mock.Anything, "A4X9B2").Return("uuid-1", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"uuid": "uuid-1"}`,
		},
		{
			name: "empty code",
			body: `{"codigo": ""}`,
			setup: func(m *mockPairer) {
				m.On("Pair", mock.Anything, "").Return("", perrors.Validation("pairing.Pair", "Digite o código."))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"erro": "Digite o código."}`,
		},
		{
			name: "backend rejects",
			body: `{"codigo": "ZZZZ"}`,
			setup: func(m *mockPairer) {
				m.On("Pair", mock.Anything, "ZZZZ").Return("", perrors.Pairing("pairing.Pair", "HTTP 404: Código inválido", nil))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"erro": "HTTP 404: Código inválido"}`,
		},
		{
			name: "storage failure",
			body: `{"codigo": "AB"}`,
			setup: func(m *mockPairer) {
				m.On("Pair", mock.Anything, "AB").Return("", errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"erro": "disk full"}`,
		},
		{
			name:       "malformed body",
			body:       `{codigo`,
			setup:      func(m *mockPairer) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"erro": "invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairer := &mockPairer{}
			tt.setup(pairer)
			router := newTestRouter(pairer, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/pair", bytes.NewBufferString(tt.body))
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			pairer.AssertExpectations(t)
		})
	}
}

func TestWebsocketMount(t *testing.T) {
	called := false
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusSwitchingProtocols)
	})

	rec := httptest.NewRecorder()
	newTestRouter(&mockPairer{}, ws).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.True(t, called)

	rec = httptest.NewRecorder()
	newTestRouter(&mockPairer{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
