// Package pairing exchanges an operator-typed short code for the durable
// device identifier and stores it.
package pairing

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	"github.com/wrale/wrale-painel/internal/painel/client"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

// MinCodeLength is the shortest code sent to the backend. The format
// itself is checked server-side.
const MinCodeLength = 2

// Backend is the part of the API client used for pairing
type Backend interface {
	Pair(ctx context.Context, code string) (*v1alpha1.PairResponse, error)
}

// Service pairs the device and persists its identifier
type Service struct {
	backend Backend
	store   identity.Store
	logger  zerolog.Logger
}

// NewService creates a pairing service
func NewService(backend Backend, store identity.Store, logger zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   store,
		logger:  logger.With().Str("component", "pairing").Logger(),
	}
}

// Pair validates code, sends it to the backend and stores the identifier
// it returns. There is no retry; failures are meant to be shown to the
// operator as they are.
func (s *Service) Pair(ctx context.Context, code string) (identity.DeviceID, error) {
	const op = "pairing.Pair"

	code = strings.TrimSpace(code)
	if len(code) < MinCodeLength {
		return "", perrors.Validation(op, "Digite o código.")
	}

	s.logger.Info().Str("code", code).Msg("sending pairing code")

	resp, err := s.backend.Pair(ctx, code)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			return "", perrors.Pairing(op, statusErr.Error(), err)
		}
		return "", perrors.Pairing(op, err.Error(), err)
	}

	id := identity.DeviceID(resp.UUID)
	if err := s.store.Save(ctx, id); err != nil {
		return "", perrors.NewError("STORAGE", "could not store device id", op, err)
	}

	s.logger.Info().
		Str("device", id.Short()).
		Str("name", resp.Name).
		Msg("device paired")

	return id, nil
}

// Reset forgets the stored identifier so the device can be paired again
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return perrors.NewError("STORAGE", "could not delete device id", "pairing.Reset", err)
	}
	s.logger.Info().Msg("device identity removed")
	return nil
}
