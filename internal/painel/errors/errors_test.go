package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		msg   string
	}{
		{
			name:  "validation",
			err:   Validation("pairing.Pair", "Digite o código."),
			check: IsValidation,
			msg:   "pairing.Pair: Digite o código.",
		},
		{
			name:  "pairing with cause",
			err:   Pairing("pairing.Pair", "HTTP 404: Código inválido", cause),
			check: IsPairing,
			msg:   "pairing.Pair: HTTP 404: Código inválido",
		},
		{
			name:  "fetch",
			err:   Fetch("poller.FetchOnce", cause),
			check: IsFetch,
			msg:   "poller.FetchOnce: connection refused",
		},
		{
			name:  "media fault",
			err:   MediaFault("", "video stalled"),
			check: IsMediaFault,
			msg:   "video stalled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.msg, tt.err.Error())

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestPairingKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Pairing("op", "request failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsFetch(err))
}

func TestNotPaired(t *testing.T) {
	err := fmt.Errorf("loading identity: %w", ErrNotPaired)
	assert.True(t, IsNotPaired(err))
	assert.False(t, IsNotFound(err))
}
