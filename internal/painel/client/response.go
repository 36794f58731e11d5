package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// maxErrorBody caps how much of an error body is read
const maxErrorBody = 64 << 10

// StatusError is returned for non-2xx backend responses
type StatusError struct {
	// StatusCode is the HTTP status
	StatusCode int
	// Message is the backend-supplied "erro" or the status text
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// decodeResponse decodes a JSON response into the provided target
func decodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// handleResponse processes an API response and returns an error if the
// status code indicates failure. The message prefers the backend's "erro"
// field, then the raw JSON body, then the HTTP status text.
func handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	defer resp.Body.Close()
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return statusErr
	}

	var apiErr v1alpha1.ErrorResponse
	if err := json.Unmarshal(data, &apiErr); err != nil {
		return statusErr
	}
	if apiErr.Message != "" {
		statusErr.Message = apiErr.Message
		return statusErr
	}
	if body := strings.TrimSpace(string(data)); body != "" && body != "{}" {
		statusErr.Message = body
	}
	return statusErr
}
