package v1alpha1

// PairRequest is the body sent to the backend pairing endpoint
type PairRequest struct {
	// Code is the short code typed by the operator (e.g. "A4X9B2")
	Code string `json:"codigo"`
}

// PairResponse is the backend's answer to a successful pairing
type PairResponse struct {
	// UUID is the durable device identifier
	UUID string `json:"uuid"`
	// Name is the display name registered on the backend
	Name string `json:"nome,omitempty"`
}

// ErrorResponse is the error body returned by the backend on non-2xx
type ErrorResponse struct {
	// Message is the human readable error (e.g. "Código inválido")
	Message string `json:"erro"`
}
