package api

import "time"

// CreateWebhookRequest is the body of POST /api/v1/webhooks.
type CreateWebhookRequest struct {
	// URL is the receiver endpoint for event payloads
	URL string `json:"url" validate:"required,url"`

	// Events is the list of event kinds to deliver; empty means all
	Events []string `json:"events,omitempty" validate:"dive,min=1"`

	// Secret, when set, is used to HMAC-sign every payload
	Secret string `json:"secret,omitempty"`
}

// SourceStatus describes one contract stream's sync progress.
type SourceStatus struct {
	SourceID           string    `json:"source_id"`
	SourceAddress      string    `json:"source_address"`
	LastProcessedBlock int64     `json:"last_processed_block"`
	LastProcessedAt    time.Time `json:"last_processed_at"`
	ErrorCount         int64     `json:"error_count"`
	LastError          *string   `json:"last_error,omitempty"`
	EventCount         int64     `json:"event_count"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Sources []SourceStatus `json:"sources"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Sources   int       `json:"sources"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
