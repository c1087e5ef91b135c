package request

// CreateAPIKey holds the request body for provisioning an API key.
// A nil call limit falls back to the configured default.
type CreateAPIKey struct {
	Description string `json:"description" validate:"omitempty,max=255"`
	CallLimit   *int   `json:"call_limit" validate:"omitempty,gte=0"`
}
