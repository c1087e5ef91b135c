package model

import "time"

// APIKey is a provisioned credential for the recognition API. Only the
// bcrypt hash of the secret is stored; the plaintext is returned exactly
// once at creation time and can never be recovered afterwards.
type APIKey struct {
	ID          string    `json:"id"`
	KeyHash     string    `json:"-"`
	Description string    `json:"description,omitempty"`
	CallLimit   int       `json:"call_limit"`
	CallsMade   int       `json:"calls_made"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
