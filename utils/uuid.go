package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// RequestID keeps an inbound X-Request-ID when it parses as a UUID and mints
// a new one otherwise, so log correlation never trusts arbitrary header text.
func RequestID(incoming string) string {
	if incoming != "" {
		if id, err := uuid.Parse(incoming); err == nil {
			return id.String()
		}
	}
	return GenerateID()
}
