package utils

import "github.com/google/uuid"

// NewID returns a random UUID string.
func NewID() string {
	return uuid.New().String()
}
