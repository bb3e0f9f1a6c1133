package core

import (
	"strings"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns a fresh identifier for a stored record.
func NewID() string {
	return uuid.New().String()
}

// IsValidID reports whether id is a well-formed record identifier.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
