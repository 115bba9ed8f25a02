package apperr

import (
	"strings"

	"github.com/google/uuid"
)

// ValidateID rejects identifiers that are not UUIDs. Malformed ids are
// reported as InvalidArgument, never as NotFound.
func ValidateID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid("%s is required", field)
	}
	if _, err := uuid.Parse(value); err != nil {
		return Invalid("%s is not a valid id", field)
	}
	return nil
}
