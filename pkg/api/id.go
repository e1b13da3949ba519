package api

import "github.com/google/uuid"

// NewResourceID generates a random (version 4) UUID for a new resource.
func NewResourceID() string {
	return uuid.NewString()
}

// ValidateResourceID reports whether id is a well-formed UUID in its
// canonical hyphenated form.
func ValidateResourceID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
