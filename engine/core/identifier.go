package core

import "github.com/google/uuid"

// NewID returns a random identifier for an asset instance, scene node or
// attached accessory instance.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s parses as an identifier produced by NewID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
