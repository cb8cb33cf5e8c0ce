package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// IdentifierRegex covers the client-chosen ids that end up in file
	// names and redis keys: session ids, camera ids, room names.
	IdentifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateSessionID validates an ISO recording session id.
func ValidateSessionID(id string) error {
	return validateIdentifier("sessionId", id, 128)
}

// ValidateCamID validates a camera id within a session.
func ValidateCamID(id string) error {
	return validateIdentifier("camId", id, 64)
}

// ValidateRoomID validates a room name.
func ValidateRoomID(id string) error {
	return validateIdentifier("room", id, 128)
}

func validateIdentifier(field, id string, maxLen int) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(id) > maxLen {
		return fmt.Errorf("%s is too long (max %d characters)", field, maxLen)
	}
	if !IdentifierRegex.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only letters, numbers, _, - allowed)", field)
	}
	return nil
}
