package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UsernamePattern defines the allowed username format:
// latin letters, digits and underscore, 3-32 characters
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen is the minimum username length
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length
	MaxUsernameLen = 32
	// MaxGroupNameLen is the maximum group name length
	MaxGroupNameLen = 64
	// MaxMessageLen is the maximum message body length in bytes
	MaxMessageLen = 4096
)

// ValidateUsername checks that username matches the allowed format.
// Validation failures are rejected synchronously and never reach the outbox.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidateGroupName checks that a group name is non-blank and within limits
func ValidateGroupName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("group name cannot be empty")
	}

	if utf8.RuneCountInString(trimmed) > MaxGroupNameLen {
		return fmt.Errorf("group name must not exceed %d characters", MaxGroupNameLen)
	}

	return nil
}

// ValidateMessageBody checks that a message body is non-blank and within limits
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	if len(body) > MaxMessageLen {
		return fmt.Errorf("message body must not exceed %d bytes", MaxMessageLen)
	}

	return nil
}
