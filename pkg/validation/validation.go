// Package validation provides input validation for names and payloads
// arriving over the API before they reach the simulation core.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Size and content limits for API input.
const (
	MaxPayloadSize = 64 * 1024 // 64KB max order payload
	MaxNameLen     = 64
)

// Game and entity names become filename components and JSON keys, so the
// character set stays tight: no dots, slashes or whitespace.
var validNameChars = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// ValidateName validates a game or vessel name.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLen {
		return "", fmt.Errorf("name too long: %d characters (max %d)", len(name), MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("name contains invalid UTF-8")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("name cannot be only whitespace")
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("name contains control characters")
		}
	}
	if !validNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("name may only contain letters, digits, hyphens and underscores")
	}
	return trimmed, nil
}

// ValidatePayload validates a raw JSON payload against size and format
// constraints.
func ValidatePayload(data []byte) error {
	if len(data) > MaxPayloadSize {
		return fmt.Errorf("payload too large: %d bytes (max %d)", len(data), MaxPayloadSize)
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}
