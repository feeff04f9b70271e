// Package validation provides input validation for network commands
// before they reach the simulation core.
package validation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/polyball/polyball/pkg/boundary"
	"github.com/polyball/polyball/pkg/physics"
)

// Message size and rate limits for the command channel
const (
	MaxMessageSize    = 4 * 1024 // commands are tiny; anything bigger is abuse
	MaxMessagesPerMin = 120
)

// MessageValidator provides validation for incoming client messages
type MessageValidator struct {
	rateLimiter *RateLimiter
}

// NewMessageValidator creates a new message validator with rate limiting
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		rateLimiter: NewRateLimiter(MaxMessagesPerMin, time.Minute),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// ValidateMessage validates a raw message against size and format
// constraints and the per-client rate limit.
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d messages per minute", MaxMessagesPerMin)
	}

	return nil
}

// ValidateAimPoint rejects aim points with non-finite coordinates. A zero
// aim vector is deliberately allowed; the core defines it as an inert
// launch, not an error.
func ValidateAimPoint(aim physics.Vector2D) error {
	if !aim.IsFinite() {
		return fmt.Errorf("aim point must have finite coordinates, got (%v, %v)", aim.X, aim.Y)
	}
	return nil
}

// ValidateSideCount checks a requested boundary side count against the
// session's allowed range.
func ValidateSideCount(n, maxSides int) error {
	if n < boundary.MinSides {
		return fmt.Errorf("side count %d below minimum %d", n, boundary.MinSides)
	}
	if n > maxSides {
		return fmt.Errorf("side count %d above maximum %d", n, maxSides)
	}
	return nil
}
