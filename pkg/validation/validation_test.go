// pkg/validation/validation_test.go
package validation

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/polyball/polyball/pkg/physics"
)

func TestMessageValidator_ValidateMessage(t *testing.T) {
	v := NewMessageValidator()
	defer v.Close()

	t.Run("valid_message", func(t *testing.T) {
		if err := v.ValidateMessage([]byte(`{"aim":{"x":650,"y":320}}`), "client-1"); err != nil {
			t.Errorf("ValidateMessage() failed: %v", err)
		}
	})

	t.Run("oversized_message", func(t *testing.T) {
		big := append([]byte(`{"padding":"`), bytes.Repeat([]byte("a"), MaxMessageSize)...)
		big = append(big, []byte(`"}`)...)
		if err := v.ValidateMessage(big, "client-2"); err == nil {
			t.Error("oversized message passed validation")
		}
	})

	t.Run("malformed_json", func(t *testing.T) {
		if err := v.ValidateMessage([]byte(`{not json`), "client-3"); err == nil {
			t.Error("malformed JSON passed validation")
		}
	})
}

func TestMessageValidator_RateLimit(t *testing.T) {
	v := NewMessageValidator()
	defer v.Close()

	msg := []byte(`{}`)
	allowed := 0
	for i := 0; i < MaxMessagesPerMin+10; i++ {
		if err := v.ValidateMessage(msg, "flooder"); err == nil {
			allowed++
		}
	}

	if allowed > MaxMessagesPerMin {
		t.Errorf("allowed %d messages, expected at most %d", allowed, MaxMessagesPerMin)
	}

	// Other clients are unaffected by the flooder's bucket
	if err := v.ValidateMessage(msg, "bystander"); err != nil {
		t.Errorf("independent client rejected: %v", err)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(2, 100*time.Millisecond)
	defer rl.Close()

	if !rl.Allow("c") || !rl.Allow("c") {
		t.Fatal("initial tokens not granted")
	}
	if rl.Allow("c") {
		t.Fatal("empty bucket granted a token")
	}

	time.Sleep(150 * time.Millisecond)

	if !rl.Allow("c") {
		t.Error("bucket did not refill after a full window")
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, 50*time.Millisecond)
	defer rl.Close()

	// A client that consumed a token and went away must be evicted once
	// it has been unseen for two windows.
	rl.Allow("one-shot")
	if trackedClients(rl) != 1 {
		t.Fatal("client not tracked after Allow")
	}

	deadline := time.Now().Add(2 * time.Second)
	for trackedClients(rl) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := trackedClients(rl); n != 0 {
		t.Errorf("idle client still tracked after eviction window, %d clients remain", n)
	}
}

func TestRateLimiter_KeepsActiveClients(t *testing.T) {
	rl := NewRateLimiter(100, 50*time.Millisecond)
	defer rl.Close()

	// Keep the client busy across several cleanup passes
	stop := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(stop) {
		rl.Allow("busy")
		time.Sleep(10 * time.Millisecond)
	}

	if trackedClients(rl) != 1 {
		t.Error("active client evicted by cleanup")
	}
}

func trackedClients(rl *RateLimiter) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

func TestValidateAimPoint(t *testing.T) {
	tests := []struct {
		name    string
		aim     physics.Vector2D
		wantErr bool
	}{
		{name: "regular_point", aim: physics.Vector2D{X: 650, Y: 320}, wantErr: false},
		{name: "negative_coordinates", aim: physics.Vector2D{X: -100, Y: -50}, wantErr: false},
		{name: "zero_point_allowed", aim: physics.Vector2D{}, wantErr: false},
		{name: "nan_x", aim: physics.Vector2D{X: math.NaN(), Y: 0}, wantErr: true},
		{name: "infinite_y", aim: physics.Vector2D{X: 0, Y: math.Inf(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAimPoint(tt.aim)
			if tt.wantErr && err == nil {
				t.Error("ValidateAimPoint() passed, expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAimPoint() failed: %v", err)
			}
		})
	}
}

func TestValidateSideCount(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		maxSides int
		wantErr  bool
	}{
		{name: "minimum", n: 3, maxSides: 10, wantErr: false},
		{name: "maximum", n: 10, maxSides: 10, wantErr: false},
		{name: "below_minimum", n: 2, maxSides: 10, wantErr: true},
		{name: "above_maximum", n: 11, maxSides: 10, wantErr: true},
		{name: "negative", n: -3, maxSides: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSideCount(tt.n, tt.maxSides)
			if tt.wantErr && err == nil {
				t.Error("ValidateSideCount() passed, expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateSideCount() failed: %v", err)
			}
		})
	}
}
