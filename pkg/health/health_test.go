// pkg/health/health_test.go
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type stubCheck struct {
	name string
	err  error
}

func (c *stubCheck) Name() string                    { return c.name }
func (c *stubCheck) Check(ctx context.Context) error { return c.err }

type fakeTicker struct {
	tick atomic.Uint64
}

func (f *fakeTicker) CurrentTick() uint64 { return f.tick.Load() }

func TestChecker_AllHealthy(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck(&stubCheck{name: "a"})
	hc.AddCheck(&stubCheck{name: "b"})

	status := hc.CheckHealth(context.Background())

	if status.Status != "healthy" {
		t.Errorf("status = %q, expected healthy", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("got %d check results, expected 2", len(status.Checks))
	}
}

func TestChecker_OneFailureMakesUnhealthy(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck(&stubCheck{name: "good"})
	hc.AddCheck(&stubCheck{name: "bad", err: errors.New("broken")})

	status := hc.CheckHealth(context.Background())

	if status.Status != "unhealthy" {
		t.Errorf("status = %q, expected unhealthy", status.Status)
	}
	if status.Checks["bad"].Message != "broken" {
		t.Errorf("failure message = %q, expected broken", status.Checks["bad"].Message)
	}
	if status.Checks["good"].Status != "healthy" {
		t.Error("passing check reported unhealthy")
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewChecker()
	hc.AddCheck(&stubCheck{name: "bad", err: errors.New("broken")})

	rec := httptest.NewRecorder()
	hc.LivenessHandler(rec, httptest.NewRequest("GET", "/health/live", nil))

	// Liveness ignores check results; it only proves the process serves
	if rec.Code != 200 {
		t.Errorf("liveness status = %d, expected 200", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		hc := NewChecker()
		hc.AddCheck(&stubCheck{name: "ok"})

		rec := httptest.NewRecorder()
		hc.ReadinessHandler(rec, httptest.NewRequest("GET", "/health/ready", nil))

		if rec.Code != 200 {
			t.Errorf("readiness status = %d, expected 200", rec.Code)
		}
	})

	t.Run("not_ready", func(t *testing.T) {
		hc := NewChecker()
		hc.AddCheck(&stubCheck{name: "bad", err: errors.New("down")})

		rec := httptest.NewRecorder()
		hc.ReadinessHandler(rec, httptest.NewRequest("GET", "/health/ready", nil))

		if rec.Code != 503 {
			t.Errorf("readiness status = %d, expected 503", rec.Code)
		}

		var status Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("response not valid JSON: %v", err)
		}
		if status.Status != "unhealthy" {
			t.Errorf("body status = %q, expected unhealthy", status.Status)
		}
	})
}

func TestSimulationCheck(t *testing.T) {
	ticker := &fakeTicker{}
	check := NewSimulationCheck(ticker, 50*time.Millisecond)
	ctx := context.Background()

	if got := check.Name(); got != "simulation_tick" {
		t.Errorf("Name() = %q", got)
	}

	// A fresh check tolerates the initial stall window
	if err := check.Check(ctx); err != nil {
		t.Errorf("fresh check failed: %v", err)
	}

	// Advancing ticks keep the check healthy indefinitely
	for i := 0; i < 3; i++ {
		ticker.tick.Add(1)
		time.Sleep(30 * time.Millisecond)
		if err := check.Check(ctx); err != nil {
			t.Errorf("check failed while ticks advance: %v", err)
		}
	}

	// A frozen counter past the stall window must fail
	time.Sleep(80 * time.Millisecond)
	if err := check.Check(ctx); err == nil {
		t.Error("stalled tick loop reported healthy")
	}

	// Recovery: the counter moves again
	ticker.tick.Add(1)
	if err := check.Check(ctx); err != nil {
		t.Errorf("check failed after recovery: %v", err)
	}
}
