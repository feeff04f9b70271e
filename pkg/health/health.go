// Package health provides health check endpoints for the polyball server.
// It implements HTTP liveness and readiness probes plus a check that the
// simulation tick loop is actually advancing.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Check defines the interface for individual health checks.
type Check interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// Status represents the overall health status of the application.
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker manages and executes health checks for the application.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

// NewChecker creates a new health checker instance.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
	}
}

// AddCheck registers a new health check. A check with the same name
// replaces the existing one.
func (hc *Checker) AddCheck(check Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// CheckHealth executes all registered health checks and returns the
// aggregated status. The overall status is "healthy" only if every
// individual check passes.
func (hc *Checker) CheckHealth(ctx context.Context) Status {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := Status{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler provides a simple liveness probe endpoint. It returns
// 200 OK whenever the process can still serve HTTP.
func (hc *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs all registered checks and reports 200 when every
// component is healthy, 503 otherwise.
func (hc *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// TickSource exposes the tick counter of a running simulation.
type TickSource interface {
	CurrentTick() uint64
}

// SimulationCheck fails when the simulation tick counter stops advancing,
// which indicates a stalled tick loop.
type SimulationCheck struct {
	source   TickSource
	maxStall time.Duration

	mu       sync.Mutex
	lastTick uint64
	lastMove time.Time
}

// NewSimulationCheck creates a check that tolerates the given stall
// duration before reporting the tick loop as dead.
func NewSimulationCheck(source TickSource, maxStall time.Duration) *SimulationCheck {
	return &SimulationCheck{
		source:   source,
		maxStall: maxStall,
		lastMove: time.Now(),
	}
}

// Name implements Check.
func (c *SimulationCheck) Name() string {
	return "simulation_tick"
}

// Check implements Check.
func (c *SimulationCheck) Check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tick := c.source.CurrentTick()
	now := time.Now()

	if tick != c.lastTick {
		c.lastTick = tick
		c.lastMove = now
		return nil
	}

	if stall := now.Sub(c.lastMove); stall > c.maxStall {
		return fmt.Errorf("tick loop stalled at tick %d for %s", tick, stall.Round(time.Millisecond))
	}
	return nil
}
