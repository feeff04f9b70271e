// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/polyball/polyball/pkg/physics"
)

// Config contains the full configuration for a simulation session.
type Config struct {
	Simulation SimConfig     `json:"simulation" yaml:"simulation"`
	Network    NetworkConfig `json:"network" yaml:"network"`
}

// SimConfig contains the physics and geometry parameters of the session.
type SimConfig struct {
	Gravity        float64          `json:"gravity" yaml:"gravity"`               // world units per second squared, downward
	Friction       float64          `json:"friction" yaml:"friction"`             // fractional velocity loss per second
	RotationRate   float64          `json:"rotationRate" yaml:"rotationRate"`     // radians per second
	LaunchSpeed    float64          `json:"launchSpeed" yaml:"launchSpeed"`       // world units per second
	BallRadius     float64          `json:"ballRadius" yaml:"ballRadius"`
	BoundaryRadius float64          `json:"boundaryRadius" yaml:"boundaryRadius"` // circumradius
	BoundaryCenter physics.Vector2D `json:"boundaryCenter" yaml:"boundaryCenter"`
	Sides          int              `json:"sides" yaml:"sides"`
	MaxSides       int              `json:"maxSides" yaml:"maxSides"`
}

// NetworkConfig contains the serving parameters.
type NetworkConfig struct {
	ListenAddress    string `json:"listenAddress" yaml:"listenAddress"`
	WebSocketAddress string `json:"webSocketAddress" yaml:"webSocketAddress"`
	HealthAddress    string `json:"healthAddress" yaml:"healthAddress"`
	UpdateRate       int    `json:"updateRate" yaml:"updateRate"` // snapshots per second
	MaxClients       int    `json:"maxClients" yaml:"maxClients"`
}

// LoadConfig loads a configuration from a JSON or YAML file, chosen by
// file extension.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves a configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the simulation cannot run
// with. Side-count validation happens here, before the core ever sees an
// invalid shape.
func (c *Config) Validate() error {
	if c.Simulation.Sides < 3 {
		return fmt.Errorf("simulation.sides must be at least 3, got %d", c.Simulation.Sides)
	}
	if c.Simulation.MaxSides < c.Simulation.Sides {
		return fmt.Errorf("simulation.maxSides (%d) must not be below simulation.sides (%d)",
			c.Simulation.MaxSides, c.Simulation.Sides)
	}
	if c.Simulation.BallRadius <= 0 {
		return fmt.Errorf("simulation.ballRadius must be positive, got %v", c.Simulation.BallRadius)
	}
	if c.Simulation.BoundaryRadius <= c.Simulation.BallRadius {
		return fmt.Errorf("simulation.boundaryRadius (%v) must exceed ballRadius (%v)",
			c.Simulation.BoundaryRadius, c.Simulation.BallRadius)
	}
	if c.Simulation.LaunchSpeed < 0 {
		return fmt.Errorf("simulation.launchSpeed must not be negative, got %v", c.Simulation.LaunchSpeed)
	}
	if c.Simulation.Friction < 0 {
		return fmt.Errorf("simulation.friction must not be negative, got %v", c.Simulation.Friction)
	}
	if c.Network.UpdateRate <= 0 {
		return fmt.Errorf("network.updateRate must be positive, got %d", c.Network.UpdateRate)
	}
	if c.Network.MaxClients <= 0 {
		return fmt.Errorf("network.maxClients must be positive, got %d", c.Network.MaxClients)
	}
	return nil
}

// DefaultConfig returns the default session configuration. The physics
// constants match the reference session: a triangle of circumradius 250
// centered at (400, 320), spinning at 30 degrees per second, no gravity,
// no friction, launch speed 300.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimConfig{
			Gravity:        0,
			Friction:       0,
			RotationRate:   30 * math.Pi / 180,
			LaunchSpeed:    300,
			BallRadius:     10,
			BoundaryRadius: 250,
			BoundaryCenter: physics.Vector2D{X: 400, Y: 320},
			Sides:          3,
			MaxSides:       10,
		},
		Network: NetworkConfig{
			ListenAddress:    "localhost:4590",
			WebSocketAddress: "localhost:4591",
			HealthAddress:    "localhost:4592",
			UpdateRate:       30,
			MaxClients:       16,
		},
	}
}
