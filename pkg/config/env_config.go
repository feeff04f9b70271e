// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// LoadConfigFromEnv builds a configuration from defaults with
// POLYBALL_* environment variable overrides applied. It is used by
// deployments that ship no config file.
func LoadConfigFromEnv() (*Config, error) {
	config := DefaultConfig()
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides mutates config with any environment overrides present.
func applyEnvOverrides(config *Config) error {
	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"POLYBALL_GRAVITY", floatVar(&config.Simulation.Gravity)},
		{"POLYBALL_FRICTION", floatVar(&config.Simulation.Friction)},
		{"POLYBALL_ROTATION_RATE", floatVar(&config.Simulation.RotationRate)},
		{"POLYBALL_LAUNCH_SPEED", floatVar(&config.Simulation.LaunchSpeed)},
		{"POLYBALL_BALL_RADIUS", floatVar(&config.Simulation.BallRadius)},
		{"POLYBALL_BOUNDARY_RADIUS", floatVar(&config.Simulation.BoundaryRadius)},
		{"POLYBALL_SIDES", intVar(&config.Simulation.Sides)},
		{"POLYBALL_MAX_SIDES", intVar(&config.Simulation.MaxSides)},
		{"POLYBALL_LISTEN_ADDRESS", stringVar(&config.Network.ListenAddress)},
		{"POLYBALL_WEBSOCKET_ADDRESS", stringVar(&config.Network.WebSocketAddress)},
		{"POLYBALL_HEALTH_ADDRESS", stringVar(&config.Network.HealthAddress)},
		{"POLYBALL_UPDATE_RATE", intVar(&config.Network.UpdateRate)},
		{"POLYBALL_MAX_CLIENTS", intVar(&config.Network.MaxClients)},
	}

	for _, o := range overrides {
		value, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}
		if err := o.apply(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", o.key, err)
		}
	}
	return nil
}

func floatVar(dst *float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func stringVar(dst *string) func(string) error {
	return func(s string) error {
		*dst = s
		return nil
	}
}
