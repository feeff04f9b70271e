// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polyball/polyball/pkg/config"
	"github.com/polyball/polyball/pkg/engine"
	"github.com/polyball/polyball/pkg/event"
	"github.com/polyball/polyball/pkg/health"
	"github.com/polyball/polyball/pkg/logging"
	"github.com/polyball/polyball/pkg/network"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to configuration file (JSON or YAML)")
	createDefault := flag.Bool("default", false, "Write the default configuration to the given path and exit")
	flag.Parse()

	if *createDefault {
		path := *configPath
		if path == "" {
			path = "config.json"
		}
		if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
			logger.Error(ctx, "failed to write default config", err, "path", path)
			os.Exit(1)
		}
		logger.Info(ctx, "default configuration written", "path", path)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error(ctx, "failed to load configuration", err)
		os.Exit(1)
	}

	bus := event.NewBus()
	sim, err := engine.NewSimulation(cfg.Simulation, bus)
	if err != nil {
		logger.Error(ctx, "failed to create simulation", err)
		os.Exit(1)
	}

	// Surface the interesting lifecycle events in the server log.
	bus.Subscribe(event.WallBounce, func(e event.Event) {
		if bounce, ok := e.(*event.BounceEvent); ok {
			logger.Debug(ctx, "wall bounce",
				"edge", bounce.EdgeIndex,
				"speed", bounce.Speed,
			)
		}
	})
	bus.Subscribe(event.BoundaryChanged, func(e event.Event) {
		if change, ok := e.(*event.BoundaryEvent); ok {
			logger.Info(ctx, "boundary changed",
				"sides", change.Sides,
				"old_sides", change.OldSides,
			)
		}
	})

	srv := network.NewServer(sim, cfg)
	if err := srv.Start(cfg.Network.ListenAddress); err != nil {
		logger.Error(ctx, "failed to start server", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, runCtx := errgroup.WithContext(runCtx)

	hub := network.NewWebSocketHub(srv)
	g.Go(func() error {
		return hub.Start(runCtx, cfg.Network.WebSocketAddress)
	})

	g.Go(func() error {
		return runHealthServer(runCtx, cfg.Network.HealthAddress, sim)
	})

	g.Go(func() error {
		<-runCtx.Done()
		srv.Stop()
		return nil
	})

	logger.Info(ctx, "polyball server running",
		"tcp", cfg.Network.ListenAddress,
		"websocket", cfg.Network.WebSocketAddress,
		"health", cfg.Network.HealthAddress,
		"sides", cfg.Simulation.Sides,
	)

	if err := g.Wait(); err != nil && runCtx.Err() == nil {
		logger.Error(ctx, "server exited with error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "server shut down")
}

// loadConfig reads the config file when given, otherwise builds the
// configuration from defaults plus environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	return config.LoadConfigFromEnv()
}

// runHealthServer serves liveness and readiness probes until the context
// is canceled.
func runHealthServer(ctx context.Context, address string, sim *engine.Simulation) error {
	checker := health.NewChecker()
	checker.AddCheck(health.NewSimulationCheck(sim, 5*time.Second))

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", checker.LivenessHandler)
	mux.HandleFunc("/health/ready", checker.ReadinessHandler)

	srv := &http.Server{Addr: address, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
