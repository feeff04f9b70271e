// cmd/client/main.go

// A headless viewer/controller: connects to a polyball server, optionally
// changes the boundary shape, launches the ball at an aim point, and logs
// the state stream. Useful for smoke-testing a deployment without a
// renderer.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polyball/polyball/pkg/logging"
	"github.com/polyball/polyball/pkg/network"
	"github.com/polyball/polyball/pkg/physics"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	address := flag.String("address", "localhost:4590", "Server address")
	name := flag.String("name", "headless-viewer", "Client name")
	sides := flag.Int("sides", 0, "Set boundary side count before launching (0 keeps the current shape)")
	aimX := flag.Float64("aim-x", 650, "Aim point x")
	aimY := flag.Float64("aim-y", 320, "Aim point y")
	launch := flag.Bool("launch", true, "Launch the ball after connecting")
	duration := flag.Duration("duration", 10*time.Second, "How long to watch the state stream")
	flag.Parse()

	client := network.NewClient()
	if err := client.Connect(*address, *name); err != nil {
		logger.Error(ctx, "connection failed", err, "address", *address)
		os.Exit(1)
	}
	defer client.Disconnect()

	if *sides > 0 {
		if err := client.SetShape(*sides); err != nil {
			logger.Error(ctx, "shape change rejected", err, "sides", *sides)
			os.Exit(1)
		}
	}

	if *launch {
		aim := physics.Vector2D{X: *aimX, Y: *aimY}
		if err := client.Launch(aim); err != nil {
			logger.Error(ctx, "launch rejected", err)
			os.Exit(1)
		}
		logger.Info(ctx, "launch requested", "aim_x", aim.X, "aim_y", aim.Y)
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deadline := time.After(*duration)
	for {
		select {
		case snapshot := <-client.Snapshots():
			logger.Info(ctx, "state",
				"tick", snapshot.Tick,
				"shape", snapshot.Shape,
				"launched", snapshot.Ball.Launched,
				"pos_x", snapshot.Ball.Position.X,
				"pos_y", snapshot.Ball.Position.Y,
				"vel_x", snapshot.Ball.Velocity.X,
				"vel_y", snapshot.Ball.Velocity.Y,
			)
		case <-deadline:
			logger.Info(ctx, "watch duration elapsed")
			return
		case <-watchCtx.Done():
			logger.Info(ctx, "interrupted")
			return
		}
	}
}
