package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/librescoot/loopfsm/config"
	"github.com/librescoot/loopfsm/demo/pixel"
	"github.com/librescoot/loopfsm/demo/trafficlight"
	"github.com/librescoot/loopfsm/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trafficlight: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, "trafficlight")
	if err != nil {
		return err
	}
	defer a.Close()

	if err := trafficlight.Start(a.Machine, pixel.NewTerminal(os.Stdout), cfg.Timings.TrafficLight); err != nil {
		return err
	}

	// The keypad is still scanned; the traffic light ignores button events.
	go app.ReadKeypad(ctx, os.Stdin, a.Source)

	return a.Run(ctx)
}
