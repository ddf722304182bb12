// Package app wires a machine, its observers and a driver from the
// binaries' configuration.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/librescoot/loopfsm"
	"github.com/librescoot/loopfsm/config"
	"github.com/librescoot/loopfsm/demo/robot"
	"github.com/librescoot/loopfsm/journal"
	"github.com/librescoot/loopfsm/logger"
	"github.com/librescoot/loopfsm/telemetry"
	"github.com/librescoot/loopfsm/trace"
)

// observerQueue is how many transitions an I/O observer may lag behind
const observerQueue = 64

// App is a configured machine ready to be started and driven
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Machine *loopfsm.Machine
	Trace   *trace.Recorder
	Source  *loopfsm.ChanSource

	closers []io.Closer
}

// New builds the logger, observers and machine described by cfg.
// service names the binary in log records.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithAttr(slog.String("service", service)),
	)

	a := &App{
		Config: cfg,
		Logger: log,
		Trace:  trace.NewRecorder(),
		Source: loopfsm.NewChanSource(16),
	}

	opts := []loopfsm.MachineOption{
		loopfsm.WithLogger(log),
		loopfsm.WithObserver(a.Trace),
	}
	if cfg.MachineID != "" {
		opts = append(opts, loopfsm.WithID(cfg.MachineID))
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath, journal.WithLogger(log))
		if err != nil {
			a.Close()
			return nil, err
		}
		async := loopfsm.NewAsyncObserver(j, observerQueue)
		// closed in reverse: drain the queue, then the database
		a.closers = append(a.closers, j, async)
		opts = append(opts, loopfsm.WithObserver(async))
	}

	if cfg.RedisAddr != "" {
		client, err := telemetry.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		async := loopfsm.NewAsyncObserver(telemetry.NewPublisher(client,
			telemetry.WithChannel(cfg.RedisChannel),
			telemetry.WithLogger(log),
		), observerQueue)
		a.closers = append(a.closers, client, async)
		opts = append(opts, loopfsm.WithObserver(async))
	}

	a.Machine = loopfsm.New(opts...)
	return a, nil
}

// Run drives the machine until ctx is cancelled, then writes the trace file
// when one is configured.
func (a *App) Run(ctx context.Context) error {
	d := loopfsm.NewDriver(a.Machine, a.Source,
		loopfsm.WithTickInterval(a.Config.Tick),
		loopfsm.WithDriverLogger(a.Logger),
	)
	err := d.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if a.Config.TraceFile != "" {
		if werr := a.Trace.WriteFile(a.Config.TraceFile, a.Machine.ID()); werr != nil {
			err = errors.Join(err, werr)
		} else {
			a.Logger.Info("trace written", "path", a.Config.TraceFile, "transitions", a.Machine.Transitions())
		}
	}
	return err
}

// Close releases the journal and redis client
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ReadKeypad turns lines from r into button events: "p" presses and "r"
// releases key 0, anything else is ignored. It returns when r is exhausted
// or ctx is done.
func ReadKeypad(ctx context.Context, r io.Reader, src *loopfsm.ChanSource) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		ev, ok := ParseKey(sc.Text())
		if !ok {
			continue
		}
		src.Push(ev)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read keypad: %w", err)
	}
	return nil
}

// ParseKey maps one input line to a button event
func ParseKey(line string) (robot.Button, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "press":
		return robot.Button{Key: 0, Released: false}, true
	case "r", "release":
		return robot.Button{Key: 0, Released: true}, true
	default:
		return robot.Button{}, false
	}
}
