// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// huddle is the terminal chat and video client. It connects to a
// huddle-relay, shows the chat log and the video strip, and sends
// what you type when you press Enter. Messages appear greyed out until
// the relay echoes them back.
//
// Usage:
//
//	huddle [--server HOST:PORT] [--camera] [--config FILE] [--log-file FILE]
//
// With --camera the client streams a synthetic test pattern so video
// can be tried without a capture device.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/bureau-foundation/huddle/camera"
	"github.com/bureau-foundation/huddle/client"
	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/lib/config"
	"github.com/bureau-foundation/huddle/lib/eventbus"
	"github.com/bureau-foundation/huddle/lib/logging"
	"github.com/bureau-foundation/huddle/lib/version"
	"github.com/bureau-foundation/huddle/session"
	"github.com/bureau-foundation/huddle/termui"
	"github.com/bureau-foundation/huddle/wire"
)

const (
	// eventCapacity bounds the session event bus. Keyboard and
	// network producers block when it is full; ticks are dropped.
	eventCapacity = 256

	// dialTimeout bounds the initial connection to the relay.
	dialTimeout = 10 * time.Second

	// patternHold is how many camera frames each test pattern step
	// lasts.
	patternHold = 2
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		server      string
		color       string
		logFile     string
		cameraOn    bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("huddle", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVarP(&server, "server", "s", "", "relay address host:port (overrides client.server)")
	flagSet.StringVar(&color, "color", "", "auto, truecolor, ansi256, ansi or none (overrides client.color)")
	flagSet.StringVar(&logFile, "log-file", "", "also write JSON log records to this file (overrides client.log_file)")
	flagSet.BoolVar(&cameraOn, "camera", false, "stream the test pattern camera (overrides client.camera.enabled)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "huddle")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("server") {
		cfg.Client.Server = server
	}
	if flagSet.Changed("color") {
		cfg.Client.Color = color
	}
	if flagSet.Changed("log-file") {
		cfg.Client.LogFile = logFile
	}
	if flagSet.Changed("camera") {
		cfg.Client.Camera.Enabled = cameraOn
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("huddle needs an interactive terminal on stdin and stdout")
	}

	profile, setProfile, err := termui.ColorProfile(cfg.Client.Color)
	if err != nil {
		return err
	}
	if setProfile {
		lipgloss.SetColorProfile(profile)
	}
	compression, err := wire.ParseCompression(cfg.Client.Camera.Compression)
	if err != nil {
		return err
	}

	// Stderr belongs to the terminal UI: warnings go to the status
	// bar, and everything goes to the log file when one is set.
	tuiHandler := termui.NewLogHandler(slog.LevelWarn)
	var handler slog.Handler = tuiHandler
	if cfg.Client.LogFile != "" {
		fileLogger, file, err := logging.OpenFile(cfg.Client.LogFile, slog.LevelDebug)
		if err != nil {
			return err
		}
		defer file.Close()
		handler = fanoutHandler{tuiHandler, fileLogger.Handler()}
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := eventbus.New[session.Event](eventCapacity)
	defer events.Close()

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	bridge, err := client.Dial(dialCtx, cfg.Client.Server, events, client.Options{
		MaxFrameSize: cfg.Client.MaxFrameSize,
		QueueSize:    cfg.Client.QueueSize,
		Logger:       logger,
	})
	dialCancel()
	if err != nil {
		return err
	}
	defer bridge.Close()
	logger.Info("connected", "server", cfg.Client.Server, "version", version.Info())

	surface := termui.NewSurface()
	machine := session.NewMachine(session.NewState(session.NewIDAllocator()), events, bridge, surface, logger)
	model := termui.NewModel(ctx, events, surface, termui.Options{
		Address: cfg.Client.Server,
		Video:   true,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	tuiHandler.SetProgram(program)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// A lost connection is shown in the UI, which keeps running
		// until the user quits.
		if err := bridge.Run(groupCtx); err != nil {
			logger.Debug("relay connection ended", "error", err)
		}
		return nil
	})
	group.Go(func() error {
		return client.RunTicker(groupCtx, clock.Real(), cfg.Client.TickInterval, events)
	})
	group.Go(func() error {
		return machine.Run(groupCtx)
	})
	var pump *camera.Pump
	if cfg.Client.Camera.Enabled {
		source := camera.NewTestPattern(cfg.Client.Camera.Width, cfg.Client.Camera.Height, patternHold)
		pump = camera.NewPump(source, bridge, camera.PumpConfig{
			FPS:         cfg.Client.Camera.FPS,
			Compression: compression,
			Logger:      logger,
		})
		group.Go(func() error {
			return pump.Run(groupCtx)
		})
	}
	group.Go(func() error {
		surface.Forward(groupCtx, program)
		return nil
	})
	group.Go(func() error {
		// A failed worker takes the UI down with it.
		<-groupCtx.Done()
		program.Quit()
		return nil
	})

	_, runErr := program.Run()
	cancel()
	groupErr := group.Wait()

	sent, received := bridge.Stats()
	summary := []any{"sent", humanize.Bytes(sent), "received", humanize.Bytes(received)}
	if pump != nil {
		frames, skipped := pump.Stats()
		summary = append(summary, "video_frames", frames, "video_unchanged", skipped)
	}
	logger.Info("session ended", summary...)

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return groupErr
}

// fanoutHandler is a slog.Handler that sends each record to multiple
// underlying handlers. A record is enabled if any sub-handler is
// enabled for that level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
