// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// huddle-relay is the huddle fan-out server. Every frame a client
// sends is delivered to every connected client: chat is echoed back
// to its sender for confirmation and forwarded to everyone else,
// stamped with the relay's receive time; video goes to all clients,
// the sender included, tagged with its source.
//
// Usage:
//
//	huddle-relay [--config FILE] [--listen ADDR] [--log-level LEVEL]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/huddle/lib/clock"
	"github.com/bureau-foundation/huddle/lib/config"
	"github.com/bureau-foundation/huddle/lib/logging"
	"github.com/bureau-foundation/huddle/lib/version"
	"github.com/bureau-foundation/huddle/relay"
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
		listen      string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("huddle-relay", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&listen, "listen", "", "TCP address to accept clients on (overrides relay.listen)")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides relay.log_level)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Print(os.Stdout, "huddle-relay")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("listen") {
		cfg.Relay.Listen = listen
	}
	if flagSet.Changed("log-level") {
		cfg.Relay.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Relay.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := relay.New(relay.Config{
		MaxFrameSize:   cfg.Relay.MaxFrameSize,
		FanoutCapacity: cfg.Relay.FanoutCapacity,
		WriteTimeout:   cfg.Relay.WriteTimeout,
		Clock:          clock.Real(),
		Logger:         logger,
	})

	logger.Info("huddle relay starting",
		"version", version.Info(),
		"listen", cfg.Relay.Listen,
		"fanout_capacity", cfg.Relay.FanoutCapacity,
	)
	if err := server.ListenAndServe(ctx, cfg.Relay.Listen); err != nil {
		return err
	}
	logger.Info("huddle relay stopped")
	return nil
}
