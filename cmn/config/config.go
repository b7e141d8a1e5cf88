// Package config parses the server process's CLI surface (§6) and holds the
// tuning constants the rest of the process reads at startup. Non-goals
// exclude CLI launcher *features* (interactive shells, template authoring
// wizards); the flag parsing itself is ambient plumbing every aistore node
// binary has, so it stays.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"flag"
	"time"
)

type Config struct {
	LogLevel      string
	Port          int
	NoViewer      bool
	ResetInterval time.Duration

	// Tick loop tuning (not CLI-exposed; §4.4).
	TickInterval   time.Duration
	TickDeadline   time.Duration
	MaxSubsteps    int
	WorkerPoolSize int
	StoreRetries   int
	StoreBackoff   time.Duration
}

// Parse reads the process's CLI flags per §6: --loglevel, --port,
// --no-viewer, --reset-interval.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("azraeld", flag.ContinueOnError)
	cfg := Default()

	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log verbosity (info|warning|error)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "client RPC listen port")
	fs.BoolVar(&cfg.NoViewer, "no-viewer", cfg.NoViewer, "disable the OpenGL viewer bridge")
	fs.DurationVar(&cfg.ResetInterval, "reset-interval", cfg.ResetInterval,
		"period between consistency sweeps that re-derive AABBs from bodies")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Port:           8080,
		NoViewer:       false,
		ResetInterval:  5 * time.Minute,
		TickInterval:   20 * time.Millisecond,
		TickDeadline:   18 * time.Millisecond,
		MaxSubsteps:    4,
		WorkerPoolSize: 4,
		StoreRetries:   3,
		StoreBackoff:   50 * time.Millisecond,
	}
}
