package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-nova/internal/log"
	"github.com/teslashibe/go-nova/pkg/nova"
)

func runAgent(parent context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.CheckAssets(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := nova.New(cfg, log.L())
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := app.Init(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}
