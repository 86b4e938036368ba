package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/humanoid-referee/internal/config"
	"github.com/charleschow/humanoid-referee/internal/process"
	"github.com/charleschow/humanoid-referee/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	if err := telemetry.InitWithFile(telemetry.ParseLogLevel(cfg.LogLevel), cfg.LogFile); err != nil {
		telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
		telemetry.Warnf("Log file disabled: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Infof("Starting referee  game=%s", cfg.GameConfigPath)
	if err := process.Run(ctx, cfg); err != nil {
		telemetry.Errorf("%v", err)
		telemetry.Close()
		os.Exit(1)
	}
	telemetry.Close()
}
