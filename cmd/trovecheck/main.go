package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"trove_go/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults built in when empty)")
	scenarioPath := flag.String("scenario", "", "validate the scenario file and print the result as JSON")
	serve := flag.Bool("serve", false, "run price feeds and the HTTP server until interrupted")
	flag.Parse()

	switch {
	case *scenarioPath != "":
		os.Exit(runScenario(*configPath, *scenarioPath))
	case *serve:
		os.Exit(runServe(*configPath))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runScenario(configPath, scenarioPath string) int {
	// stdout carries the report; logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	bootstrap := app.NewBootstrap()
	if err := bootstrap.LoadConfig(configPath); err != nil {
		slog.Error("❌ Loading config failed", slog.Any("error", err))
		return 1
	}
	bootstrap.InitCore()

	scenario, err := app.LoadScenario(scenarioPath)
	if err != nil {
		slog.Error("❌ Loading scenario failed", slog.Any("error", err))
		return 1
	}

	report, err := scenario.Run(bootstrap.Validator)
	if err != nil {
		slog.Error("❌ Validation failed", slog.Any("error", err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if report.Outcome == "rejected" {
		return 3
	}
	return 0
}

func runServe(configPath string) int {
	// Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return 1
	}
	defer bootstrap.Close()

	bootstrap.StartFeeds(ctx)
	defer bootstrap.StopFeeds()

	slog.InfoContext(ctx, "✨ trovecheck fully operational. Press Ctrl+C to exit.")

	if err := bootstrap.Serve(ctx); err != nil {
		slog.Error("❌ Server failed", slog.Any("error", err))
		return 1
	}

	slog.Info("👋 Shutting down gracefully...")
	return 0
}
