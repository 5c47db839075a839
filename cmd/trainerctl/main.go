// Command trainerctl drives the trainer dashboard from a terminal: it signs in against the
// fitness API, lists catalog data, assigns plans and deletes resources.
//
// The session is stored in the dashboard database under a fixed key, so every invocation
// after `trainerctl login` reuses it until it expires or `trainerctl logout` runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"trainerdash/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "trainerctl:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := newApp(cfg, os.Stdout)
	err = newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		os.Exit(1)
	}
}
