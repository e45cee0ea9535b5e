// Command voxara runs the Voxara web front end.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/bluescreen10/voxara/internal/app"
	"github.com/bluescreen10/voxara/internal/config"
)

func main() {
	fs := flag.NewFlagSet("voxara", flag.ExitOnError)
	envFile := fs.String("env-file", ".env", "dotenv file to load before reading the environment")
	addr := fs.String("http-addr", "", "HTTP listen address (overrides VOXARA_HTTP_ADDR)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		config.Exitf("parse flags: %v", err)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		config.Exitf("voxara: %v", err)
	}

	cfg, err := config.ParseEnv()
	if err != nil {
		config.Exitf("voxara: %v", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	if err := run(cfg); err != nil {
		config.Exitf("voxara: %v", err)
	}
}

func run(cfg config.Config) error {
	logger := app.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
