package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/billcompare/pkg/consumption"
	"github.com/raterudder/billcompare/pkg/log"
	"github.com/raterudder/billcompare/pkg/server"
	"github.com/raterudder/billcompare/pkg/tariff"
)

func main() {
	// init packages
	loader := consumption.Configured()
	schedule := tariff.Configured()

	// init server
	srv := server.Configured(loader, schedule)

	// parse flags
	lflag.Configure()

	// lflag sets llog's level, slog follows it
	level, err := log.LevelFromLLog()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)
	slog.SetDefault(log.New(os.Stdout))
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
