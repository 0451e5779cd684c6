package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/geotrack/tracker-client/internal/buildinfo"
	"github.com/geotrack/tracker-client/internal/client/cli"
	"github.com/geotrack/tracker-client/internal/client/config"
	"github.com/geotrack/tracker-client/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
