// Package main is the bot entry point: it loads configuration, assembles the
// application and runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/app"
	"licensebot/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== bot starting ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize application")
	}

	if cfg.CronTickEnabled {
		if err := application.Scheduler.Start(ctx); err != nil {
			log.WithError(err).Fatal("failed to start scheduler")
		}
		defer application.Scheduler.Stop()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go application.Bot.Start(ctx)

	log.Info("=== bot ready ===")

	sig := <-quit
	log.Infof("received %s, shutting down", sig)

	cancel()

	log.Info("=== bot stopped ===")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
