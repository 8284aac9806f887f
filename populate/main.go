package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	brain "github.com/churchlandlab/pacman_brain_go/pkg"
)

var (
	logger         brain.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = brain.NewLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	configuration, err := brain.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if err := run(configuration); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configuration brain.Configuration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source, closeSource, err := brain.OpenSource(configuration, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	store, err := brain.OpenStore(ctx, configuration, logger)
	if err != nil {
		return fmt.Errorf("error opening store: %w", err)
	}
	defer store.Close()

	pipeline, err := brain.NewPipeline(ctx, source, store, configuration, logger)
	if err != nil {
		return err
	}

	session := brain.SessionKey{Subject: configuration.Subject, SessionDate: configuration.SessionDate}
	summaries, err := pipeline.Populate(ctx, session)
	for _, summary := range summaries {
		logger.Info(summary.String(), "main")
	}
	if err != nil {
		return fmt.Errorf("error populating session %s: %w", session, err)
	}

	failed := 0
	for _, summary := range summaries {
		failed += summary.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d keys of session %s failed", failed, session)
	}
	return nil
}
