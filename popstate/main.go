package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	brain "github.com/churchlandlab/pacman_brain_go/pkg"
	"github.com/churchlandlab/pacman_brain_go/pkg/population"
	"github.com/churchlandlab/pacman_brain_go/pkg/writer"
)

const memberName = "neuron_id"

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

	conditions, err := pipeline.Conditions().Ordered(configuration.ConditionOrder)
	if err != nil {
		return fmt.Errorf("error checking condition order: %w", err)
	}
	if VerbosityLevel > 1 {
		for _, c := range conditions {
			message := fmt.Sprintf("Condition %d: duration %gs, padding %gs/%gs", c.ConditionID, c.Duration, c.PrePad, c.PostPad)
			logger.Info(message, "main")
		}
	}

	sessionKey := brain.SessionKey{Subject: configuration.Subject, SessionDate: configuration.SessionDate}
	session, err := source.Session(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("error reading session %s: %w", sessionKey, err)
	}
	records, err := pipeline.PsthRecords(ctx, sessionKey, configuration.FilterParamsID)
	if err != nil {
		return err
	}

	state, err := population.New(records, pipeline.Conditions(), population.Config{
		MemberName:        memberName,
		Attributes:        configuration.Attributes,
		SampleRate:        configuration.SampleRate,
		DefaultSampleRate: session.BehaviorSampleRate,
	})
	if err != nil {
		return fmt.Errorf("error assembling population of %s: %w", sessionKey, err)
	}
	if err := transform(state, configuration); err != nil {
		return err
	}

	data := state.Data()
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Population of %d neurons over %d conditions", len(data.Members), len(data.Conditions()))
		logger.Info(message, "main")
	}

	w, err := writer.NewWriter(configuration.FileOut, configuration.CompressionLevel)
	if err != nil {
		return err
	}
	if err := w.WriteDataSet(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Population written to %s", configuration.FileOut), "main")
	}
	return nil
}

// transform applies the configured condition order, centering and
// normalization, in that order.
func transform(state *population.State, configuration brain.Configuration) error {
	if len(configuration.ConditionOrder) > 0 {
		if err := state.ReorderConditions(configuration.ConditionOrder); err != nil {
			return fmt.Errorf("error reordering conditions: %w", err)
		}
	}
	if configuration.MeanCenter {
		if err := state.MeanCenter(nil, ""); err != nil {
			return fmt.Errorf("error mean centering: %w", err)
		}
	}
	if configuration.Normalize {
		if err := state.Normalize(nil, "", configuration.SoftFactor); err != nil {
			return fmt.Errorf("error normalizing: %w", err)
		}
	}
	return nil
}
