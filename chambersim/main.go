package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	chamber "github.com/next-exp/chambersim/pkg"
)

var logger chamber.SlogLogger

func init() {
	logger = chamber.NewSlogLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	os.Exit(run())
}

func run() int {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	runID := uuid.NewString()
	logger.Info(fmt.Sprintf("Run %s", runID), "main")
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	transfer, err := chamber.LoadTransferFunction(configuration.Signal.TransferFunction,
		configuration.Signal.TimeScale, logger)
	if err != nil {
		message := fmt.Errorf("Error reading transfer function: %w", err)
		logger.Error(message.Error())
		return 1
	}

	var catalog *chamber.TableCatalog
	if configuration.Catalog.Enabled {
		catalog, err = chamber.ConnectToCatalog(configuration.Catalog, logger, configuration.Verbosity)
		if err != nil {
			message := fmt.Errorf("Error connecting to catalog: %w", err)
			logger.Error(message.Error())
			return 1
		}
		defer catalog.Close()
	}

	table, err := chamber.LoadSimulationTable(configuration, catalog)
	if err != nil {
		message := fmt.Errorf("Error loading transport table: %w", err)
		logger.Error(message.Error())
		return 1
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Transport table %s: %s, [%g, %g] V/cm", table.ID, table.Key.Gas, table.MinField(), table.MaxField())
		logger.Info(message, "main")
	}

	sim, err := chamber.NewSimulation(configuration, table, transfer, logger)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	output, err := chamber.NewOutputManager(configuration.OutputDir)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	defer output.Close()
	if err := output.WriteConfig(configuration); err != nil {
		logger.Error(err.Error())
		return 1
	}

	failed, err := sim.Run(ctx, func(event *chamber.EventType) error {
		if !event.Error {
			logger.Info(fmt.Sprintf("Event %d: %s", event.EventID, event.Crossing), "main")
		}
		return output.WriteEvent(event)
	})
	if err != nil {
		message := fmt.Errorf("Error running simulation: %w", err)
		logger.Error(message.Error())
		return 1
	}
	if failed > 0 {
		logger.Error(fmt.Sprintf("%d of %d events failed", failed, configuration.Track.NTracks))
	}
	if err := output.Close(); err != nil {
		logger.Error(err.Error())
		return 1
	}
	logger.Info(fmt.Sprintf("Run %s done, results in %s", runID, output.Dir()), "main")
	return 0
}
