package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	chamber "github.com/next-exp/chambersim/pkg"
)

var logger chamber.SlogLogger

func init() {
	logger = chamber.NewSlogLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

// Fields at which the generated table is reported, in kV/cm.
var sampleFields = []float64{1, 5, 10, 50, 100}

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
	if configuration.Verbosity > 0 {
		printConfiguration(configuration, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gas, err := chamber.NewGasComposition(configuration.Gas.Components)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	provider := chamber.NewParametricGas(gas, configuration.Seed)

	table, err := chamber.BuildTransportTable(ctx, configuration, provider, logger)
	if err != nil {
		message := fmt.Errorf("Error generating transport table: %w", err)
		logger.Error(message.Error())
		return 1
	}

	if err := chamber.WriteTransportTable(configuration.FileOut, table, configuration.CompressionLevel); err != nil {
		message := fmt.Errorf("Error writing transport table: %w", err)
		logger.Error(message.Error())
		return 1
	}
	logger.Info(fmt.Sprintf("Table %s written to %s", table.ID, configuration.FileOut), "main")

	if configuration.CSVOut != "" {
		if err := chamber.WriteTableCSV(configuration.CSVOut, table); err != nil {
			logger.Error(err.Error())
			return 1
		}
	}

	printSampleTransport(table, logger)

	if configuration.Catalog.Enabled {
		catalog, err := chamber.ConnectToCatalog(configuration.Catalog, logger, configuration.Verbosity)
		if err != nil {
			message := fmt.Errorf("Error connecting to catalog: %w", err)
			logger.Error(message.Error())
			return 1
		}
		defer catalog.Close()
		if err := catalog.Register(table, configuration.FileOut); err != nil {
			logger.Error(err.Error())
			return 1
		}
	}
	return 0
}

func printSampleTransport(table *chamber.TransportTable, logger chamber.Logger) {
	for _, kv := range sampleFields {
		field := kv * 1000
		c, err := table.At(field)
		if errors.Is(err, chamber.ErrFieldOutOfRange) {
			logger.Info(fmt.Sprintf("E = %g kV/cm: outside the table", kv), "transport")
			continue
		}
		message := fmt.Sprintf("E = %g kV/cm: vd = %.4g cm/us, alpha = %.4g 1/cm, DL = %.4g cm^1/2, DT = %.4g cm^1/2",
			kv, c.DriftVelocity*1000, c.Townsend(), c.DiffusionL, c.DiffusionT)
		logger.Info(message, "transport")
	}
}
