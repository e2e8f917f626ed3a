package main

import (
	"fmt"
	"slices"
	"strings"

	chamber "github.com/next-exp/chambersim/pkg"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
)

// defaultComponents is used when the configuration names no gas. It is not a
// viper default because viper merges map defaults with the configured map.
var defaultComponents = map[string]float64{"ar": 93, "co2": 7}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbosity", 1)
	v.SetDefault("gas.temperature", chamber.RoomTemperature)
	v.SetDefault("gas.pressure", 3*chamber.AtmosphericPressure)
	v.SetDefault("grid.count", 15)
	v.SetDefault("grid.min", 100.)
	v.SetDefault("grid.max", 100000.)
	v.SetDefault("grid.log", true)
	v.SetDefault("collisions", 10)
	v.SetDefault("seed", 1)
	v.SetDefault("num_workers", 4)
	v.SetDefault("file_out", "ar_93_co2_7_3bar.h5")
	v.SetDefault("compression_level", 4)
	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.path", "tables.db")
}

// LoadConfiguration reads filename over the defaults. Any key can be
// overridden from the environment, e.g. GASGEN_GRID_COUNT=30.
func LoadConfiguration(filename string) (chamber.TableBuildConfig, error) {
	var config chamber.TableBuildConfig

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("GASGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("reading %s: %w", filename, err)
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decoding configuration: %w", err)
	}
	if len(config.Gas.Components) == 0 {
		config.Gas.Components = maps.Clone(defaultComponents)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config chamber.TableBuildConfig, logger chamber.Logger) {
	names := maps.Keys(config.Gas.Components)
	slices.Sort(names)
	for _, name := range names {
		logger.Info(fmt.Sprintf("Gas component %s: %g%%", name, config.Gas.Components[name]), "config")
	}
	logger.Info(fmt.Sprintf("Temperature: %g K", config.Gas.Temperature), "config")
	logger.Info(fmt.Sprintf("Pressure: %g Torr", config.Gas.Pressure), "config")
	logger.Info(fmt.Sprintf("Field points: %d", config.Grid.Count), "config")
	logger.Info(fmt.Sprintf("Field range: [%g, %g] V/cm", config.Grid.Min, config.Grid.Max), "config")
	logger.Info(fmt.Sprintf("Log spacing: %t", config.Grid.Log), "config")
	logger.Info(fmt.Sprintf("Collisions: %d", config.Collisions), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Seed), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("CSV out: %s", config.CSVOut), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Catalog: %t (%s)", config.Catalog.Enabled, config.Catalog.Driver), "config")
}
