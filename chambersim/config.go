package main

import (
	"fmt"
	"strings"

	chamber "github.com/next-exp/chambersim/pkg"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbosity", 1)
	v.SetDefault("gas_table", "ar_93_co2_7_3bar.h5")
	v.SetDefault("gas.temperature", chamber.RoomTemperature)
	v.SetDefault("gas.pressure", 3*chamber.AtmosphericPressure)
	v.SetDefault("grid.count", 15)
	v.SetDefault("grid.min", 100.)
	v.SetDefault("grid.max", 100000.)
	v.SetDefault("grid.log", true)

	v.SetDefault("geometry.wire_x", 0.)
	v.SetDefault("geometry.wire_y", 0.)
	v.SetDefault("geometry.wire_radius", 10.e-4)
	v.SetDefault("geometry.tube_radius", 0.7)
	v.SetDefault("geometry.wire_voltage", 2000.)
	v.SetDefault("geometry.half_length", 10.)

	v.SetDefault("track.particle", "pi-")
	v.SetDefault("track.momentum", 10.e9)
	v.SetDefault("track.x0", -0.2)
	v.SetDefault("track.y0", -1.0)
	v.SetDefault("track.z0", 0.)
	v.SetDefault("track.dx", 0.)
	v.SetDefault("track.dy", 1.0)
	v.SetDefault("track.dz", 0.)
	v.SetDefault("track.clusters_per_cm", 30.)
	v.SetDefault("track.electrons_per_cluster", 3.)
	v.SetDefault("track.ntracks", 1)

	v.SetDefault("drift.max_steps", 10000)
	v.SetDefault("drift.initial_step", 0.1)
	v.SetDefault("drift.max_step", 10.)
	v.SetDefault("drift.tolerance", 1.e-5)
	v.SetDefault("drift.diffusion", false)
	v.SetDefault("drift.gain_mean", 20000.)
	v.SetDefault("drift.gain_shape", 0.)
	v.SetDefault("drift.gain_cap", 1.e7)
	v.SetDefault("drift.max_electrons", 200)
	v.SetDefault("drift.num_workers", 4)
	v.SetDefault("drift.seed", 1)
	v.SetDefault("drift.clamp_field", true)

	v.SetDefault("signal.transfer_function", "mdt_elx_delta.txt")
	v.SetDefault("signal.time_scale", chamber.DefaultTimeScale)
	v.SetDefault("signal.tstart", 0.)
	v.SetDefault("signal.tstep", 2./3.)
	v.SetDefault("signal.nbins", 3000)
	v.SetDefault("signal.weight", -1.)
	v.SetDefault("signal.threshold", -2.)

	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.path", "tables.db")
	v.SetDefault("output_dir", "output")
}

// LoadConfiguration reads filename over the defaults. Environment variables
// prefixed with CHAMBERSIM_ override any key, e.g. CHAMBERSIM_DRIFT_SEED=7.
func LoadConfiguration(filename string) (chamber.SimulationConfig, error) {
	var config chamber.SimulationConfig

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CHAMBERSIM")
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
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config chamber.SimulationConfig, logger chamber.Logger) {
	logger.Info(fmt.Sprintf("Gas table: %s", config.GasTable), "config")
	if len(config.Gas.Components) > 0 {
		logger.Info(fmt.Sprintf("Gas: %v at %g K, %g Torr", config.Gas.Components, config.Gas.Temperature, config.Gas.Pressure), "config")
	}
	g := config.Geometry
	logger.Info(fmt.Sprintf("Wire: (%g, %g) cm, radius %g cm, %g V", g.WireX, g.WireY, g.WireRadius, g.WireVoltage), "config")
	logger.Info(fmt.Sprintf("Tube: radius %g cm, half length %g cm", g.TubeRadius, g.HalfLength), "config")
	tr := config.Track
	logger.Info(fmt.Sprintf("Track: %s, %g eV/c from (%g, %g, %g) along (%g, %g, %g)",
		tr.Particle, tr.Momentum, tr.X0, tr.Y0, tr.Z0, tr.DX, tr.DY, tr.DZ), "config")
	logger.Info(fmt.Sprintf("Clusters per cm: %g, electrons per cluster: %g", tr.ClustersPerCm, tr.ElectronsPerCluster), "config")
	logger.Info(fmt.Sprintf("Number of tracks: %d", tr.NTracks), "config")
	d := config.Drift
	logger.Info(fmt.Sprintf("Max steps: %d", d.MaxSteps), "config")
	logger.Info(fmt.Sprintf("Tolerance: %g cm", d.Tolerance), "config")
	logger.Info(fmt.Sprintf("Diffusion: %t", d.Diffusion), "config")
	logger.Info(fmt.Sprintf("Gain: mean %g, shape %g, cap %g", d.GainMean, d.GainShape, d.GainCap), "config")
	logger.Info(fmt.Sprintf("Max electrons: %d", d.MaxElectrons), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", d.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Seed: %d", d.Seed), "config")
	logger.Info(fmt.Sprintf("Clamp field: %t", d.ClampField), "config")
	s := config.Signal
	logger.Info(fmt.Sprintf("Transfer function: %s (time scale %g)", s.TransferFunction, s.TimeScale), "config")
	logger.Info(fmt.Sprintf("Time window: %d bins of %g ns from %g ns", s.NBins, s.TStep, s.TStart), "config")
	logger.Info(fmt.Sprintf("Weight: %g, threshold: %g", s.Weight, s.Threshold), "config")
	logger.Info(fmt.Sprintf("Catalog: %t (%s)", config.Catalog.Enabled, config.Catalog.Driver), "config")
	logger.Info(fmt.Sprintf("Output dir: %s", config.OutputDir), "config")
}
