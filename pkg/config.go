package chamber

import (
	"math"
)

// GasConfig describes the mixture and ambient conditions of a table.
type GasConfig struct {
	Components  map[string]float64 `json:"components" mapstructure:"components" yaml:"components"`
	Temperature float64            `json:"temperature" mapstructure:"temperature" yaml:"temperature"`
	Pressure    float64            `json:"pressure" mapstructure:"pressure" yaml:"pressure"`
}

type FieldGridConfig struct {
	Count int     `json:"count" mapstructure:"count" yaml:"count"`
	Min   float64 `json:"min" mapstructure:"min" yaml:"min"`
	Max   float64 `json:"max" mapstructure:"max" yaml:"max"`
	Log   bool    `json:"log" mapstructure:"log" yaml:"log"`
}

type CatalogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" mapstructure:"driver" yaml:"driver"`
	Host    string `json:"host" mapstructure:"host" yaml:"host"`
	User    string `json:"user" mapstructure:"user" yaml:"user"`
	Passwd  string `json:"pass" mapstructure:"pass" yaml:"-"`
	DBName  string `json:"dbname" mapstructure:"dbname" yaml:"dbname"`
	Path    string `json:"path" mapstructure:"path" yaml:"path"`
}

// TableBuildConfig drives gasgen.
type TableBuildConfig struct {
	Verbosity        int             `json:"verbosity" mapstructure:"verbosity" yaml:"verbosity"`
	Gas              GasConfig       `json:"gas" mapstructure:"gas" yaml:"gas"`
	Grid             FieldGridConfig `json:"grid" mapstructure:"grid" yaml:"grid"`
	Collisions       int             `json:"collisions" mapstructure:"collisions" yaml:"collisions"`
	Seed             uint64          `json:"seed" mapstructure:"seed" yaml:"seed"`
	NumWorkers       int             `json:"num_workers" mapstructure:"num_workers" yaml:"num_workers"`
	FileOut          string          `json:"file_out" mapstructure:"file_out" yaml:"file_out"`
	CSVOut           string          `json:"csv_out" mapstructure:"csv_out" yaml:"csv_out"`
	CompressionLevel int             `json:"compression_level" mapstructure:"compression_level" yaml:"compression_level"`
	Catalog          CatalogConfig   `json:"catalog" mapstructure:"catalog" yaml:"catalog"`
}

type GeometryConfig struct {
	WireX       float64 `json:"wire_x" mapstructure:"wire_x" yaml:"wire_x"`
	WireY       float64 `json:"wire_y" mapstructure:"wire_y" yaml:"wire_y"`
	WireRadius  float64 `json:"wire_radius" mapstructure:"wire_radius" yaml:"wire_radius"`
	TubeRadius  float64 `json:"tube_radius" mapstructure:"tube_radius" yaml:"tube_radius"`
	WireVoltage float64 `json:"wire_voltage" mapstructure:"wire_voltage" yaml:"wire_voltage"`
	HalfLength  float64 `json:"half_length" mapstructure:"half_length" yaml:"half_length"`
}

type TrackConfig struct {
	Particle            string  `json:"particle" mapstructure:"particle" yaml:"particle"`
	Momentum            float64 `json:"momentum" mapstructure:"momentum" yaml:"momentum"`
	X0                  float64 `json:"x0" mapstructure:"x0" yaml:"x0"`
	Y0                  float64 `json:"y0" mapstructure:"y0" yaml:"y0"`
	Z0                  float64 `json:"z0" mapstructure:"z0" yaml:"z0"`
	DX                  float64 `json:"dx" mapstructure:"dx" yaml:"dx"`
	DY                  float64 `json:"dy" mapstructure:"dy" yaml:"dy"`
	DZ                  float64 `json:"dz" mapstructure:"dz" yaml:"dz"`
	ClustersPerCm       float64 `json:"clusters_per_cm" mapstructure:"clusters_per_cm" yaml:"clusters_per_cm"`
	ElectronsPerCluster float64 `json:"electrons_per_cluster" mapstructure:"electrons_per_cluster" yaml:"electrons_per_cluster"`
	NTracks             int     `json:"ntracks" mapstructure:"ntracks" yaml:"ntracks"`
}

// DriftConfig controls integration and gain. MaxElectrons limits how many
// electrons of one track are drifted, 0 disables the limit.
type DriftConfig struct {
	MaxSteps     int     `json:"max_steps" mapstructure:"max_steps" yaml:"max_steps"`
	InitialStep  float64 `json:"initial_step" mapstructure:"initial_step" yaml:"initial_step"`
	MaxStep      float64 `json:"max_step" mapstructure:"max_step" yaml:"max_step"`
	Tolerance    float64 `json:"tolerance" mapstructure:"tolerance" yaml:"tolerance"`
	Diffusion    bool    `json:"diffusion" mapstructure:"diffusion" yaml:"diffusion"`
	GainMean     float64 `json:"gain_mean" mapstructure:"gain_mean" yaml:"gain_mean"`
	GainShape    float64 `json:"gain_shape" mapstructure:"gain_shape" yaml:"gain_shape"`
	GainCap      float64 `json:"gain_cap" mapstructure:"gain_cap" yaml:"gain_cap"`
	MaxElectrons int     `json:"max_electrons" mapstructure:"max_electrons" yaml:"max_electrons"`
	NumWorkers   int     `json:"num_workers" mapstructure:"num_workers" yaml:"num_workers"`
	Seed         uint64  `json:"seed" mapstructure:"seed" yaml:"seed"`
	ClampField   bool    `json:"clamp_field" mapstructure:"clamp_field" yaml:"clamp_field"`
}

type SignalConfig struct {
	TransferFunction string  `json:"transfer_function" mapstructure:"transfer_function" yaml:"transfer_function"`
	TimeScale        float64 `json:"time_scale" mapstructure:"time_scale" yaml:"time_scale"`
	TStart           float64 `json:"tstart" mapstructure:"tstart" yaml:"tstart"`
	TStep            float64 `json:"tstep" mapstructure:"tstep" yaml:"tstep"`
	NBins            int     `json:"nbins" mapstructure:"nbins" yaml:"nbins"`
	Weight           float64 `json:"weight" mapstructure:"weight" yaml:"weight"`
	Threshold        float64 `json:"threshold" mapstructure:"threshold" yaml:"threshold"`
}

// SimulationConfig drives chambersim.
type SimulationConfig struct {
	Verbosity int             `json:"verbosity" mapstructure:"verbosity" yaml:"verbosity"`
	GasTable  string          `json:"gas_table" mapstructure:"gas_table" yaml:"gas_table"`
	Gas       GasConfig       `json:"gas" mapstructure:"gas" yaml:"gas"`
	Grid      FieldGridConfig `json:"grid" mapstructure:"grid" yaml:"grid"`
	Geometry  GeometryConfig  `json:"geometry" mapstructure:"geometry" yaml:"geometry"`
	Track     TrackConfig     `json:"track" mapstructure:"track" yaml:"track"`
	Drift     DriftConfig     `json:"drift" mapstructure:"drift" yaml:"drift"`
	Signal    SignalConfig    `json:"signal" mapstructure:"signal" yaml:"signal"`
	Catalog   CatalogConfig   `json:"catalog" mapstructure:"catalog" yaml:"catalog"`
	OutputDir string          `json:"output_dir" mapstructure:"output_dir" yaml:"output_dir"`
}

func (c FieldGridConfig) Validate() error {
	if c.Count < 2 {
		return invalidGrid("count must be at least 2, got %d", c.Count)
	}
	if math.IsNaN(c.Min) || math.IsInf(c.Min, 0) || c.Min <= 0 {
		return invalidGrid("min must be positive and finite, got %g", c.Min)
	}
	if math.IsNaN(c.Max) || math.IsInf(c.Max, 0) || c.Max <= c.Min {
		return invalidGrid("max must be finite and above min %g, got %g", c.Min, c.Max)
	}
	return nil
}

func (c GasConfig) Validate() error {
	if _, err := NewGasComposition(c.Components); err != nil {
		return err
	}
	if c.Temperature <= 0 {
		return invalidConfig("gas.temperature", "must be positive, got %g", c.Temperature)
	}
	if c.Pressure <= 0 {
		return invalidConfig("gas.pressure", "must be positive, got %g", c.Pressure)
	}
	return nil
}

func (c CatalogConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Driver {
	case "mysql":
		if c.Host == "" || c.DBName == "" {
			return invalidConfig("catalog", "mysql catalog needs host and dbname")
		}
	case "sqlite":
		if c.Path == "" {
			return invalidConfig("catalog.path", "sqlite catalog needs a path")
		}
	default:
		return invalidConfig("catalog.driver", "unknown driver %q", c.Driver)
	}
	return nil
}

func (c TableBuildConfig) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Gas.Validate(); err != nil {
		return err
	}
	if c.Collisions < 1 {
		return invalidConfig("collisions", "must be at least 1, got %d", c.Collisions)
	}
	if c.NumWorkers < 1 {
		return invalidConfig("num_workers", "must be at least 1, got %d", c.NumWorkers)
	}
	if c.FileOut == "" {
		return invalidConfig("file_out", "output file name is required")
	}
	return c.Catalog.Validate()
}

func (c DriftConfig) Validate() error {
	if c.MaxSteps < 1 {
		return invalidConfig("drift.max_steps", "must be at least 1, got %d", c.MaxSteps)
	}
	if c.InitialStep <= 0 || c.MaxStep <= 0 {
		return invalidConfig("drift.initial_step", "steps must be positive")
	}
	if c.Tolerance <= 0 {
		return invalidConfig("drift.tolerance", "must be positive, got %g", c.Tolerance)
	}
	if c.GainMean <= 0 {
		return invalidConfig("drift.gain_mean", "must be positive, got %g", c.GainMean)
	}
	if c.GainShape < 0 {
		return invalidConfig("drift.gain_shape", "must not be negative, got %g", c.GainShape)
	}
	if c.GainCap < c.GainMean {
		return invalidConfig("drift.gain_cap", "must be at least the mean gain %g, got %g", c.GainMean, c.GainCap)
	}
	if c.MaxElectrons < 0 {
		return invalidConfig("drift.max_electrons", "must not be negative, got %d", c.MaxElectrons)
	}
	if c.NumWorkers < 1 {
		return invalidConfig("drift.num_workers", "must be at least 1, got %d", c.NumWorkers)
	}
	return nil
}

func (c SignalConfig) Validate() error {
	if c.TStep <= 0 {
		return invalidConfig("signal.tstep", "must be positive, got %g", c.TStep)
	}
	if c.NBins < 1 {
		return invalidConfig("signal.nbins", "must be at least 1, got %d", c.NBins)
	}
	if c.TimeScale <= 0 {
		return invalidConfig("signal.time_scale", "must be positive, got %g", c.TimeScale)
	}
	return nil
}

func (c GeometryConfig) Validate() error {
	if c.WireRadius <= 0 {
		return invalidConfig("geometry.wire_radius", "must be positive, got %g", c.WireRadius)
	}
	if c.TubeRadius <= c.WireRadius {
		return invalidConfig("geometry.tube_radius", "must exceed the wire radius %g, got %g", c.WireRadius, c.TubeRadius)
	}
	if c.HalfLength <= 0 {
		return invalidConfig("geometry.half_length", "must be positive, got %g", c.HalfLength)
	}
	return nil
}

func (c TrackConfig) Validate() error {
	if c.DX == 0 && c.DY == 0 && c.DZ == 0 {
		return invalidConfig("track.direction", "direction must not be the zero vector")
	}
	if c.ClustersPerCm <= 0 {
		return invalidConfig("track.clusters_per_cm", "must be positive, got %g", c.ClustersPerCm)
	}
	if c.ElectronsPerCluster < 1 {
		return invalidConfig("track.electrons_per_cluster", "must be at least 1, got %g", c.ElectronsPerCluster)
	}
	if c.NTracks < 1 {
		return invalidConfig("track.ntracks", "must be at least 1, got %d", c.NTracks)
	}
	return nil
}

func (c SimulationConfig) Validate() error {
	if c.GasTable == "" && !c.Catalog.Enabled {
		return invalidConfig("gas_table", "a table path or an enabled catalog is required")
	}
	if c.Catalog.Enabled {
		if err := c.Gas.Validate(); err != nil {
			return err
		}
		if err := c.Grid.Validate(); err != nil {
			return err
		}
	}
	for _, v := range []interface{ Validate() error }{c.Geometry, c.Track, c.Drift, c.Signal, c.Catalog} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Signal.TransferFunction == "" {
		return invalidConfig("signal.transfer_function", "a transfer function file is required")
	}
	return nil
}
