package chamber

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// RequestedTableKey is the table key implied by the gas and grid sections of
// a simulation configuration, or false when no gas is configured.
func RequestedTableKey(cfg SimulationConfig) (TableKey, bool, error) {
	if len(cfg.Gas.Components) == 0 {
		return TableKey{}, false, nil
	}
	gas, err := NewGasComposition(cfg.Gas.Components)
	if err != nil {
		return TableKey{}, false, err
	}
	grid, err := NewFieldGrid(cfg.Grid)
	if err != nil {
		return TableKey{}, false, err
	}
	return TableKey{
		Gas:         gas.Key(),
		Temperature: cfg.Gas.Temperature,
		Pressure:    cfg.Gas.Pressure,
		Grid:        grid.Config(),
	}, true, nil
}

// LoadSimulationTable reads the configured table file, or asks the catalog
// when no file is given. A configured gas must match the table.
func LoadSimulationTable(cfg SimulationConfig, catalog *TableCatalog) (*TransportTable, error) {
	key, haveKey, err := RequestedTableKey(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.GasTable != "" {
		if !haveKey {
			return ReadTransportTable(cfg.GasTable, nil)
		}
		return ReadTransportTable(cfg.GasTable, &key)
	}
	if catalog == nil || !haveKey {
		return nil, invalidConfig("gas_table", "no table file and no catalog lookup possible")
	}
	return catalog.Load(key)
}

// Simulation runs tracks through the chamber: ionisation, drift, signal
// accumulation, convolution and threshold detection.
type Simulation struct {
	Config   SimulationConfig
	Drift    *DriftSimulator
	Clusters ClusterGenerator
	Transfer *TransferFunction
	Logger   Logger
}

func NewSimulation(cfg SimulationConfig, table *TransportTable, transfer *TransferFunction, logger Logger) (*Simulation, error) {
	logger = loggerOrDiscard(logger)
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Track.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Signal.Validate(); err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, ErrMissingTransferFunction
	}
	chamber := NewTubeChamber(cfg.Geometry)
	drift, err := NewDriftSimulator(chamber, table, cfg.Drift)
	if err != nil {
		return nil, err
	}
	// Long enough to cross the tube from any start point inside a few tube
	// lengths of it.
	maxLength := 4 * (math.Hypot(cfg.Track.X0-cfg.Geometry.WireX, cfg.Track.Y0-cfg.Geometry.WireY) +
		math.Abs(cfg.Track.Z0) + cfg.Geometry.TubeRadius + cfg.Geometry.HalfLength)
	clusters := NewPoissonClusters(cfg.Track, chamber.Boundary, maxLength, cfg.Drift.Seed)
	return &Simulation{
		Config:   cfg,
		Drift:    drift,
		Clusters: clusters,
		Transfer: transfer,
		Logger:   logger,
	}, nil
}

// TrackFor returns the configured track of event id.
func (s *Simulation) TrackFor(id int) Track {
	t := s.Config.Track
	return Track{
		Start:     r3.Vec{X: t.X0, Y: t.Y0, Z: t.Z0},
		Direction: r3.Vec{X: t.DX, Y: t.DY, Z: t.DZ},
		Particle:  t.Particle,
		Momentum:  t.Momentum,
	}
}

// RunEvent simulates one track. Per-electron failures end up in the event
// summary; the error is reserved for failures of the event as a whole.
func (s *Simulation) RunEvent(ctx context.Context, id int, track Track) (EventType, error) {
	event := EventType{EventID: id, Track: track}
	verbosity := s.Config.Verbosity

	clusters, err := s.Clusters.GenerateClusters(track)
	if err != nil {
		return event, fmt.Errorf("event %d: generating clusters: %w", id, err)
	}
	event.Clusters = clusters
	electrons := flattenElectrons(clusters)
	event.Electrons = len(electrons)
	if verbosity > 0 {
		s.Logger.Info(fmt.Sprintf("Event %d: %d clusters, %d electrons", id, len(clusters), len(electrons)), "simulation")
	}

	results, summary, err := s.Drift.DriftBatch(ctx, id, electrons, s.Logger, verbosity)
	event.Summary = summary
	if err != nil {
		return event, err
	}
	event.Results = results

	raw, err := NewRawSignalFromConfig(s.Config.Signal)
	if err != nil {
		return event, err
	}
	for _, r := range results {
		raw.DepositResult(r)
	}
	event.Raw = raw.Values()
	event.Deposits = raw.Deposits()
	event.OutsideWindow = raw.OutsideWindow()
	if event.OutsideWindow > 0 {
		s.Logger.Info(fmt.Sprintf("Event %d: %d arrivals outside the signal window", id, event.OutsideWindow), "simulation")
	}

	event.Signal, err = raw.Convolve(s.Transfer)
	if err != nil {
		return event, fmt.Errorf("event %d: %w", id, err)
	}
	event.Crossing = FindThresholdCrossing(event.Signal, s.Config.Signal.Threshold)
	event.Edges = ComputeThresholdCrossings(event.Signal, s.Config.Signal.Threshold)

	if verbosity > 0 {
		s.Logger.Info(fmt.Sprintf("Event %d: %s, threshold crossing %s", id, summary, event.Crossing), "simulation")
	}
	return event, nil
}

// Run simulates Config.Track.NTracks events in order and passes each to
// handle. A failing event is handed over with Error set and the run goes on;
// cancellation and handler errors stop it.
func (s *Simulation) Run(ctx context.Context, handle func(*EventType) error) (int, error) {
	failed := 0
	var totalTime time.Duration
	for id := 0; id < s.Config.Track.NTracks; id++ {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		start := time.Now()
		event, err := s.RunEvent(ctx, id, s.TrackFor(id))
		if err != nil {
			if ctx.Err() != nil {
				return failed, err
			}
			s.Logger.Error(err.Error())
			event.Error = true
			event.Err = err
			failed++
		}
		totalTime += time.Since(start)
		if handle != nil {
			if err := handle(&event); err != nil {
				return failed, fmt.Errorf("event %d: %w", id, err)
			}
		}
	}
	s.Logger.Info(fmt.Sprintf("Simulated %d events in %v (%d failed)", s.Config.Track.NTracks, totalTime, failed), "simulation")
	return failed, nil
}
