package chamber

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func planeChamber(field r3.Vec) Chamber {
	return Chamber{
		Field:     UniformField{E: field},
		Collector: Plane{Z: 0},
		Boundary:  Box{Min: r3.Vec{X: -10, Y: -10, Z: -1}, Max: r3.Vec{X: 10, Y: 10, Z: 10}},
	}
}

func TestDriftUniformField(t *testing.T) {
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 1000}), constantTable(t, 0.005), testDriftConfig())
	require.NoError(t, err)

	r := sim.Drift(0, 0, Electron{X: 1, Y: 2, Z: 1, T: 5})
	require.Equal(t, Collected, r.Status, "%v", r.Err)
	assert.NoError(t, r.Err)
	assert.InDelta(t, 205, r.ArrivalTime, 1e-6)
	assert.InDelta(t, 0, r.Arrival.Z, 1e-9)
	assert.InDelta(t, 1, r.Arrival.X, 1e-9)
	assert.InDelta(t, 1, r.PathLength, 1e-9)
	assert.Equal(t, 20000.0, r.Gain)
}

func TestDriftAtCollectorSurface(t *testing.T) {
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 1000}), constantTable(t, 0.005), testDriftConfig())
	require.NoError(t, err)

	r := sim.Drift(0, 7, Electron{X: 0, Y: 0, Z: 0, T: 11})
	assert.Equal(t, Collected, r.Status)
	assert.Equal(t, 7, r.Index)
	assert.Equal(t, 11.0, r.ArrivalTime)
	assert.Equal(t, 20000.0, r.Gain)
	assert.Equal(t, 0, r.Steps)
}

func TestDriftLost(t *testing.T) {
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: -1000}), constantTable(t, 0.005), testDriftConfig())
	require.NoError(t, err)

	r := sim.Drift(0, 0, Electron{Z: 1})
	assert.Equal(t, Lost, r.Status)
	assert.NoError(t, r.Err)
	assert.Greater(t, r.Arrival.Z, 10.0)
	assert.Zero(t, r.Gain)

	outside := sim.Drift(0, 1, Electron{Z: 20})
	assert.Equal(t, Lost, outside.Status)
}

func TestDriftZeroField(t *testing.T) {
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{}), constantTable(t, 0.005), testDriftConfig())
	require.NoError(t, err)

	r := sim.Drift(0, 3, Electron{Z: 1})
	assert.Equal(t, Diverged, r.Status)
	assert.True(t, errors.Is(r.Err, ErrDriftDivergence))
	assert.True(t, errors.Is(r.Err, errZeroField))
	var driftErr *DriftError
	require.True(t, errors.As(r.Err, &driftErr))
	assert.Equal(t, 3, driftErr.Electron)
}

func TestDriftFieldOutOfRange(t *testing.T) {
	cfg := testDriftConfig()
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 10}), constantTable(t, 0.005), cfg)
	require.NoError(t, err)

	r := sim.Drift(0, 0, Electron{Z: 1})
	assert.Equal(t, Diverged, r.Status)
	assert.True(t, errors.Is(r.Err, ErrFieldOutOfRange))

	cfg.ClampField = true
	clamped, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 10}), constantTable(t, 0.005), cfg)
	require.NoError(t, err)
	r = clamped.Drift(0, 0, Electron{Z: 1})
	assert.Equal(t, Collected, r.Status)
	assert.InDelta(t, 200, r.ArrivalTime, 1e-6)
}

func TestDriftStepBudget(t *testing.T) {
	cfg := testDriftConfig()
	cfg.MaxSteps = 2
	cfg.MaxStep = 0.1
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 1000}), constantTable(t, 0.005), cfg)
	require.NoError(t, err)

	r := sim.Drift(0, 0, Electron{Z: 5})
	assert.Equal(t, Diverged, r.Status)
	assert.True(t, errors.Is(r.Err, ErrDriftDivergence))
	assert.False(t, errors.Is(r.Err, ErrFieldOutOfRange))
}

func TestDriftCoaxialWire(t *testing.T) {
	geometry := GeometryConfig{WireRadius: 0.0025, TubeRadius: 0.7, WireVoltage: 2000, HalfLength: 5}
	cfg := testDriftConfig()
	cfg.ClampField = true
	sim, err := NewDriftSimulator(NewTubeChamber(geometry), parametricTable(t, testBuildConfig()), cfg)
	require.NoError(t, err)

	r := sim.Drift(0, 0, Electron{X: 0.3, Y: 0.4, Z: 1})
	require.Equal(t, Collected, r.Status, "%v", r.Err)
	assert.InDelta(t, geometry.WireRadius, math.Hypot(r.Arrival.X, r.Arrival.Y), 1e-5)
	assert.InDelta(t, 1, r.Arrival.Z, 1e-9)
	assert.Greater(t, r.ArrivalTime, 0.0)
	assert.InDelta(t, 0.5-geometry.WireRadius, r.PathLength, 1e-3)
}

func TestDriftDeterministic(t *testing.T) {
	cfg := testDriftConfig()
	cfg.GainShape = 1
	cfg.Diffusion = true
	sim, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 1000}), constantTable(t, 0.005), cfg)
	require.NoError(t, err)

	a := sim.Drift(2, 5, Electron{Z: 1})
	b := sim.Drift(2, 5, Electron{Z: 1})
	c := sim.Drift(2, 6, Electron{Z: 1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Gain, c.Gain)
	// diffusion smears the arrival time
	assert.NotEqual(t, 200.0, a.ArrivalTime)
}

func TestNewDriftSimulatorValidation(t *testing.T) {
	_, err := NewDriftSimulator(planeChamber(r3.Vec{Z: 1}), nil, testDriftConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testDriftConfig()
	cfg.GainCap = 10
	_, err = NewDriftSimulator(planeChamber(r3.Vec{Z: 1}), constantTable(t, 0.005), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDriftSimulator(Chamber{}, constantTable(t, 0.005), testDriftConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDriftStatusString(t *testing.T) {
	assert.Equal(t, "collected", Collected.String())
	assert.Equal(t, "diverged", Diverged.String())
	assert.Equal(t, "unknown", DriftStatus(42).String())
}
