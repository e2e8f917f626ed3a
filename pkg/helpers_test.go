package chamber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func constantTable(t *testing.T, vd float64) *TransportTable {
	t.Helper()
	coeffs := TransportCoefficients{DriftVelocity: vd, LnTownsend: 1, DiffusionL: 0.01, DiffusionT: 0.01}
	table, err := NewTransportTable("constant", TableKey{Gas: "ar:100"}, []TransportEntry{
		{Field: 100, TransportCoefficients: coeffs},
		{Field: 100000, TransportCoefficients: coeffs},
	})
	require.NoError(t, err)
	return table
}

func testDriftConfig() DriftConfig {
	return DriftConfig{
		MaxSteps:    10000,
		InitialStep: 0.1,
		MaxStep:     10,
		Tolerance:   1e-6,
		GainMean:    20000,
		GainShape:   0,
		GainCap:     1e7,
		NumWorkers:  4,
		Seed:        1,
	}
}

func testBuildConfig() TableBuildConfig {
	return TableBuildConfig{
		Gas: GasConfig{
			Components:  map[string]float64{"ar": 93, "co2": 7},
			Temperature: RoomTemperature,
			Pressure:    AtmosphericPressure,
		},
		Grid:       FieldGridConfig{Count: 15, Min: 100, Max: 100000, Log: true},
		Collisions: 10,
		Seed:       3,
		NumWorkers: 4,
		FileOut:    "table.h5",
	}
}

func parametricTable(t *testing.T, cfg TableBuildConfig) *TransportTable {
	t.Helper()
	gas, err := NewGasComposition(cfg.Gas.Components)
	require.NoError(t, err)
	table, err := BuildTransportTable(t.Context(), cfg, NewParametricGas(gas, cfg.Seed), nil)
	require.NoError(t, err)
	return table
}
