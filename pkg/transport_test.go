package chamber

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPointTable(t *testing.T) *TransportTable {
	t.Helper()
	table, err := NewTransportTable("two", TableKey{Gas: "ar:100"}, []TransportEntry{
		{Field: 100, TransportCoefficients: TransportCoefficients{DriftVelocity: 1, LnTownsend: -2, DiffusionL: 0.02, DiffusionT: 0.04}},
		{Field: 10000, TransportCoefficients: TransportCoefficients{DriftVelocity: 3, LnTownsend: 4, DiffusionL: 0.01, DiffusionT: 0.02}},
	})
	require.NoError(t, err)
	return table
}

func TestTransportTableInterpolatesInLogField(t *testing.T) {
	table := twoPointTable(t)

	c, err := table.At(1000)
	require.NoError(t, err)
	assert.InDelta(t, 2, c.DriftVelocity, 1e-12)
	assert.InDelta(t, 1, c.LnTownsend, 1e-12)
	assert.InDelta(t, math.E, c.Townsend(), 1e-12)
	assert.InDelta(t, 0.015, c.DiffusionL, 1e-12)
	assert.InDelta(t, 0.03, c.DiffusionT, 1e-12)

	c, err = table.At(100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.DriftVelocity)
	c, err = table.At(10000)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.DriftVelocity)
}

func TestTransportTableOutOfRange(t *testing.T) {
	table := twoPointTable(t)

	for _, field := range []float64{99, 10001, math.NaN()} {
		_, err := table.At(field)
		assert.True(t, errors.Is(err, ErrFieldOutOfRange), "field %g", field)
	}
	var rangeErr *FieldOutOfRangeError
	_, err := table.At(50)
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 100.0, rangeErr.Min)
	assert.Equal(t, 10000.0, rangeErr.Max)

	clamped := table.WithClamp(true)
	assert.True(t, clamped.Clamped())
	assert.False(t, table.Clamped())
	low, err := clamped.At(50)
	require.NoError(t, err)
	assert.Equal(t, table.Entries[0].TransportCoefficients, low)
	high, err := clamped.At(1e6)
	require.NoError(t, err)
	assert.Equal(t, table.Entries[1].TransportCoefficients, high)
	_, err = clamped.At(math.NaN())
	assert.ErrorIs(t, err, ErrFieldOutOfRange)
}

func TestNewTransportTableInvalid(t *testing.T) {
	one := []TransportEntry{{Field: 100}}
	_, err := NewTransportTable("x", TableKey{}, one)
	assert.ErrorIs(t, err, ErrInvalidGridSpec)

	unordered := []TransportEntry{{Field: 100}, {Field: 100}}
	_, err = NewTransportTable("x", TableKey{}, unordered)
	assert.ErrorIs(t, err, ErrInvalidGridSpec)

	nonFinite := []TransportEntry{{Field: 100}, {Field: 200, TransportCoefficients: TransportCoefficients{DriftVelocity: math.Inf(1)}}}
	_, err = NewTransportTable("x", TableKey{}, nonFinite)
	assert.Error(t, err)

	nanField := []TransportEntry{{Field: 100}, {Field: math.NaN()}, {Field: 300}}
	_, err = NewTransportTable("x", TableKey{}, nanField)
	assert.ErrorIs(t, err, ErrInvalidGridSpec)

	nanFirst := []TransportEntry{{Field: math.NaN()}, {Field: 300}}
	_, err = NewTransportTable("x", TableKey{}, nanFirst)
	assert.ErrorIs(t, err, ErrInvalidGridSpec)
}

func TestTransportTableStaysBetweenNeighbours(t *testing.T) {
	table := parametricTable(t, testBuildConfig())
	for i := 1; i < len(table.Entries); i++ {
		lo, hi := table.Entries[i-1], table.Entries[i]
		minLn, maxLn := math.Min(lo.LnTownsend, hi.LnTownsend), math.Max(lo.LnTownsend, hi.LnTownsend)
		minVd, maxVd := math.Min(lo.DriftVelocity, hi.DriftVelocity), math.Max(lo.DriftVelocity, hi.DriftVelocity)
		for _, frac := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			field := lo.Field * math.Pow(hi.Field/lo.Field, frac)
			c, err := table.At(field)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c.LnTownsend, minLn-1e-12, "ln alpha at %g V/cm", field)
			assert.LessOrEqual(t, c.LnTownsend, maxLn+1e-12, "ln alpha at %g V/cm", field)
			assert.GreaterOrEqual(t, c.DriftVelocity, minVd-1e-15, "vd at %g V/cm", field)
			assert.LessOrEqual(t, c.DriftVelocity, maxVd+1e-15, "vd at %g V/cm", field)
		}
	}
}

func TestTableKeyMismatch(t *testing.T) {
	key := TableKey{
		Gas: "ar:93,co2:7", Temperature: 293.15, Pressure: 760,
		Grid:       FieldGridConfig{Count: 15, Min: 100, Max: 100000, Log: true},
		Collisions: 10,
	}
	_, _, _, ok := key.Mismatch(key)
	assert.True(t, ok)

	other := key
	other.Collisions = 1000
	_, _, _, ok = key.Mismatch(other)
	assert.True(t, ok, "collisions are not part of the identity")

	other = key
	other.Pressure = 750
	property, want, got, ok := key.Mismatch(other)
	assert.False(t, ok)
	assert.Equal(t, "pressure", property)
	assert.Equal(t, "750", want)
	assert.Equal(t, "760", got)

	other = key
	other.Grid.Log = false
	property, _, _, ok = key.Mismatch(other)
	assert.False(t, ok)
	assert.Equal(t, "grid spacing", property)

	assert.Equal(t, "ar:93,co2:7@293.15K,760Torr,[100,100000]x15/log", key.String())
}
