package chamber

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldGridLog(t *testing.T) {
	grid, err := NewFieldGrid(FieldGridConfig{Count: 15, Min: 100, Max: 100000, Log: true})
	require.NoError(t, err)

	assert.Equal(t, 15, grid.Count())
	assert.Equal(t, LogSpacing, grid.Spacing)
	assert.Equal(t, 100.0, grid.Values[0])
	assert.Equal(t, 100000.0, grid.Values[14])

	step := math.Log(grid.Values[1]) - math.Log(grid.Values[0])
	for i := 1; i < grid.Count(); i++ {
		assert.Greater(t, grid.Values[i], grid.Values[i-1])
		assert.InDelta(t, step, math.Log(grid.Values[i])-math.Log(grid.Values[i-1]), 1e-9)
	}
	assert.InDelta(t, math.Log(1000)/14, step, 1e-12)
}

func TestFieldGridLinear(t *testing.T) {
	grid, err := NewFieldGrid(FieldGridConfig{Count: 5, Min: 1, Max: 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, grid.Values)
	assert.Equal(t, "linear", grid.Spacing.String())
}

func TestFieldGridTwoPoints(t *testing.T) {
	grid, err := NewFieldGrid(FieldGridConfig{Count: 2, Min: 10, Max: 20, Log: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, grid.Values)
}

func TestFieldGridInvalid(t *testing.T) {
	cases := map[string]FieldGridConfig{
		"count":    {Count: 1, Min: 1, Max: 2},
		"zero min": {Count: 3, Min: 0, Max: 2},
		"negative": {Count: 3, Min: -5, Max: 2},
		"max<=min": {Count: 3, Min: 2, Max: 2},
		"nan":      {Count: 3, Min: 1, Max: math.NaN()},
		"inf":      {Count: 3, Min: 1, Max: math.Inf(1)},
	}
	for name, cfg := range cases {
		_, err := NewFieldGrid(cfg)
		assert.True(t, errors.Is(err, ErrInvalidGridSpec), name)
	}
}

func TestParseGridSpacing(t *testing.T) {
	s, err := ParseGridSpacing("log")
	require.NoError(t, err)
	assert.Equal(t, LogSpacing, s)

	_, err = ParseGridSpacing("cubic")
	assert.ErrorIs(t, err, ErrInvalidGridSpec)
}
