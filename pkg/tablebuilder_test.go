package chamber

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct {
	failAt float64
	calls  atomic.Int64
}

func (p *failingProvider) Transport(ctx context.Context, field float64, cond Conditions) (TransportCoefficients, error) {
	p.calls.Add(1)
	if field == p.failAt {
		return TransportCoefficients{}, errors.New("collision sampling failed")
	}
	return TransportCoefficients{DriftVelocity: field * 1e-6}, nil
}

type panickingProvider struct{}

func (panickingProvider) Transport(context.Context, float64, Conditions) (TransportCoefficients, error) {
	panic("boom")
}

func TestBuildTransportTable(t *testing.T) {
	cfg := testBuildConfig()
	table := parametricTable(t, cfg)

	grid, err := NewFieldGrid(cfg.Grid)
	require.NoError(t, err)
	require.Len(t, table.Entries, 15)
	for i, e := range table.Entries {
		assert.Equal(t, grid.Values[i], e.Field)
		assert.Greater(t, e.DriftVelocity, 0.0)
	}
	assert.NotEmpty(t, table.ID)
	assert.Equal(t, "ar:93,co2:7", table.Key.Gas)
	assert.Equal(t, cfg.Grid, table.Key.Grid)
	assert.Equal(t, 10, table.Key.Collisions)

	// same configuration, same coefficients, whatever the worker count
	cfg.NumWorkers = 1
	again := parametricTable(t, cfg)
	assert.Equal(t, table.Entries, again.Entries)
	assert.NotEqual(t, table.ID, again.ID)
}

func TestBuildTransportTableInvalidGrid(t *testing.T) {
	cfg := testBuildConfig()
	cfg.Grid.Min = -1
	provider := &failingProvider{failAt: -1}

	_, err := BuildTransportTable(t.Context(), cfg, provider, nil)
	assert.ErrorIs(t, err, ErrInvalidGridSpec)
	assert.Zero(t, provider.calls.Load(), "no work before validation")
}

func TestBuildTransportTableProviderError(t *testing.T) {
	cfg := testBuildConfig()
	grid, err := NewFieldGrid(cfg.Grid)
	require.NoError(t, err)

	_, err = BuildTransportTable(t.Context(), cfg, &failingProvider{failAt: grid.Values[7]}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision sampling failed")
}

func TestBuildTransportTablePanic(t *testing.T) {
	_, err := BuildTransportTable(t.Context(), testBuildConfig(), panickingProvider{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recovered from panic")
}

func TestBuildTransportTableCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := BuildTransportTable(ctx, testBuildConfig(), &failingProvider{failAt: -1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
