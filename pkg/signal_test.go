package chamber

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransfer(t *testing.T) *TransferFunction {
	t.Helper()
	tf, err := NewTransferFunction([]float64{0, 2, 4, 6}, []float64{1, 3, 2, 0.5})
	require.NoError(t, err)
	return tf
}

func TestRawSignalBins(t *testing.T) {
	s, err := NewRawSignal(10, 2, 5, 1)
	require.NoError(t, err)

	bin, ok := s.Bin(10)
	assert.True(t, ok)
	assert.Equal(t, 0, bin)
	bin, ok = s.Bin(13.9)
	assert.True(t, ok)
	assert.Equal(t, 1, bin)
	_, ok = s.Bin(9.99)
	assert.False(t, ok)
	_, ok = s.Bin(20)
	assert.False(t, ok)
	assert.Equal(t, 14.0, s.BinTime(2))
}

func TestRawSignalDeposit(t *testing.T) {
	s, err := NewRawSignal(0, 2, 3000, -1)
	require.NoError(t, err)

	s.Deposit(11, 20000)
	s.Deposit(11.5, 10)
	s.Deposit(-1, 5)
	s.Deposit(1e9, 5)

	values := s.Values()
	assert.Equal(t, -20010.0, values[5])
	assert.Equal(t, 4, s.Deposits())
	assert.Equal(t, 2, s.OutsideWindow())
}

func TestRawSignalConcurrentDeposit(t *testing.T) {
	s, err := NewRawSignal(0, 1, 10, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.Deposit(3.5, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000.0, s.Values()[3])
	assert.Equal(t, 8000, s.Deposits())
}

func TestDepositResultSkipsUncollected(t *testing.T) {
	s, err := NewRawSignal(0, 2, 100, 1)
	require.NoError(t, err)

	results := []DriftResult{
		{Status: Collected, ArrivalTime: 10, Gain: 100},
		{Status: Lost, ArrivalTime: 10, Gain: 100},
		{Status: Diverged, ArrivalTime: 10, Gain: 100},
		{Status: Collected, ArrivalTime: 20, Gain: 50},
	}
	collected := 0
	for _, r := range results {
		if s.DepositResult(r) {
			collected++
		}
	}
	assert.Equal(t, 2, collected)
	assert.Equal(t, collected, s.Deposits())
	assert.Equal(t, 100.0, s.Values()[5])
	assert.Equal(t, 50.0, s.Values()[10])
}

func TestConvolveImpulse(t *testing.T) {
	s, err := NewRawSignal(0, 2, 30, 1)
	require.NoError(t, err)
	s.Deposit(21, 1)

	out, err := s.Convolve(testTransfer(t))
	require.NoError(t, err)
	require.Len(t, out.Values, 30)
	for i, v := range out.Values {
		switch i {
		case 10:
			assert.Equal(t, 1.0, v)
		case 11:
			assert.Equal(t, 3.0, v)
		case 12:
			assert.Equal(t, 2.0, v)
		case 13:
			assert.Equal(t, 0.5, v)
		default:
			assert.Zero(t, v, "bin %d", i)
		}
	}
	bin, peak := out.Peak()
	assert.Equal(t, 11, bin)
	assert.Equal(t, 3.0, peak)
}

func TestConvolveLinear(t *testing.T) {
	s, err := NewRawSignal(0, 2, 20, 1)
	require.NoError(t, err)
	s.Deposit(1, 2)
	s.Deposit(3, 1)

	out, err := s.Convolve(testTransfer(t))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 7, 7, 3, 0.5, 0}, out.Values[:6])
}

func TestConvolveOnce(t *testing.T) {
	s, err := NewRawSignal(0, 2, 10, 1)
	require.NoError(t, err)

	_, err = s.Convolve(nil)
	assert.ErrorIs(t, err, ErrMissingTransferFunction)

	_, err = s.Convolve(testTransfer(t))
	require.NoError(t, err)
	_, err = s.Convolve(testTransfer(t))
	assert.ErrorIs(t, err, ErrAlreadyConvolved)
}

func TestNewRawSignalInvalid(t *testing.T) {
	_, err := NewRawSignal(0, 0, 10, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewRawSignal(0, 1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
