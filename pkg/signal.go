package chamber

import (
	"fmt"
	"math"
	"sync"
)

// RawSignal accumulates weighted arrival times on a fixed time grid. Bin i
// covers [Start + i*BinWidth, Start + (i+1)*BinWidth). Deposit is safe for
// concurrent use.
type RawSignal struct {
	Start    float64
	BinWidth float64
	Weight   float64

	mu        sync.Mutex
	bins      []float64
	outside   int
	deposits  int
	convolved bool
}

func NewRawSignal(start, binWidth float64, nbins int, weight float64) (*RawSignal, error) {
	if binWidth <= 0 || math.IsNaN(binWidth) {
		return nil, invalidConfig("signal.tstep", "bin width must be positive, got %g", binWidth)
	}
	if nbins < 1 {
		return nil, invalidConfig("signal.nbins", "must be at least 1, got %d", nbins)
	}
	return &RawSignal{Start: start, BinWidth: binWidth, Weight: weight, bins: make([]float64, nbins)}, nil
}

func NewRawSignalFromConfig(cfg SignalConfig) (*RawSignal, error) {
	return NewRawSignal(cfg.TStart, cfg.TStep, cfg.NBins, cfg.Weight)
}

func (s *RawSignal) NBins() int { return len(s.bins) }

// BinTime returns the start time of bin i.
func (s *RawSignal) BinTime(i int) float64 {
	return s.Start + float64(i)*s.BinWidth
}

// Bin returns the index of the bin containing t, or false outside the window.
func (s *RawSignal) Bin(t float64) (int, bool) {
	if math.IsNaN(t) {
		return 0, false
	}
	i := math.Floor((t - s.Start) / s.BinWidth)
	if i < 0 || i >= float64(len(s.bins)) {
		return 0, false
	}
	return int(i), true
}

// Deposit adds Weight*gain at arrival time t. Arrivals outside the window are
// counted and dropped.
func (s *RawSignal) Deposit(t float64, gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits++
	i, ok := s.Bin(t)
	if !ok {
		s.outside++
		return
	}
	s.bins[i] += s.Weight * gain
}

func (s *RawSignal) Deposits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deposits
}

func (s *RawSignal) OutsideWindow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outside
}

// Values returns a copy of the bin contents.
func (s *RawSignal) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.bins...)
}

// Convolve folds the raw signal with the transfer function h:
// out[i] = sum_j raw[j] * h((i-j)*BinWidth). A signal can be convolved once.
func (s *RawSignal) Convolve(h *TransferFunction) (*ConvolvedSignal, error) {
	if h == nil {
		return nil, ErrMissingTransferFunction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.convolved {
		return nil, ErrAlreadyConvolved
	}

	n := len(s.bins)
	kernel := make([]float64, n)
	for k := range kernel {
		kernel[k] = h.Value(float64(k) * s.BinWidth)
	}
	out := make([]float64, n)
	for j, raw := range s.bins {
		if raw == 0 {
			continue
		}
		for i := j; i < n; i++ {
			out[i] += raw * kernel[i-j]
		}
	}
	s.convolved = true
	return &ConvolvedSignal{Start: s.Start, BinWidth: s.BinWidth, Values: out}, nil
}

// ConvolvedSignal is the detector response, ready for threshold detection.
type ConvolvedSignal struct {
	Start    float64
	BinWidth float64
	Values   []float64
}

func (c *ConvolvedSignal) BinTime(i int) float64 {
	return c.Start + float64(i)*c.BinWidth
}

// Peak returns the bin with the largest absolute value.
func (c *ConvolvedSignal) Peak() (int, float64) {
	best, value := -1, 0.
	for i, v := range c.Values {
		if best < 0 || math.Abs(v) > math.Abs(value) {
			best, value = i, v
		}
	}
	return best, value
}

func (c *ConvolvedSignal) String() string {
	bin, value := c.Peak()
	return fmt.Sprintf("%d bins of %g ns from %g ns, peak %g at %g ns", len(c.Values), c.BinWidth, c.Start, value, c.BinTime(bin))
}

// DepositResult deposits a collected drift result and ignores the others. It
// reports whether the result was deposited.
func (s *RawSignal) DepositResult(r DriftResult) bool {
	if r.Status != Collected {
		return false
	}
	s.Deposit(r.ArrivalTime, r.Gain)
	return true
}
