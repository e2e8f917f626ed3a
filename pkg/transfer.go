package chamber

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/interp"
)

// DefaultTimeScale converts transfer function times from microseconds to ns.
const DefaultTimeScale = 1000

// TransferFunction is the sampled impulse response of the readout
// electronics, linearly interpolated between samples and zero outside them.
type TransferFunction struct {
	Times  []float64
	Values []float64

	fit interp.PiecewiseLinear
}

func NewTransferFunction(times, values []float64) (*TransferFunction, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times for %d values", ErrInvalidTransferFunction, len(times), len(values))
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidTransferFunction, len(times))
	}
	for i := range times {
		if !finite(times[i]) || !finite(values[i]) {
			return nil, fmt.Errorf("%w: non-finite sample %d (%g, %g)", ErrInvalidTransferFunction, i, times[i], values[i])
		}
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("%w: times not strictly increasing at sample %d (%g after %g)",
				ErrInvalidTransferFunction, i, times[i], times[i-1])
		}
	}
	tf := &TransferFunction{
		Times:  append([]float64(nil), times...),
		Values: append([]float64(nil), values...),
	}
	if err := tf.fit.Fit(tf.Times, tf.Values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransferFunction, err)
	}
	return tf, nil
}

// LoadTransferFunction reads whitespace separated (time, amplitude) pairs,
// one per line, multiplying times by scale. Blank lines, lines starting with
// '#' and lines that do not hold two finite numbers are skipped.
func LoadTransferFunction(path string, scale float64, logger Logger) (*TransferFunction, error) {
	logger = loggerOrDiscard(logger)
	file, err := os.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer file.Close()

	var times, values []float64
	skipped := 0
	reader := bufio.NewReader(file)
	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, &ErrOpenFile{Filename: path, Err: readErr}
		}
		t, v, status := parseTransferLine(raw)
		switch status {
		case lineSample:
			times = append(times, t*scale)
			values = append(values, v)
		case lineMalformed:
			skipped++
		}
		if readErr == io.EOF {
			break
		}
	}
	if skipped > 0 {
		logger.Info(fmt.Sprintf("Skipped %d malformed lines in %s", skipped, path), "transfer")
	}
	tf, err := NewTransferFunction(times, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

type lineStatus int

const (
	lineIgnored lineStatus = iota
	lineSample
	lineMalformed
)

// parseTransferLine reads one "time amplitude" line. Lines are read whole,
// whatever their length.
func parseTransferLine(raw string) (float64, float64, lineStatus) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, 0, lineIgnored
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, lineMalformed
	}
	t, errT := cast.ToFloat64E(fields[0])
	v, errV := cast.ToFloat64E(fields[1])
	if errT != nil || errV != nil || !finite(t) || !finite(v) {
		return 0, 0, lineMalformed
	}
	return t, v, lineSample
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Value returns h(t).
func (tf *TransferFunction) Value(t float64) float64 {
	if t < tf.Times[0] || t > tf.Times[len(tf.Times)-1] {
		return 0
	}
	return tf.fit.Predict(t)
}

func (tf *TransferFunction) Duration() float64 {
	return tf.Times[len(tf.Times)-1] - tf.Times[0]
}
