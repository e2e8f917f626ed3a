package chamber

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

type GridSpacing int

const (
	LinearSpacing GridSpacing = iota
	LogSpacing
)

func (s GridSpacing) String() string {
	switch s {
	case LinearSpacing:
		return "linear"
	case LogSpacing:
		return "log"
	default:
		return "unknown"
	}
}

func ParseGridSpacing(s string) (GridSpacing, error) {
	switch s {
	case "linear":
		return LinearSpacing, nil
	case "log":
		return LogSpacing, nil
	}
	return 0, fmt.Errorf("%w: unknown spacing %q", ErrInvalidGridSpec, s)
}

// FieldGrid holds the field magnitudes (V/cm) at which transport is evaluated.
type FieldGrid struct {
	Values  []float64
	Spacing GridSpacing
}

func (g FieldGrid) Count() int   { return len(g.Values) }
func (g FieldGrid) Min() float64 { return g.Values[0] }
func (g FieldGrid) Max() float64 { return g.Values[len(g.Values)-1] }

func (g FieldGrid) Config() FieldGridConfig {
	return FieldGridConfig{Count: g.Count(), Min: g.Min(), Max: g.Max(), Log: g.Spacing == LogSpacing}
}

func invalidGrid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGridSpec, fmt.Sprintf(format, args...))
}

// NewFieldGrid samples cfg.Count fields between cfg.Min and cfg.Max, equally
// spaced in log(E) when cfg.Log is set. The end points are exact.
func NewFieldGrid(cfg FieldGridConfig) (FieldGrid, error) {
	if err := cfg.Validate(); err != nil {
		return FieldGrid{}, err
	}
	values := make([]float64, cfg.Count)
	spacing := LinearSpacing
	if cfg.Log {
		spacing = LogSpacing
		floats.LogSpan(values, cfg.Min, cfg.Max)
	} else {
		floats.Span(values, cfg.Min, cfg.Max)
	}
	values[0] = cfg.Min
	values[cfg.Count-1] = cfg.Max
	return FieldGrid{Values: values, Spacing: spacing}, nil
}
