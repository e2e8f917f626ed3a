package chamber

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// TransportCoefficients are the electron transport properties at one field.
type TransportCoefficients struct {
	DriftVelocity float64 // cm/ns
	LnTownsend    float64 // ln(1/cm)
	DiffusionL    float64 // cm^1/2
	DiffusionT    float64 // cm^1/2
}

func (c TransportCoefficients) Townsend() float64 {
	return math.Exp(c.LnTownsend)
}

// TransportProvider evaluates transport at one field value. Implementations
// must be safe for concurrent use.
type TransportProvider interface {
	Transport(ctx context.Context, field float64, conditions Conditions) (TransportCoefficients, error)
}

// TransportEntry is one row of a transport table.
type TransportEntry struct {
	Field float64
	TransportCoefficients
}

// TableKey identifies a table: what it was generated for.
type TableKey struct {
	Gas         string
	Temperature float64
	Pressure    float64
	Grid        FieldGridConfig
	Collisions  int
}

func (k TableKey) String() string {
	spacing := LinearSpacing
	if k.Grid.Log {
		spacing = LogSpacing
	}
	return fmt.Sprintf("%s@%gK,%gTorr,[%g,%g]x%d/%s", k.Gas, k.Temperature, k.Pressure,
		k.Grid.Min, k.Grid.Max, k.Grid.Count, spacing)
}

const keyTolerance = 1e-9

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= keyTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Mismatch compares k against the requested key and returns the name and
// values of the first differing property, or ok=true. Collisions is not
// compared: depth changes the noise, not the meaning of the table.
func (k TableKey) Mismatch(want TableKey) (property, wantValue, gotValue string, ok bool) {
	switch {
	case k.Gas != want.Gas:
		return "gas", want.Gas, k.Gas, false
	case !closeEnough(k.Temperature, want.Temperature):
		return "temperature", fmt.Sprint(want.Temperature), fmt.Sprint(k.Temperature), false
	case !closeEnough(k.Pressure, want.Pressure):
		return "pressure", fmt.Sprint(want.Pressure), fmt.Sprint(k.Pressure), false
	case k.Grid.Count != want.Grid.Count:
		return "grid count", fmt.Sprint(want.Grid.Count), fmt.Sprint(k.Grid.Count), false
	case !closeEnough(k.Grid.Min, want.Grid.Min):
		return "grid min", fmt.Sprint(want.Grid.Min), fmt.Sprint(k.Grid.Min), false
	case !closeEnough(k.Grid.Max, want.Grid.Max):
		return "grid max", fmt.Sprint(want.Grid.Max), fmt.Sprint(k.Grid.Max), false
	case k.Grid.Log != want.Grid.Log:
		return "grid spacing", fmt.Sprint(want.Grid.Log), fmt.Sprint(k.Grid.Log), false
	}
	return "", "", "", true
}

// TransportTable is an immutable lookup of transport coefficients on a field
// grid. Between grid points drift velocity, diffusion and ln(Townsend) are
// interpolated linearly in log(E).
type TransportTable struct {
	ID      string
	Key     TableKey
	Entries []TransportEntry

	clamp    bool
	velocity *interp.PiecewiseLinear
	lnAlpha  *interp.PiecewiseLinear
	diffL    *interp.PiecewiseLinear
	diffT    *interp.PiecewiseLinear
}

func NewTransportTable(id string, key TableKey, entries []TransportEntry) (*TransportTable, error) {
	n := len(entries)
	if n < 2 {
		return nil, fmt.Errorf("%w: table needs at least 2 entries, got %d", ErrInvalidGridSpec, n)
	}
	logE := make([]float64, n)
	vd := make([]float64, n)
	lna := make([]float64, n)
	dl := make([]float64, n)
	dt := make([]float64, n)
	for i, e := range entries {
		if !(e.Field > 0) || math.IsInf(e.Field, 0) || (i > 0 && !(e.Field > entries[i-1].Field)) {
			return nil, fmt.Errorf("%w: fields must be positive and strictly increasing (entry %d: %g)", ErrInvalidGridSpec, i, e.Field)
		}
		for _, v := range []float64{e.DriftVelocity, e.LnTownsend, e.DiffusionL, e.DiffusionT} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite coefficient at %g V/cm", e.Field)
			}
		}
		logE[i] = math.Log(e.Field)
		vd[i] = e.DriftVelocity
		lna[i] = e.LnTownsend
		dl[i] = e.DiffusionL
		dt[i] = e.DiffusionT
	}

	table := &TransportTable{
		ID:       id,
		Key:      key,
		Entries:  append([]TransportEntry(nil), entries...),
		velocity: &interp.PiecewiseLinear{},
		lnAlpha:  &interp.PiecewiseLinear{},
		diffL:    &interp.PiecewiseLinear{},
		diffT:    &interp.PiecewiseLinear{},
	}
	fits := []struct {
		pl *interp.PiecewiseLinear
		ys []float64
	}{{table.velocity, vd}, {table.lnAlpha, lna}, {table.diffL, dl}, {table.diffT, dt}}
	for _, f := range fits {
		if err := f.pl.Fit(logE, f.ys); err != nil {
			return nil, fmt.Errorf("fitting transport table: %w", err)
		}
	}
	return table, nil
}

// WithClamp returns a view of the table that answers out-of-range queries
// with the boundary coefficients instead of ErrFieldOutOfRange.
func (t *TransportTable) WithClamp(clamp bool) *TransportTable {
	view := *t
	view.clamp = clamp
	return &view
}

func (t *TransportTable) Clamped() bool { return t.clamp }

func (t *TransportTable) MinField() float64 { return t.Entries[0].Field }
func (t *TransportTable) MaxField() float64 { return t.Entries[len(t.Entries)-1].Field }

func (t *TransportTable) At(field float64) (TransportCoefficients, error) {
	lo, hi := t.MinField(), t.MaxField()
	if math.IsNaN(field) || field < lo || field > hi {
		if !t.clamp || math.IsNaN(field) {
			return TransportCoefficients{}, &FieldOutOfRangeError{Field: field, Min: lo, Max: hi}
		}
		if field < lo {
			return t.Entries[0].TransportCoefficients, nil
		}
		return t.Entries[len(t.Entries)-1].TransportCoefficients, nil
	}
	x := math.Log(field)
	return TransportCoefficients{
		DriftVelocity: t.velocity.Predict(x),
		LnTownsend:    t.lnAlpha.Predict(x),
		DiffusionL:    t.diffL.Predict(x),
		DiffusionT:    t.diffT.Predict(x),
	}, nil
}
