package chamber

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// AtmosphericPressure in Torr.
const AtmosphericPressure = 760.

// RoomTemperature in K.
const RoomTemperature = 293.15

// GasComposition is a validated mixture in percent by volume.
type GasComposition struct {
	fractions map[string]float64
}

func NewGasComposition(components map[string]float64) (GasComposition, error) {
	if len(components) == 0 {
		return GasComposition{}, fmt.Errorf("%w: no components", ErrInvalidGas)
	}
	fractions := make(map[string]float64, len(components))
	total := 0.
	for name, fraction := range components {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := gasParameters[name]; !ok {
			return GasComposition{}, fmt.Errorf("%w: unknown component %q", ErrInvalidGas, name)
		}
		if fraction <= 0 || math.IsNaN(fraction) {
			return GasComposition{}, fmt.Errorf("%w: fraction of %s must be positive, got %g", ErrInvalidGas, name, fraction)
		}
		fractions[name] += fraction
		total += fraction
	}
	if math.Abs(total-100) > 0.01 {
		return GasComposition{}, fmt.Errorf("%w: fractions sum to %g, not 100", ErrInvalidGas, total)
	}
	return GasComposition{fractions: fractions}, nil
}

// ParseGasKey is the inverse of Key.
func ParseGasKey(key string) (GasComposition, error) {
	components := make(map[string]float64)
	for _, part := range strings.Split(key, ",") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return GasComposition{}, fmt.Errorf("%w: malformed key %q", ErrInvalidGas, key)
		}
		fraction, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return GasComposition{}, fmt.Errorf("%w: malformed fraction in %q: %v", ErrInvalidGas, key, err)
		}
		components[name] = fraction
	}
	return NewGasComposition(components)
}

// Names returns the component names in lexical order.
func (g GasComposition) Names() []string {
	names := maps.Keys(g.fractions)
	slices.Sort(names)
	return names
}

func (g GasComposition) Fraction(name string) float64 {
	return g.fractions[name]
}

// Components returns a copy of the mixture.
func (g GasComposition) Components() map[string]float64 {
	out := make(map[string]float64, len(g.fractions))
	for k, v := range g.fractions {
		out[k] = v
	}
	return out
}

// Key is the canonical identifier used in table metadata and the catalog,
// e.g. "ar:93,co2:7".
func (g GasComposition) Key() string {
	parts := make([]string, 0, len(g.fractions))
	for _, name := range g.Names() {
		parts = append(parts, name+":"+strconv.FormatFloat(g.fractions[name], 'g', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (g GasComposition) String() string {
	return g.Key()
}

// Conditions are the fixed inputs of one transport evaluation.
type Conditions struct {
	Temperature float64
	Pressure    float64
	// Collisions is the sampling depth: the number of collision batches the
	// provider runs per field point.
	Collisions int
}
