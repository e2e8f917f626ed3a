package chamber

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// gasParams holds an empirical description of one pure gas at 293.15 K.
//
//	alpha/p = A exp(-B p/E)           Korff, A in 1/(cm Torr), B in V/(cm Torr)
//	vd      = VSat (E/p) / (E0 + E/p) saturating drift velocity, cm/ns
//	DL, DT  = diffusion at E/p = E0, scaled by (E0/(E/p))^(1/4)
type gasParams struct {
	A    float64
	B    float64
	VSat float64
	E0   float64
	DL   float64
	DT   float64
}

var gasParameters = map[string]gasParams{
	"ar":     {A: 14, B: 180, VSat: 0.0045, E0: 0.5, DL: 0.030, DT: 0.045},
	"co2":    {A: 20, B: 466, VSat: 0.0110, E0: 4.0, DL: 0.012, DT: 0.014},
	"he":     {A: 3, B: 34, VSat: 0.0035, E0: 1.2, DL: 0.025, DT: 0.030},
	"ne":     {A: 4, B: 100, VSat: 0.0040, E0: 0.8, DL: 0.028, DT: 0.035},
	"ch4":    {A: 17, B: 300, VSat: 0.0100, E0: 0.4, DL: 0.020, DT: 0.025},
	"ic4h10": {A: 24, B: 350, VSat: 0.0060, E0: 1.5, DL: 0.014, DT: 0.016},
}

// ParametricGas is a TransportProvider built from empirical parameterisations
// instead of a collision Monte Carlo. The sampling depth adds reproducible
// statistical noise of relative size 1%/sqrt(collisions).
type ParametricGas struct {
	Composition GasComposition
	Seed        uint64

	mix gasParams
}

func NewParametricGas(composition GasComposition, seed uint64) *ParametricGas {
	var mix gasParams
	for _, name := range composition.Names() {
		w := composition.Fraction(name) / 100
		p := gasParameters[name]
		mix.A += w * p.A
		mix.B += w * p.B
		mix.VSat += w * p.VSat
		mix.E0 += w * p.E0
		mix.DL += w * p.DL
		mix.DT += w * p.DT
	}
	return &ParametricGas{Composition: composition, Seed: seed, mix: mix}
}

func (g *ParametricGas) Transport(ctx context.Context, field float64, cond Conditions) (TransportCoefficients, error) {
	if err := ctx.Err(); err != nil {
		return TransportCoefficients{}, err
	}
	if field <= 0 || math.IsNaN(field) || math.IsInf(field, 0) {
		return TransportCoefficients{}, fmt.Errorf("parametric gas: field must be positive and finite, got %g", field)
	}
	if cond.Temperature <= 0 || cond.Pressure <= 0 {
		return TransportCoefficients{}, fmt.Errorf("parametric gas: non-physical conditions %+v", cond)
	}
	// Pressure scaled to the density at room temperature.
	p := cond.Pressure * RoomTemperature / cond.Temperature
	reduced := field / p
	m := g.mix

	coeffs := TransportCoefficients{
		DriftVelocity: m.VSat * reduced / (m.E0 + reduced),
		LnTownsend:    math.Log(m.A*p) - m.B*p/field,
		DiffusionL:    m.DL * math.Pow(m.E0/reduced, 0.25) * math.Sqrt(AtmosphericPressure/p),
		DiffusionT:    m.DT * math.Pow(m.E0/reduced, 0.25) * math.Sqrt(AtmosphericPressure/p),
	}

	if cond.Collisions > 0 {
		noise := distuv.Normal{
			Mu:    1,
			Sigma: 0.01 / math.Sqrt(float64(cond.Collisions)),
			Src:   rand.NewPCG(g.Seed, math.Float64bits(field)),
		}
		coeffs.DriftVelocity *= noise.Rand()
		coeffs.DiffusionL *= noise.Rand()
		coeffs.DiffusionT *= noise.Rand()
		coeffs.LnTownsend += math.Log(noise.Rand())
	}
	return coeffs, nil
}
