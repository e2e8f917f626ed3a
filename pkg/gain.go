package chamber

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// GainModel samples avalanche sizes with mean Mean and relative variance
// Shape. Shape 0 gives exactly Mean, Shape 1 the exponential (Furry)
// distribution, in general a gamma (Polya) distribution of shape 1/Shape.
// Samples are capped at Cap.
type GainModel struct {
	Mean  float64
	Shape float64
	Cap   float64
}

func NewGainModel(cfg DriftConfig) GainModel {
	return GainModel{Mean: cfg.GainMean, Shape: cfg.GainShape, Cap: cfg.GainCap}
}

func (m GainModel) Sample(src rand.Source) float64 {
	if m.Shape <= 0 {
		return m.capped(m.Mean)
	}
	gamma := distuv.Gamma{
		Alpha: 1 / m.Shape,
		Beta:  1 / (m.Mean * m.Shape),
		Src:   src,
	}
	return m.capped(gamma.Rand())
}

func (m GainModel) capped(g float64) float64 {
	if m.Cap > 0 && (g > m.Cap || math.IsInf(g, 1)) {
		return m.Cap
	}
	if g < 0 || math.IsNaN(g) {
		return 0
	}
	return g
}
