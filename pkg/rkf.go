package chamber

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Runge-Kutta-Fehlberg 4(5) tableau.
var (
	rkfA = [6][5]float64{
		{},
		{1. / 4},
		{3. / 32, 9. / 32},
		{1932. / 2197, -7200. / 2197, 7296. / 2197},
		{439. / 216, -8, 3680. / 513, -845. / 4104},
		{-8. / 27, 2, -3544. / 2565, 1859. / 4104, -11. / 40},
	}
	rkfB4 = [6]float64{25. / 216, 0, 1408. / 2565, 2197. / 4104, -1. / 5, 0}
	rkfB5 = [6]float64{16. / 135, 0, 6656. / 12825, 28561. / 56430, -9. / 50, 2. / 55}
)

type velocityFunc func(p r3.Vec) (r3.Vec, error)

// rkfStep advances p by h with the fifth order solution and returns the
// distance between the fourth and fifth order estimates. k1 is the velocity
// at p, already known to the caller.
func rkfStep(f velocityFunc, p r3.Vec, k1 r3.Vec, h float64) (r3.Vec, float64, error) {
	var k [6]r3.Vec
	k[0] = k1
	for stage := 1; stage < 6; stage++ {
		q := p
		for j := 0; j < stage; j++ {
			if rkfA[stage][j] != 0 {
				q = r3.Add(q, r3.Scale(h*rkfA[stage][j], k[j]))
			}
		}
		v, err := f(q)
		if err != nil {
			return p, 0, err
		}
		k[stage] = v
	}
	y4, y5 := p, p
	for i := 0; i < 6; i++ {
		y4 = r3.Add(y4, r3.Scale(h*rkfB4[i], k[i]))
		y5 = r3.Add(y5, r3.Scale(h*rkfB5[i], k[i]))
	}
	return y5, r3.Norm(r3.Sub(y5, y4)), nil
}

// nextStep proposes the step size after a step with error estimate errEst.
func nextStep(h, errEst, tol, maxStep float64) float64 {
	factor := 5.
	if errEst > 0 {
		factor = 0.9 * math.Pow(tol/errEst, 0.2)
	}
	factor = math.Max(0.1, math.Min(5, factor))
	return math.Min(h*factor, maxStep)
}
