package chamber

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

type DriftStatus int

const (
	Created DriftStatus = iota
	Integrating
	Collected
	Lost
	Diverged
)

func (s DriftStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Integrating:
		return "integrating"
	case Collected:
		return "collected"
	case Lost:
		return "lost"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// DriftResult is the outcome of one drift line.
type DriftResult struct {
	Index       int
	Start       Electron
	Status      DriftStatus
	ArrivalTime float64
	Arrival     r3.Vec
	Gain        float64
	Steps       int
	PathLength  float64
	Err         error
}

const minStepFraction = 1e-9

var (
	errZeroField   = errors.New("zero or non-finite field")
	errInCollector = errors.New("inside collector")
)

// DriftSimulator integrates electron drift lines through a chamber using a
// transport table, and samples the avalanche gain of collected electrons.
type DriftSimulator struct {
	Chamber Chamber
	Table   *TransportTable
	Config  DriftConfig
	Gain    GainModel
}

func NewDriftSimulator(chamber Chamber, table *TransportTable, cfg DriftConfig) (*DriftSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if chamber.Field == nil || chamber.Collector == nil || chamber.Boundary == nil {
		return nil, invalidConfig("geometry", "field, collector and boundary are required")
	}
	if table == nil {
		return nil, invalidConfig("gas_table", "no transport table")
	}
	return &DriftSimulator{
		Chamber: chamber,
		Table:   table.WithClamp(cfg.ClampField),
		Config:  cfg,
		Gain:    NewGainModel(cfg),
	}, nil
}

// electronSource returns the random source of electron index in event, so
// results do not depend on which worker drifts which electron.
func (s *DriftSimulator) electronSource(event int, index int) rand.Source {
	return rand.NewPCG(s.Config.Seed*0x9E3779B97F4A7C15+uint64(event), uint64(index))
}

func (s *DriftSimulator) velocity(p r3.Vec) (r3.Vec, TransportCoefficients, error) {
	if s.Chamber.Collector.Reached(p) {
		return r3.Vec{}, TransportCoefficients{}, errInCollector
	}
	e := fieldVec(s.Chamber.Field, p)
	mag := r3.Norm(e)
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return r3.Vec{}, TransportCoefficients{}, errZeroField
	}
	coeffs, err := s.Table.At(mag)
	if err != nil {
		return r3.Vec{}, TransportCoefficients{}, err
	}
	// Electrons drift against the field.
	return r3.Scale(-coeffs.DriftVelocity/mag, e), coeffs, nil
}

// Drift follows electron index of event until it is collected, leaves the
// boundary or exhausts the step budget.
func (s *DriftSimulator) Drift(event int, index int, electron Electron) DriftResult {
	return s.drift(index, electron, s.electronSource(event, index))
}

func (s *DriftSimulator) drift(index int, electron Electron, src rand.Source) DriftResult {
	cfg := s.Config
	p := r3.Vec{X: electron.X, Y: electron.Y, Z: electron.Z}
	t := electron.T
	result := DriftResult{Index: index, Start: electron, Status: Created, Arrival: p, ArrivalTime: t}

	diverge := func(step int, reason string, err error) DriftResult {
		result.Status = Diverged
		result.Arrival, result.ArrivalTime, result.Steps = p, t, step
		result.Err = &DriftError{Electron: index, Step: step, Time: t, Reason: reason, Wrapped: err}
		return result
	}

	if s.Chamber.Collector.Reached(p) {
		return s.collect(result, p, t, 0, nil, src)
	}
	if !s.Chamber.Boundary.Inside(p) {
		result.Status = Lost
		return result
	}

	result.Status = Integrating
	v, coeffs, err := s.velocity(p)
	if err != nil {
		return diverge(0, "no drift velocity at start", err)
	}

	h := cfg.InitialStep
	minStep := cfg.InitialStep * minStepFraction
	path := 0.
	for step := 1; step <= cfg.MaxSteps; step++ {
		next, errEst, err := rkfStep(s.velocityOnly, p, v, h)
		if errors.Is(err, errInCollector) {
			// Final approach: straight line along the local velocity.
			speed := r3.Norm(v)
			dist := s.Chamber.Collector.Distance(p)
			dt := dist / speed
			end := r3.Add(p, r3.Scale(dt, v))
			result.Steps = step
			return s.collect(result, end, t+dt, path+dist, &coeffs, src)
		}
		if err != nil || errEst > cfg.Tolerance {
			if h <= minStep {
				reason := "step size underflow"
				if err != nil {
					reason = "field evaluation failed"
				}
				return diverge(step, reason, err)
			}
			if err != nil {
				h /= 2
			} else {
				h = math.Max(nextStep(h, errEst, cfg.Tolerance, cfg.MaxStep), minStep)
			}
			continue
		}

		segment := r3.Norm(r3.Sub(next, p))
		if s.Chamber.Collector.Reached(next) {
			d0 := s.Chamber.Collector.Distance(p)
			d1 := s.Chamber.Collector.Distance(next)
			frac := 1.
			if d0-d1 > 0 {
				frac = d0 / (d0 - d1)
			}
			end := r3.Add(p, r3.Scale(frac, r3.Sub(next, p)))
			result.Steps = step
			return s.collect(result, end, t+frac*h, path+frac*segment, &coeffs, src)
		}

		p, t, path = next, t+h, path+segment
		if !s.Chamber.Boundary.Inside(p) {
			result.Status = Lost
			result.Arrival, result.ArrivalTime, result.Steps, result.PathLength = p, t, step, path
			return result
		}

		v, coeffs, err = s.velocity(p)
		if err != nil {
			if errors.Is(err, errInCollector) {
				result.Steps = step
				return s.collect(result, p, t, path, &coeffs, src)
			}
			return diverge(step, "field evaluation failed", err)
		}
		h = nextStep(h, errEst, cfg.Tolerance, cfg.MaxStep)
		result.Steps = step
	}
	return diverge(cfg.MaxSteps, fmt.Sprintf("step budget of %d exhausted", cfg.MaxSteps), nil)
}

func (s *DriftSimulator) velocityOnly(p r3.Vec) (r3.Vec, error) {
	v, _, err := s.velocity(p)
	return v, err
}

func (s *DriftSimulator) collect(result DriftResult, p r3.Vec, t float64, path float64,
	coeffs *TransportCoefficients, src rand.Source) DriftResult {
	if s.Config.Diffusion && coeffs != nil && coeffs.DriftVelocity > 0 && path > 0 {
		sigma := coeffs.DiffusionL * math.Sqrt(path) / coeffs.DriftVelocity
		if sigma > 0 {
			t += distuv.Normal{Mu: 0, Sigma: sigma, Src: src}.Rand()
		}
	}
	result.Status = Collected
	result.Arrival = p
	result.ArrivalTime = t
	result.PathLength = path
	result.Gain = s.Gain.Sample(src)
	return result
}
