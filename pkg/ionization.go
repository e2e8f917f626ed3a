package chamber

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// SpeedOfLight in cm/ns.
const SpeedOfLight = 29.9792458

type Electron struct {
	X, Y, Z float64
	T       float64
}

// Cluster is one ionising collision along a track.
type Cluster struct {
	X, Y, Z   float64
	T         float64
	Electrons []Electron
}

// Track is a straight particle trajectory.
type Track struct {
	Start     r3.Vec
	Direction r3.Vec
	Particle  string
	Momentum  float64 // eV/c
	T0        float64
}

// ClusterGenerator produces the ionisation clusters of one track, ordered
// along the trajectory.
type ClusterGenerator interface {
	GenerateClusters(track Track) ([]Cluster, error)
}

// PoissonClusters places clusters at exponentially distributed distances
// along the track while it is inside Boundary, which is assumed convex. The
// number of electrons per cluster is 1 + Poisson(ElectronsPerCluster - 1).
// Each call advances an internal track counter used to seed the sampling, so
// a generator must not be shared between goroutines.
type PoissonClusters struct {
	ClustersPerCm       float64
	ElectronsPerCluster float64
	Boundary            Boundary
	// MaxLength bounds the walk when the track never enters the boundary.
	MaxLength float64
	Seed      uint64

	tracks uint64
}

func NewPoissonClusters(cfg TrackConfig, boundary Boundary, maxLength float64, seed uint64) *PoissonClusters {
	return &PoissonClusters{
		ClustersPerCm:       cfg.ClustersPerCm,
		ElectronsPerCluster: cfg.ElectronsPerCluster,
		Boundary:            boundary,
		MaxLength:           maxLength,
		Seed:                seed,
	}
}

func (g *PoissonClusters) GenerateClusters(track Track) ([]Cluster, error) {
	norm := r3.Norm(track.Direction)
	if norm == 0 || math.IsNaN(norm) {
		return nil, fmt.Errorf("track direction must be a non-zero vector")
	}
	if g.ClustersPerCm <= 0 {
		return nil, fmt.Errorf("clusters per cm must be positive, got %g", g.ClustersPerCm)
	}
	dir := r3.Scale(1/norm, track.Direction)

	src := rand.NewPCG(g.Seed, g.tracks)
	g.tracks++
	spacing := distuv.Exponential{Rate: g.ClustersPerCm, Src: src}
	extra := distuv.Poisson{Lambda: math.Max(g.ElectronsPerCluster-1, 0), Src: src}

	clusters := make([]Cluster, 0)
	entered := false
	s := 0.
	for s < g.MaxLength {
		s += spacing.Rand()
		p := r3.Add(track.Start, r3.Scale(s, dir))
		if !g.Boundary.Inside(p) {
			if entered {
				break
			}
			continue
		}
		entered = true
		n := 1
		if extra.Lambda > 0 {
			n += int(extra.Rand())
		}
		t := track.T0 + s/SpeedOfLight
		cluster := Cluster{X: p.X, Y: p.Y, Z: p.Z, T: t}
		cluster.Electrons = make([]Electron, n)
		for i := range cluster.Electrons {
			cluster.Electrons[i] = Electron{X: p.X, Y: p.Y, Z: p.Z, T: t}
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}
