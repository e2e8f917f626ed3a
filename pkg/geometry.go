package chamber

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FieldProvider returns the electric field (V/cm) at a point (cm).
type FieldProvider interface {
	FieldAt(x, y, z float64) (ex, ey, ez float64)
}

// Collector is the surface that ends a drift line with a signal.
type Collector interface {
	Reached(p r3.Vec) bool
	// Distance to the collecting surface, negative inside.
	Distance(p r3.Vec) float64
}

// Boundary is the volume in which drift lines are followed.
type Boundary interface {
	Inside(p r3.Vec) bool
}

func fieldVec(f FieldProvider, p r3.Vec) r3.Vec {
	ex, ey, ez := f.FieldAt(p.X, p.Y, p.Z)
	return r3.Vec{X: ex, Y: ey, Z: ez}
}

// CoaxialWire is the field of a thin wire at potential Voltage inside a
// grounded tube: E(r) = V / (r ln(b/a)), radial.
type CoaxialWire struct {
	X, Y       float64
	WireRadius float64
	TubeRadius float64
	Voltage    float64
}

func (c CoaxialWire) FieldAt(x, y, z float64) (float64, float64, float64) {
	dx, dy := x-c.X, y-c.Y
	r := math.Hypot(dx, dy)
	if r < c.WireRadius {
		return 0, 0, 0
	}
	e := c.Voltage / (r * math.Log(c.TubeRadius/c.WireRadius))
	return e * dx / r, e * dy / r, 0
}

// UniformField is a constant field, mostly useful in tests.
type UniformField struct {
	E r3.Vec
}

func (u UniformField) FieldAt(x, y, z float64) (float64, float64, float64) {
	return u.E.X, u.E.Y, u.E.Z
}

// Wire is an infinitely long collecting wire parallel to z.
type Wire struct {
	X, Y   float64
	Radius float64
}

func (w Wire) Distance(p r3.Vec) float64 {
	return math.Hypot(p.X-w.X, p.Y-w.Y) - w.Radius
}

func (w Wire) Reached(p r3.Vec) bool {
	return w.Distance(p) <= 0
}

// Plane collects at z <= Z (for uniform-field drift tests).
type Plane struct {
	Z float64
}

func (pl Plane) Distance(p r3.Vec) float64 {
	return p.Z - pl.Z
}

func (pl Plane) Reached(p r3.Vec) bool {
	return pl.Distance(p) <= 0
}

// Tube is a cylinder along z, closed at |z| <= HalfLength.
type Tube struct {
	X, Y       float64
	Radius     float64
	HalfLength float64
}

func (t Tube) Inside(p r3.Vec) bool {
	return math.Hypot(p.X-t.X, p.Y-t.Y) <= t.Radius && math.Abs(p.Z) <= t.HalfLength
}

// Box is an axis aligned volume.
type Box struct {
	Min, Max r3.Vec
}

func (b Box) Inside(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Chamber bundles the geometry a drift simulation needs.
type Chamber struct {
	Field     FieldProvider
	Collector Collector
	Boundary  Boundary
}

// NewTubeChamber builds a single-wire drift tube from its configuration.
func NewTubeChamber(cfg GeometryConfig) Chamber {
	return Chamber{
		Field: CoaxialWire{
			X: cfg.WireX, Y: cfg.WireY,
			WireRadius: cfg.WireRadius,
			TubeRadius: cfg.TubeRadius,
			Voltage:    cfg.WireVoltage,
		},
		Collector: Wire{X: cfg.WireX, Y: cfg.WireY, Radius: cfg.WireRadius},
		Boundary:  Tube{X: cfg.WireX, Y: cfg.WireY, Radius: cfg.TubeRadius, HalfLength: cfg.HalfLength},
	}
}
