package chamber

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCoaxialWireField(t *testing.T) {
	c := CoaxialWire{WireRadius: 0.0025, TubeRadius: 0.7, Voltage: 2000}
	ex, ey, ez := c.FieldAt(0, 0.5, 3)
	want := 2000 / (0.5 * math.Log(0.7/0.0025))
	assert.InDelta(t, 0, ex, 1e-12)
	assert.InDelta(t, want, ey, 1e-9)
	assert.Zero(t, ez)

	ex, ey, _ = c.FieldAt(0.3, 0.4, 0)
	assert.InDelta(t, want*0.6, ex, 1e-9)
	assert.InDelta(t, want*0.8, ey, 1e-9)

	ex, ey, ez = c.FieldAt(0.001, 0, 0)
	assert.Zero(t, ex+ey+ez)
}

func TestTubeChamber(t *testing.T) {
	chamber := NewTubeChamber(GeometryConfig{WireX: 1, WireY: 1, WireRadius: 0.01, TubeRadius: 0.5, WireVoltage: 1000, HalfLength: 2})

	assert.True(t, chamber.Collector.Reached(r3.Vec{X: 1.005, Y: 1}))
	assert.False(t, chamber.Collector.Reached(r3.Vec{X: 1.2, Y: 1}))
	assert.InDelta(t, 0.19, chamber.Collector.Distance(r3.Vec{X: 1.2, Y: 1}), 1e-12)
	assert.True(t, chamber.Boundary.Inside(r3.Vec{X: 1.4, Y: 1, Z: 1.9}))
	assert.False(t, chamber.Boundary.Inside(r3.Vec{X: 1.6, Y: 1}))
	assert.False(t, chamber.Boundary.Inside(r3.Vec{X: 1, Y: 1, Z: 2.1}))
}

func TestPlaneAndBox(t *testing.T) {
	plane := Plane{Z: 1}
	assert.True(t, plane.Reached(r3.Vec{Z: 1}))
	assert.Equal(t, 2.0, plane.Distance(r3.Vec{Z: 3}))

	box := Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	assert.True(t, box.Inside(r3.Vec{}))
	assert.False(t, box.Inside(r3.Vec{Y: 1.1}))
}
