// Package cluster builds initial conditions shaped as a massive centre body
// surrounded by spiral belts of smaller bodies.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

const (
	// RadiusScale divides the cube root of a body's mass to give its radius.
	RadiusScale = 1000
	// Turns is how many times a belt winds around its centre.
	Turns = 4
	// DefaultVelocityStdDev is the belt speed perturbation used by NewBelt.
	DefaultVelocityStdDev = 0.1
)

var (
	ErrNegativeMass = errors.New("cluster: centre mass must not be negative")
	ErrInvalidBelt  = errors.New("cluster: invalid belt")
)

// Belt describes one spiral of bodies around a cluster centre.
//
// StdDev and VelocityStdDev scale a single random draw per belt, not per
// body: every body of a belt sits at the same perturbed distance and moves at
// the same perturbed speed, only its angle differs.
type Belt struct {
	Count              int
	AvgMass            float64
	DistanceFromCentre float64
	StdDev             float64
	AvgVelocity        float64
	VelocityStdDev     float64
}

func NewBelt(count int, avgMass, distanceFromCentre, stdDev, avgVelocity float64) Belt {
	return Belt{
		Count:              count,
		AvgMass:            avgMass,
		DistanceFromCentre: distanceFromCentre,
		StdDev:             stdDev,
		AvgVelocity:        avgVelocity,
		VelocityStdDev:     DefaultVelocityStdDev,
	}
}

// Cluster accumulates a centre body and belts until GenerateData flattens
// them into initial conditions.
type Cluster struct {
	Centre         physics.Vec2
	CentreMass     float64
	CentreVelocity physics.Vec2

	// Set by GenerateData and Combine.
	CenterOfMass physics.Vec2
	TotalMass    float64

	rng *rand.Rand

	// A combined cluster carries its union as a belt and has no centre slot.
	centreless bool

	positions  [][]physics.Vec2
	velocities [][]physics.Vec2
	masses     [][]float32
}

// New starts a cluster. Every random draw of the cluster comes from rng; a
// nil rng is seeded from the clock.
func New(centre physics.Vec2, centreMass float64, centreVelocity physics.Vec2, rng *rand.Rand) (*Cluster, error) {
	if centreMass < 0 || math.IsNaN(centreMass) {
		return nil, fmt.Errorf("%w: %g", ErrNegativeMass, centreMass)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Cluster{
		Centre:         centre,
		CentreMass:     centreMass,
		CentreVelocity: centreVelocity,
		rng:            rng,
	}, nil
}

// NumBodies is the number of bodies GenerateData returns.
func (c *Cluster) NumBodies() int {
	n := 0
	if !c.centreless {
		n++
	}
	for _, m := range c.masses {
		n += len(m)
	}
	return n
}

// AddBelt appends b.Count bodies on a spiral of Turns windings. The angle t
// runs evenly from 0 to 8π with both ends included, so for Count > 1 the
// first and last bodies share a direction.
//
//	pos  = centre + (distance + stdDev*N(0,1)) * (cos t, sin t)
//	vel  = centreVelocity + (avgVelocity + velocityStdDev*U(0,1)) * (-sin t, cos t)
//	mass = U(0,1) * avgMass, drawn per body
func (c *Cluster) AddBelt(b Belt) error {
	if b.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidBelt, b.Count)
	}
	if b.AvgMass < 0 {
		return fmt.Errorf("%w: negative average mass %g", ErrInvalidBelt, b.AvgMass)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: c.rng}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: c.rng}

	ts := spiral(b.Count)
	distance := b.DistanceFromCentre + b.StdDev*normal.Rand()

	masses := make([]float32, b.Count)
	for i := range masses {
		masses[i] = float32(uniform.Rand() * b.AvgMass)
	}

	speed := b.AvgVelocity + b.VelocityStdDev*uniform.Rand()

	cx, cy := float64(c.Centre.X), float64(c.Centre.Y)
	vx, vy := float64(c.CentreVelocity.X), float64(c.CentreVelocity.Y)
	positions := make([]physics.Vec2, b.Count)
	velocities := make([]physics.Vec2, b.Count)
	for i, t := range ts {
		sin, cos := math.Sincos(t)
		positions[i] = physics.Vec2{X: float32(cx + distance*cos), Y: float32(cy + distance*sin)}
		velocities[i] = physics.Vec2{X: float32(vx - speed*sin), Y: float32(vy + speed*cos)}
	}

	c.positions = append(c.positions, positions)
	c.velocities = append(c.velocities, velocities)
	c.masses = append(c.masses, masses)
	return nil
}

// spiral returns n angles evenly spaced over [0, 2π·Turns].
func spiral(n int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, 2*math.Pi*Turns)
}

// GenerateData flattens the cluster: the centre body first, then every belt
// in the order it was added. Radii are mass^(1/3)/RadiusScale. CenterOfMass
// and TotalMass are refreshed as a side effect.
func (c *Cluster) GenerateData() physics.InitialConditions {
	n := c.NumBodies()
	ic := physics.InitialConditions{
		Positions:  make([]physics.Vec2, 0, n),
		Masses:     make([]float32, 0, n),
		Radii:      make([]float32, 0, n),
		Velocities: make([]physics.Vec2, 0, n),
	}

	if !c.centreless {
		ic.Positions = append(ic.Positions, c.Centre)
		ic.Masses = append(ic.Masses, float32(c.CentreMass))
		ic.Velocities = append(ic.Velocities, c.CentreVelocity)
	}
	for i := range c.masses {
		ic.Positions = append(ic.Positions, c.positions[i]...)
		ic.Masses = append(ic.Masses, c.masses[i]...)
		ic.Velocities = append(ic.Velocities, c.velocities[i]...)
	}
	for _, m := range ic.Masses {
		ic.Radii = append(ic.Radii, Radius(m))
	}

	c.CenterOfMass, c.TotalMass = totals(ic)
	return ic
}

// Radius of a generated body of mass m.
func Radius(m float32) float32 {
	return float32(math.Cbrt(float64(m)) / RadiusScale)
}

// Combine generates both clusters and returns a new one holding the union,
// a's bodies first. Coordinates are not shifted. The result sits at a's
// centre with zero mass and zero velocity, so belts added to it later do not
// drift with a, and its own GenerateData yields exactly the union.
// The centre of mass is NaN when the union has no mass.
func Combine(a, b *Cluster) *Cluster {
	da, db := a.GenerateData(), b.GenerateData()

	out := &Cluster{
		Centre:     a.Centre,
		rng:        a.rng,
		centreless: true,
		positions:  [][]physics.Vec2{concat(da.Positions, db.Positions)},
		velocities: [][]physics.Vec2{concat(da.Velocities, db.Velocities)},
		masses:     [][]float32{concat(da.Masses, db.Masses)},
	}
	out.GenerateData()
	return out
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func totals(ic physics.InitialConditions) (physics.Vec2, float64) {
	var total, x, y float64
	for i, m := range ic.Masses {
		total += float64(m)
		x += float64(m) * float64(ic.Positions[i].X)
		y += float64(m) * float64(ic.Positions[i].Y)
	}
	return physics.Vec2{X: float32(x / total), Y: float32(y / total)}, total
}
