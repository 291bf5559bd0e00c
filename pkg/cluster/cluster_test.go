package cluster

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newCluster(t *testing.T, centre physics.Vec2, mass float64, seed uint64) *Cluster {
	t.Helper()
	c, err := New(centre, mass, physics.Vec2{}, seeded(seed))
	require.NoError(t, err)
	return c
}

func TestNewRejectsNegativeMass(t *testing.T) {
	_, err := New(physics.Vec2{}, -1, physics.Vec2{}, nil)
	assert.ErrorIs(t, err, ErrNegativeMass)
}

func TestAddBeltRejectsInvalid(t *testing.T) {
	c := newCluster(t, physics.Vec2{}, 1, 1)
	assert.ErrorIs(t, c.AddBelt(NewBelt(-1, 1, 1, 0, 0)), ErrInvalidBelt)
	assert.ErrorIs(t, c.AddBelt(NewBelt(3, -1, 1, 0, 0)), ErrInvalidBelt)
	assert.Equal(t, 1, c.NumBodies())
}

func TestBeltGeometry(t *testing.T) {
	const n = 33
	centre := physics.Vec2{X: 800, Y: 450}
	c := newCluster(t, centre, 1e12, 42)
	require.NoError(t, c.AddBelt(NewBelt(n, 1e6, 200, 15, 3)))

	ic := c.GenerateData()
	require.Len(t, ic.Positions, n+1)

	// Every body of the belt shares one radial offset...
	dist := func(i int) float64 {
		return float64(ic.Positions[i].Sub(centre).Len())
	}
	radius := dist(1)
	assert.NotEqual(t, 200.0, radius)
	for i := 1; i <= n; i++ {
		assert.InDelta(t, radius, dist(i), 1e-3, "body %d", i)
	}

	// ...and the angles step evenly through four full turns.
	step := 8 * math.Pi / float64(n-1)
	for i := 1; i <= n; i++ {
		want := math.Mod(float64(i-1)*step, 2*math.Pi)
		d := ic.Positions[i].Sub(centre)
		got := math.Atan2(float64(d.Y), float64(d.X))
		if got < 0 {
			got += 2 * math.Pi
		}
		diff := math.Abs(got - want)
		assert.True(t, diff < 1e-4 || math.Abs(diff-2*math.Pi) < 1e-4, "body %d: angle %g, want %g", i, got, want)
	}
}

func TestBeltVelocities(t *testing.T) {
	centreVel := physics.Vec2{X: 1, Y: -1}
	c, err := New(physics.Vec2{}, 1e9, centreVel, seeded(3))
	require.NoError(t, err)
	b := NewBelt(16, 10, 50, 0, 2)
	b.VelocityStdDev = 0.5
	require.NoError(t, c.AddBelt(b))

	ic := c.GenerateData()
	assert.Equal(t, centreVel, ic.Velocities[0])

	speed := float64(ic.Velocities[1].Sub(centreVel).Len())
	assert.GreaterOrEqual(t, speed, 2.0-1e-5)
	assert.LessOrEqual(t, speed, 2.5+1e-5)

	for i := 1; i < len(ic.Positions); i++ {
		rel := ic.Velocities[i].Sub(centreVel)
		assert.InDelta(t, speed, rel.Len(), 1e-4)
		// Tangential: the relative velocity is perpendicular to the radius.
		p := ic.Positions[i]
		assert.InDelta(t, 0, p.X*rel.X+p.Y*rel.Y, 1e-2)
		// Counter-clockwise orbit.
		assert.Positive(t, p.X*rel.Y-p.Y*rel.X)
	}
}

func TestBeltMasses(t *testing.T) {
	c := newCluster(t, physics.Vec2{}, 5, 9)
	require.NoError(t, c.AddBelt(NewBelt(200, 1e6, 100, 1, 1)))

	ic := c.GenerateData()
	distinct := map[float32]bool{}
	for _, m := range ic.Masses[1:] {
		assert.GreaterOrEqual(t, m, float32(0))
		assert.LessOrEqual(t, m, float32(1e6))
		distinct[m] = true
	}
	assert.Greater(t, len(distinct), 150)
}

func TestBeltIsReproducible(t *testing.T) {
	build := func() physics.InitialConditions {
		c := newCluster(t, physics.Vec2{X: 1, Y: 2}, 1e10, 77)
		require.NoError(t, c.AddBelt(NewBelt(50, 1e5, 100, 10, 1)))
		require.NoError(t, c.AddBelt(NewBelt(20, 1e4, 300, 5, 0.5)))
		return c.GenerateData()
	}
	assert.Equal(t, build(), build())
}

func TestSmallBelts(t *testing.T) {
	c := newCluster(t, physics.Vec2{X: 10, Y: 10}, 1, 1)
	require.NoError(t, c.AddBelt(NewBelt(0, 1, 5, 0, 1)))
	require.NoError(t, c.AddBelt(NewBelt(1, 1, 5, 0, 1)))

	ic := c.GenerateData()
	require.Len(t, ic.Positions, 2)
	assert.InDelta(t, 15, ic.Positions[1].X, 1e-5)
	assert.InDelta(t, 10, ic.Positions[1].Y, 1e-5)
}

func TestGenerateData(t *testing.T) {
	centre := physics.Vec2{X: 100, Y: 100}
	c := newCluster(t, centre, 8e9, 5)
	require.NoError(t, c.AddBelt(NewBelt(10, 1e3, 50, 1, 1)))
	require.NoError(t, c.AddBelt(NewBelt(5, 1e6, 80, 1, 1)))
	assert.Equal(t, 16, c.NumBodies())

	ic := c.GenerateData()
	require.Len(t, ic.Masses, 16)
	require.Len(t, ic.Radii, 16)
	require.Len(t, ic.Velocities, 16)

	assert.Equal(t, centre, ic.Positions[0])
	assert.Equal(t, float32(8e9), ic.Masses[0])
	// (8e9)^(1/3) = 2000
	assert.InDelta(t, 2, ic.Radii[0], 1e-6)
	for i, m := range ic.Masses {
		assert.InDelta(t, math.Cbrt(float64(m))/1000, ic.Radii[i], 1e-6)
	}

	// Belts keep insertion order: the second belt sits further out.
	assert.InDelta(t, 50, ic.Positions[1].Sub(centre).Len(), 5)
	assert.InDelta(t, 80, ic.Positions[11].Sub(centre).Len(), 5)

	var total, x, y float64
	for i, m := range ic.Masses {
		total += float64(m)
		x += float64(m) * float64(ic.Positions[i].X)
		y += float64(m) * float64(ic.Positions[i].Y)
	}
	assert.InDelta(t, total, c.TotalMass, 1)
	assert.InDelta(t, x/total, c.CenterOfMass.X, 1e-3)
	assert.InDelta(t, y/total, c.CenterOfMass.Y, 1e-3)

	s, err := ic.Store()
	require.NoError(t, err)
	assert.Equal(t, 16, s.Len())
}

func TestCombine(t *testing.T) {
	a := newCluster(t, physics.Vec2{X: 0, Y: 0}, 1e10, 1)
	require.NoError(t, a.AddBelt(NewBelt(30, 1e5, 100, 3, 1)))
	b := newCluster(t, physics.Vec2{X: 1000, Y: 500}, 3e10, 2)
	require.NoError(t, b.AddBelt(NewBelt(20, 1e5, 150, 3, 1)))

	da, db := a.GenerateData(), b.GenerateData()

	ab := Combine(a, b)
	assert.Equal(t, a.Centre, ab.Centre)
	assert.Equal(t, 52, ab.NumBodies())

	data := ab.GenerateData()
	require.Len(t, data.Positions, 52)
	assert.Equal(t, da.Positions, data.Positions[:31])
	assert.Equal(t, db.Positions, data.Positions[31:])
	assert.Equal(t, db.Masses, data.Masses[31:])
	assert.Equal(t, da.Radii, data.Radii[:31])

	// Coordinates are not re-centred.
	assert.Equal(t, physics.Vec2{X: 1000, Y: 500}, data.Positions[31])
	assert.InEpsilon(t, a.TotalMass+b.TotalMass, ab.TotalMass, 1e-9)
}

func TestCombineIsCommutativeInTotals(t *testing.T) {
	a := newCluster(t, physics.Vec2{X: -300, Y: 20}, 2e10, 10)
	require.NoError(t, a.AddBelt(NewBelt(40, 1e7, 120, 4, 2)))
	b := newCluster(t, physics.Vec2{X: 400, Y: -50}, 5e10, 11)
	require.NoError(t, b.AddBelt(NewBelt(60, 1e7, 90, 4, 2)))
	require.NoError(t, b.AddBelt(NewBelt(10, 1e8, 200, 4, 2)))

	ab := Combine(a, b)
	ba := Combine(b, a)

	assert.InEpsilon(t, ab.TotalMass, ba.TotalMass, 1e-12)
	assert.InDelta(t, ab.CenterOfMass.X, ba.CenterOfMass.X, 1e-3)
	assert.InDelta(t, ab.CenterOfMass.Y, ba.CenterOfMass.Y, 1e-3)
	assert.Equal(t, ab.NumBodies(), ba.NumBodies())
}

func TestCombineNests(t *testing.T) {
	a := newCluster(t, physics.Vec2{}, 1, 1)
	b := newCluster(t, physics.Vec2{X: 10}, 2, 2)
	c := newCluster(t, physics.Vec2{X: 20}, 3, 3)

	abc := Combine(Combine(a, b), c)
	data := abc.GenerateData()
	assert.Equal(t, []float32{1, 2, 3}, data.Masses)
	assert.Equal(t, 6.0, abc.TotalMass)
	assert.InDelta(t, (0*1+10*2+20*3)/6.0, abc.CenterOfMass.X, 1e-5)

	// A combined cluster still accepts belts, appended after the union.
	require.NoError(t, abc.AddBelt(NewBelt(4, 1, 5, 0, 0)))
	assert.Equal(t, 7, abc.NumBodies())
}

func TestBeltAfterCombineDoesNotInheritVelocity(t *testing.T) {
	a, err := New(physics.Vec2{X: 100, Y: 100}, 1e10, physics.Vec2{X: 5, Y: 0}, seeded(1))
	require.NoError(t, err)
	b := newCluster(t, physics.Vec2{X: 500}, 1e10, 2)

	ab := Combine(a, b)
	assert.Equal(t, physics.Vec2{}, ab.CentreVelocity)
	assert.Zero(t, ab.CentreMass)

	belt := NewBelt(1, 1, 10, 0, 0)
	belt.VelocityStdDev = 0
	require.NoError(t, ab.AddBelt(belt))

	data := ab.GenerateData()
	require.Len(t, data.Velocities, 3)
	assert.Equal(t, physics.Vec2{X: 5, Y: 0}, data.Velocities[0])
	assert.Equal(t, physics.Vec2{}, data.Velocities[2])
}

func TestCombineMasslessIsNaN(t *testing.T) {
	a := newCluster(t, physics.Vec2{}, 0, 1)
	b := newCluster(t, physics.Vec2{}, 0, 2)
	ab := Combine(a, b)
	assert.True(t, math.IsNaN(float64(ab.CenterOfMass.X)))
	assert.Zero(t, ab.TotalMass)
}
