package physics

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// --- 2D vector ---
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.X)*float64(v.X) + float64(v.Y)*float64(v.Y)))
}

func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{0, 0}
	}
	return Vec2{v.X / l, v.Y / l}
}

// MarshalJSON writes the vector as a two element array, the shape scenario files use.
func (v Vec2) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float32{v.X, v.Y})
}

func (v *Vec2) UnmarshalJSON(data []byte) error {
	var xy [2]float32
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("vec2: %w", err)
	}
	v.X, v.Y = xy[0], xy[1]
	return nil
}

// --- Body ---
type Body struct {
	Pos    Vec2
	Vel    Vec2
	Mass   float32
	Radius float32
}

// Alive reports whether the body still takes part in the simulation.
func (b Body) Alive() bool {
	return b.Mass != 0
}

// --- Store ---

// Store holds the simulation state as parallel slices indexed by body.
// Slots are never removed: a merged-away body keeps its index with zero
// mass and radius for the rest of the run.
type Store struct {
	Pos    []Vec2
	Vel    []Vec2
	Mass   []float32
	Radius []float32
}

// NewStore copies the given slices into a new Store. All four slices must
// have the same, non-zero length.
func NewStore(pos, vel []Vec2, mass, radius []float32) (*Store, error) {
	n := len(pos)
	if n != len(vel) || n != len(mass) || n != len(radius) {
		return nil, fmt.Errorf("%w: positions=%d velocities=%d masses=%d radii=%d",
			ErrLengthMismatch, len(pos), len(vel), len(mass), len(radius))
	}
	if n == 0 {
		return nil, ErrEmpty
	}
	for i, m := range mass {
		if m < 0 || math.IsNaN(float64(m)) {
			return nil, fmt.Errorf("%w: body %d has mass %g", ErrInvalidMass, i, m)
		}
	}

	s := &Store{
		Pos:    make([]Vec2, n),
		Vel:    make([]Vec2, n),
		Mass:   make([]float32, n),
		Radius: make([]float32, n),
	}
	copy(s.Pos, pos)
	copy(s.Vel, vel)
	copy(s.Mass, mass)
	copy(s.Radius, radius)
	return s, nil
}

func (s *Store) Len() int {
	return len(s.Mass)
}

func (s *Store) Body(i int) Body {
	return Body{Pos: s.Pos[i], Vel: s.Vel[i], Mass: s.Mass[i], Radius: s.Radius[i]}
}

// Live counts bodies with non-zero mass.
func (s *Store) Live() int {
	n := 0
	for _, m := range s.Mass {
		if m != 0 {
			n++
		}
	}
	return n
}

func (s *Store) TotalMass() float64 {
	var total float64
	for _, m := range s.Mass {
		total += float64(m)
	}
	return total
}

// CenterOfMass is NaN when every body is dead.
func (s *Store) CenterOfMass() (x, y float64) {
	var total float64
	for i, m := range s.Mass {
		total += float64(m)
		x += float64(m) * float64(s.Pos[i].X)
		y += float64(m) * float64(s.Pos[i].Y)
	}
	return x / total, y / total
}

func (s *Store) Momentum() (px, py float64) {
	for i, m := range s.Mass {
		px += float64(m) * float64(s.Vel[i].X)
		py += float64(m) * float64(s.Vel[i].Y)
	}
	return px, py
}

func (s *Store) Clone() *Store {
	return &Store{
		Pos:    slices.Clone(s.Pos),
		Vel:    slices.Clone(s.Vel),
		Mass:   slices.Clone(s.Mass),
		Radius: slices.Clone(s.Radius),
	}
}

// absorb merges body j into body i. Position and velocity become the mass
// weighted averages, the radius keeps the combined volume and j is left dead.
func (s *Store) absorb(i, j int) {
	mi, mj := s.Mass[i], s.Mass[j]
	total := mi + mj

	s.Vel[i] = weighted(s.Vel[i], mi, s.Vel[j], mj, total)
	s.Pos[i] = weighted(s.Pos[i], mi, s.Pos[j], mj, total)

	ri, rj := float64(s.Radius[i]), float64(s.Radius[j])
	s.Radius[i] = float32(math.Cbrt(ri*ri*ri + rj*rj*rj))
	s.Mass[i] = total

	s.Mass[j] = 0
	s.Radius[j] = 0
}

func weighted(a Vec2, ma float32, b Vec2, mb float32, total float32) Vec2 {
	return Vec2{(ma*a.X + mb*b.X) / total, (ma*a.Y + mb*b.Y) / total}
}
