package physics

import (
	"fmt"
	"math/rand/v2"
)

// InitialConditions is the record both the cluster generator and scenario
// files produce. Any nil field is filled by Fill.
type InitialConditions struct {
	Positions  []Vec2    `json:"positions,omitempty"`
	Masses     []float32 `json:"masses,omitempty"`
	Radii      []float32 `json:"radii,omitempty"`
	Velocities []Vec2    `json:"velocities,omitempty"`
}

// Defaults used when a field of InitialConditions is missing.
type Defaults struct {
	Bodies        int
	Width, Height float32
}

const (
	DefaultMassScale   = 1e10
	DefaultRadiusScale = 5
)

// Len is the body count implied by the first supplied field, or 0.
func (ic InitialConditions) Len() int {
	switch {
	case ic.Positions != nil:
		return len(ic.Positions)
	case ic.Masses != nil:
		return len(ic.Masses)
	case ic.Radii != nil:
		return len(ic.Radii)
	case ic.Velocities != nil:
		return len(ic.Velocities)
	}
	return 0
}

// Fill returns a copy with every missing field generated from d:
// positions uniform in [0,Width)x[0,Height), masses uniform in [0,1e10),
// radii uniform in [0,5) and zero velocities. Supplied fields are kept as is,
// so lengths are checked later by Store.
func (ic InitialConditions) Fill(d Defaults, rng *rand.Rand) (InitialConditions, error) {
	n := ic.Len()
	if n == 0 {
		n = d.Bodies
	}
	if n <= 0 {
		return ic, fmt.Errorf("%w: got %d", ErrNoBodies, n)
	}

	if ic.Positions == nil {
		ic.Positions = make([]Vec2, n)
		for i := range ic.Positions {
			ic.Positions[i] = Vec2{rng.Float32() * d.Width, rng.Float32() * d.Height}
		}
	}
	if ic.Masses == nil {
		ic.Masses = make([]float32, n)
		for i := range ic.Masses {
			ic.Masses[i] = rng.Float32() * DefaultMassScale
		}
	}
	if ic.Radii == nil {
		ic.Radii = make([]float32, n)
		for i := range ic.Radii {
			ic.Radii[i] = rng.Float32() * DefaultRadiusScale
		}
	}
	if ic.Velocities == nil {
		ic.Velocities = make([]Vec2, n)
	}
	return ic, nil
}

// Store builds the simulation state from fully populated conditions.
func (ic InitialConditions) Store() (*Store, error) {
	return NewStore(ic.Positions, ic.Velocities, ic.Masses, ic.Radii)
}
