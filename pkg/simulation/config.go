package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/cluster"
	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

var ErrInvalidScenario = errors.New("simulation: invalid scenario")

// --- Scenario file ---

// Scenario is the on-disk description of a run. YAML and JSON are both accepted.
// Bodies come from Clusters when any are listed, otherwise from
// InitialConditions with missing fields generated from Bodies, Width and Height.
type Scenario struct {
	Name      string  `json:"name"`
	Dt        float32 `json:"dt,omitempty"`
	Softening float32 `json:"softening,omitempty"`
	Policy    string  `json:"policy,omitempty"`
	Workers   int     `json:"workers,omitempty"`

	Width  float32 `json:"width,omitempty"`
	Height float32 `json:"height,omitempty"`
	Bodies int     `json:"bodies,omitempty"`
	Seed   *uint64 `json:"seed,omitempty"`

	// AutoOrbit gives every body that starts at rest a circular velocity
	// around body 0.
	AutoOrbit bool `json:"auto_orbit,omitempty"`

	InitialConditions *physics.InitialConditions `json:"initial_conditions,omitempty"`
	Clusters          []ClusterConfig            `json:"clusters,omitempty"`
}

type ClusterConfig struct {
	Centre         physics.Vec2 `json:"centre"`
	CentreMass     float64      `json:"centre_mass"`
	CentreVelocity physics.Vec2 `json:"centre_velocity,omitempty"`
	Belts          []BeltConfig `json:"belts,omitempty"`
}

type BeltConfig struct {
	Count              int      `json:"count"`
	AvgMass            float64  `json:"avg_mass"`
	DistanceFromCentre float64  `json:"distance_from_centre"`
	StdDev             float64  `json:"std_dev"`
	AvgVelocity        float64  `json:"avg_velocity"`
	VelocityStdDev     *float64 `json:"velocity_std_dev,omitempty"`
}

const (
	DefaultWidth  = 1600
	DefaultHeight = 900
	DefaultBodies = 2
)

// --- Loading ---

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.UnmarshalStrict(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	sc.applyDefaults()
	if _, err := sc.IntegratorConfig(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) applyDefaults() {
	d := physics.DefaultConfig()
	if sc.Dt == 0 {
		sc.Dt = d.Dt
	}
	if sc.Softening == 0 {
		sc.Softening = d.Softening
	}
	if sc.Width == 0 {
		sc.Width = DefaultWidth
	}
	if sc.Height == 0 {
		sc.Height = DefaultHeight
	}
	if sc.Bodies == 0 {
		sc.Bodies = DefaultBodies
	}
}

func (sc *Scenario) IntegratorConfig() (physics.Config, error) {
	policy, err := physics.ParseMergePolicy(sc.Policy)
	if err != nil {
		return physics.Config{}, err
	}
	cfg := physics.DefaultConfig()
	cfg.Dt = sc.Dt
	cfg.Softening = sc.Softening
	cfg.Policy = policy
	cfg.Workers = sc.Workers
	if err := cfg.Validate(); err != nil {
		return physics.Config{}, err
	}
	return cfg, nil
}

// Rand returns the generator for this scenario, seeded from Seed when set.
func (sc *Scenario) Rand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	if sc.Seed != nil {
		seed = *sc.Seed
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Conditions resolves the scenario into fully populated initial conditions,
// drawing every random value from rng.
func (sc *Scenario) Conditions(rng *rand.Rand) (physics.InitialConditions, error) {
	var ic physics.InitialConditions
	if len(sc.Clusters) > 0 {
		c, err := sc.buildClusters(rng)
		if err != nil {
			return ic, err
		}
		ic = c.GenerateData()
	} else {
		if sc.InitialConditions != nil {
			ic = *sc.InitialConditions
		}
		var err error
		ic, err = ic.Fill(physics.Defaults{Bodies: sc.Bodies, Width: sc.Width, Height: sc.Height}, rng)
		if err != nil {
			return ic, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
	}

	if sc.AutoOrbit {
		ic.Velocities = slices.Clone(ic.Velocities)
		SetOrbitalVelocities(ic, physics.G)
	}
	return ic, nil
}

// buildClusters generates every configured cluster and folds them into one,
// in file order.
func (sc *Scenario) buildClusters(rng *rand.Rand) (*cluster.Cluster, error) {
	var out *cluster.Cluster
	for i, cc := range sc.Clusters {
		c, err := cluster.New(cc.Centre, cc.CentreMass, cc.CentreVelocity, rng)
		if err != nil {
			return nil, fmt.Errorf("%w: cluster %d: %w", ErrInvalidScenario, i, err)
		}
		for j, bc := range cc.Belts {
			b := cluster.NewBelt(bc.Count, bc.AvgMass, bc.DistanceFromCentre, bc.StdDev, bc.AvgVelocity)
			if bc.VelocityStdDev != nil {
				b.VelocityStdDev = *bc.VelocityStdDev
			}
			if err := c.AddBelt(b); err != nil {
				return nil, fmt.Errorf("%w: cluster %d belt %d: %w", ErrInvalidScenario, i, j, err)
			}
		}
		if out == nil {
			out = c
			continue
		}
		out = cluster.Combine(out, c)
	}
	return out, nil
}

// SetOrbitalVelocities puts every body at rest on a circular orbit around
// body 0, counter-clockwise. Bodies already moving, or sitting on top of
// body 0, are left alone.
func SetOrbitalVelocities(ic physics.InitialConditions, g float64) {
	if len(ic.Positions) == 0 || len(ic.Velocities) != len(ic.Positions) || len(ic.Masses) == 0 {
		return
	}
	central := ic.Positions[0]
	centralMass := float64(ic.Masses[0])
	for i := 1; i < len(ic.Positions); i++ {
		if ic.Velocities[i] != (physics.Vec2{}) {
			continue
		}

		d := ic.Positions[i].Sub(central)
		r := float64(d.Len())
		if r == 0 {
			continue
		}
		v := math.Sqrt(g * centralMass / r)
		// perpendicular to the radius vector
		ic.Velocities[i] = physics.Vec2{X: float32(-float64(d.Y) / r * v), Y: float32(float64(d.X) / r * v)}
	}
}
