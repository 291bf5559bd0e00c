package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

// Observer is told about every completed step. It runs on the stepping
// goroutine and must not keep the store.
type Observer interface {
	ObserveStep(stats physics.StepStats, elapsed time.Duration, store *physics.Store)
}

// --- Simulator ---

// Simulator owns the body store and the integrator that advances it.
// Readers such as a renderer must only look at the state between calls
// to Update.
type Simulator struct {
	Name  string
	Dt    float32
	Store *physics.Store

	integrator *physics.Integrator
	observers  []Observer
	steps      int
}

// NewSimulator builds a simulator from a loaded scenario.
func NewSimulator(sc *Scenario) (*Simulator, error) {
	cfg, err := sc.IntegratorConfig()
	if err != nil {
		return nil, err
	}
	ic, err := sc.Conditions(sc.Rand())
	if err != nil {
		return nil, err
	}
	store, err := ic.Store()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return New(sc.Name, store, cfg)
}

func New(name string, store *physics.Store, cfg physics.Config) (*Simulator, error) {
	in, err := physics.NewIntegrator(cfg)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		Name:       name,
		Dt:         cfg.Dt,
		Store:      store,
		integrator: in,
	}, nil
}

func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Simulator) Steps() int {
	return s.steps
}

// Forces from the last Update, indexed like the store.
func (s *Simulator) Forces() []physics.Vec2 {
	return s.integrator.Forces()
}

// PairForce is the current pull of body j on body i.
func (s *Simulator) PairForce(i, j int) physics.Vec2 {
	return s.integrator.PairForce(s.Store, i, j)
}

// --- Stepping ---

// Update advances the simulation by one step.
func (s *Simulator) Update() physics.StepStats {
	start := time.Now()
	stats := s.integrator.Step(s.Store)
	elapsed := time.Since(start)
	s.steps++

	if stats.Merges > 0 {
		logrus.WithFields(logrus.Fields{
			"step":   s.steps,
			"merges": stats.Merges,
			"live":   stats.Live,
		}).Debug("bodies merged")
	}
	for _, o := range s.observers {
		o.ObserveStep(stats, elapsed, s.Store)
	}
	return stats
}

// Run calls Update until maxSteps have been taken (no limit when maxSteps
// <= 0), a single body is left, or ctx is done. The context is only checked
// between steps.
func (s *Simulator) Run(ctx context.Context, maxSteps int) error {
	log := logrus.WithField("name", s.Name)
	log.WithFields(logrus.Fields{"bodies": s.Store.Len(), "live": s.Store.Live()}).Info("simulation started")

	for taken := 0; maxSteps <= 0 || taken < maxSteps; taken++ {
		if err := ctx.Err(); err != nil {
			log.WithField("step", s.steps).Info("simulation interrupted")
			return err
		}
		stats := s.Update()
		if stats.Live <= 1 {
			log.WithField("step", s.steps).Info("one body left")
			break
		}
	}

	log.WithFields(logrus.Fields{"step": s.steps, "live": s.Store.Live()}).Info("simulation finished")
	return nil
}

// --- Frames ---

// Frame is what a renderer needs from one step. Dead bodies have radius 0.
type Frame struct {
	Step      int
	Positions []physics.Vec2
	Radii     []float32
}

func (s *Simulator) Frame() Frame {
	f := Frame{
		Step:      s.steps,
		Positions: make([]physics.Vec2, s.Store.Len()),
		Radii:     make([]float32, s.Store.Len()),
	}
	copy(f.Positions, s.Store.Pos)
	copy(f.Radii, s.Store.Radius)
	return f
}

// Scaled maps positions from a width x height area into the unit square.
// Radii are not scaled.
func (f Frame) Scaled(width, height float32) Frame {
	out := Frame{
		Step:      f.Step,
		Positions: make([]physics.Vec2, len(f.Positions)),
		Radii:     f.Radii,
	}
	for i, p := range f.Positions {
		out.Positions[i] = physics.Vec2{X: p.X / width, Y: p.Y / height}
	}
	return out
}
