package physics

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// MergePolicy selects how the force & merge phase is scheduled.
type MergePolicy int

const (
	// Sequential walks i in ascending order on one goroutine. A merge made
	// while visiting i is already visible when later indices are visited.
	Sequential MergePolicy = iota
	// Parallel computes forces for all i concurrently against the state at
	// the start of the step and records overlapping pairs. The recorded
	// pairs are then merged on one goroutine in ascending (i, j) order, the
	// lower index absorbing the higher, after re-checking that both bodies
	// are alive and still overlap.
	Parallel
)

func (p MergePolicy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	}
	return fmt.Sprintf("MergePolicy(%d)", int(p))
}

func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "parallel":
		return Parallel, nil
	}
	return 0, fmt.Errorf("%w: unknown merge policy %q", ErrInvalidConfig, s)
}

// Config parametrises one Integrator.
type Config struct {
	G         float64
	Dt        float32
	Softening float32
	Policy    MergePolicy
	Workers   int // 0 means runtime.NumCPU()
}

func DefaultConfig() Config {
	return Config{
		G:         G,
		Dt:        1,
		Softening: 1e-5,
		Policy:    Sequential,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case c.Softening <= 0:
		return fmt.Errorf("%w: softening must be positive, got %g", ErrInvalidConfig, c.Softening)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case c.Policy != Sequential && c.Policy != Parallel:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// StepStats summarises one call to Step.
type StepStats struct {
	Merges int
	Live   int
}

// Integrator advances a Store by one time step per call. It keeps scratch
// buffers between calls and must not be shared between goroutines.
type Integrator struct {
	cfg      Config
	forces   []Vec2
	overlaps [][]int
}

func NewIntegrator(cfg Config) (*Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Integrator{cfg: cfg}, nil
}

func (in *Integrator) Config() Config {
	return in.cfg
}

// Forces returns the net force on every body computed by the last Step.
// The slice is reused by the next Step.
func (in *Integrator) Forces() []Vec2 {
	return in.forces
}

// PairForce is the force body j exerts on body i under this integrator's
// constants. It is zero when i == j, either body is dead, or the two overlap.
func (in *Integrator) PairForce(s *Store, i, j int) Vec2 {
	if i == j || s.Mass[i] == 0 || s.Mass[j] == 0 {
		return Vec2{}
	}
	f, _ := pull(s, i, j, in.cfg.G, in.cfg.Softening)
	return f
}

// Step runs the force & merge phase over every live pair and then, once all
// of its writes are done, integrates velocity and position of every live body:
//
//	a  = F*dt/m
//	v += a
//	p += v*dt + a*dt²/2
//
// The position update uses the already updated velocity.
func (in *Integrator) Step(s *Store) StepStats {
	n := s.Len()
	if cap(in.forces) < n {
		in.forces = make([]Vec2, n)
	}
	in.forces = in.forces[:n]

	var merges int
	switch in.cfg.Policy {
	case Parallel:
		merges = in.resolveParallel(s)
	default:
		merges = in.resolveSequential(s)
	}

	in.integrate(s)

	return StepStats{Merges: merges, Live: s.Live()}
}

func (in *Integrator) resolveSequential(s *Store) int {
	merges := 0
	for i := range s.Mass {
		in.forces[i] = Vec2{}
		for j := range s.Mass {
			if i == j || s.Mass[i] == 0 || s.Mass[j] == 0 {
				continue
			}
			f, overlap := pull(s, i, j, in.cfg.G, in.cfg.Softening)
			if overlap {
				s.absorb(i, j)
				merges++
				continue
			}
			in.forces[i] = in.forces[i].Add(f)
		}
	}
	return merges
}

func (in *Integrator) resolveParallel(s *Store) int {
	n := s.Len()
	if len(in.overlaps) < n {
		in.overlaps = make([][]int, n)
	}

	// Each i writes only forces[i] and overlaps[i]; the store is read only.
	in.parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			in.forces[i] = Vec2{}
			in.overlaps[i] = in.overlaps[i][:0]
			if s.Mass[i] == 0 {
				continue
			}
			for j := range s.Mass {
				if i == j || s.Mass[j] == 0 {
					continue
				}
				f, overlap := pull(s, i, j, in.cfg.G, in.cfg.Softening)
				if overlap {
					if i < j {
						in.overlaps[i] = append(in.overlaps[i], j)
					}
					continue
				}
				in.forces[i] = in.forces[i].Add(f)
			}
		}
	})

	merges := 0
	for i := 0; i < n; i++ {
		for _, j := range in.overlaps[i] {
			if s.Mass[i] == 0 || s.Mass[j] == 0 {
				continue
			}
			if _, overlap := pull(s, i, j, in.cfg.G, in.cfg.Softening); !overlap {
				continue
			}
			s.absorb(i, j)
			merges++
		}
	}
	return merges
}

func (in *Integrator) integrate(s *Store) {
	dt := in.cfg.Dt
	in.parallelFor(s.Len(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			m := s.Mass[i]
			if m == 0 {
				continue
			}
			a := in.forces[i].Mul(dt / m)
			s.Vel[i] = s.Vel[i].Add(a)
			s.Pos[i] = s.Pos[i].Add(s.Vel[i].Mul(dt)).Add(a.Mul(0.5 * dt * dt))
		}
	})
}

// parallelFor splits [0, n) into contiguous chunks, one per worker, and
// returns once every chunk is done.
func (in *Integrator) parallelFor(n int, fn func(lo, hi int)) {
	workers := min(in.cfg.Workers, n)
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
