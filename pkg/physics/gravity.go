package physics

const G = 6.67430e-11 // m^3 kg^-1 s^-2

// gravity is the magnitude of the attraction between two masses at distance r.
// Evaluated in float64 so that m1*m2 cannot overflow float32 for heavy bodies.
func gravity(g float64, m1, m2, r float32) float32 {
	d := float64(r)
	return float32(g * float64(m1) * float64(m2) / (d * d))
}

// pull returns the force j exerts on i, or overlap=true when the two discs
// touch and the pair should merge instead. The distance is floored at
// softening so coincident bodies never divide by zero.
func pull(s *Store, i, j int, g float64, softening float32) (f Vec2, overlap bool) {
	r := s.Pos[j].Sub(s.Pos[i])
	rNorm := max(r.Len(), softening)

	if s.Radius[i]+s.Radius[j] <= rNorm {
		return r.Normalize().Mul(gravity(g, s.Mass[i], s.Mass[j], rNorm)), false
	}
	return Vec2{}, true
}
