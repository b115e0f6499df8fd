package plant

import "github.com/san-kum/pidloop/internal/dynamo"

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// MassSpring is a damped oscillator positioned by an external force:
// m x'' = u - k x - c x'. State is [x, v].
type MassSpring struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewMassSpring() *MassSpring {
	return &MassSpring{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (s *MassSpring) StateDim() int { return 2 }

func (s *MassSpring) Derive(x dynamo.State, u float64, t float64) dynamo.State {
	pos, vel := x[0], x[1]
	acc := (u - s.Stiffness*pos - s.Damping*vel) / s.Mass
	return dynamo.State{vel, acc}
}

func (s *MassSpring) Measure(x dynamo.State) float64 { return x[0] }

func (s *MassSpring) InitialState(pv0 float64) dynamo.State {
	return dynamo.State{pv0, 0}
}

// Energy returns the mechanical energy stored in the spring and the mass.
func (s *MassSpring) Energy(x dynamo.State) float64 {
	return 0.5*s.Stiffness*x[0]*x[0] + 0.5*s.Mass*x[1]*x[1]
}

func (s *MassSpring) set(name string, v float64) bool {
	switch name {
	case "mass":
		s.Mass = v
	case "stiffness":
		s.Stiffness = v
	case "damping":
		s.Damping = v
	default:
		return false
	}
	return true
}
