package plant

import "github.com/san-kum/pidloop/internal/dynamo"

const (
	DefaultInertia  = 0.05
	DefaultFriction = 0.1
	DefaultGain     = 1.0
)

// Motor is a first-order speed model: J dω/dt = K u - b ω.
type Motor struct {
	Inertia  float64
	Friction float64
	Gain     float64
}

func NewMotor() *Motor {
	return &Motor{
		Inertia:  DefaultInertia,
		Friction: DefaultFriction,
		Gain:     DefaultGain,
	}
}

func (m *Motor) StateDim() int { return 1 }

func (m *Motor) Derive(x dynamo.State, u float64, t float64) dynamo.State {
	omega := x[0]
	return dynamo.State{(m.Gain*u - m.Friction*omega) / m.Inertia}
}

func (m *Motor) Measure(x dynamo.State) float64 { return x[0] }

func (m *Motor) InitialState(pv0 float64) dynamo.State {
	return dynamo.State{pv0}
}

func (m *Motor) set(name string, v float64) bool {
	switch name {
	case "inertia":
		m.Inertia = v
	case "friction":
		m.Friction = v
	case "gain":
		m.Gain = v
	default:
		return false
	}
	return true
}
