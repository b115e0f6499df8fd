package plant

import "github.com/san-kum/pidloop/internal/dynamo"

const (
	DefaultCapacitance = 50.0
	DefaultResistance  = 0.5
	DefaultAmbient     = 20.0
)

// Thermal is a lumped heat model: C dT/dt = u - (T - Ambient)/R, where u is
// heater power. Negative u models active cooling.
type Thermal struct {
	Capacitance float64
	Resistance  float64
	Ambient     float64
}

func NewThermal() *Thermal {
	return &Thermal{
		Capacitance: DefaultCapacitance,
		Resistance:  DefaultResistance,
		Ambient:     DefaultAmbient,
	}
}

func (h *Thermal) StateDim() int { return 1 }

func (h *Thermal) Derive(x dynamo.State, u float64, t float64) dynamo.State {
	loss := (x[0] - h.Ambient) / h.Resistance
	return dynamo.State{(u - loss) / h.Capacitance}
}

func (h *Thermal) Measure(x dynamo.State) float64 { return x[0] }

func (h *Thermal) InitialState(pv0 float64) dynamo.State {
	return dynamo.State{pv0}
}

func (h *Thermal) set(name string, v float64) bool {
	switch name {
	case "capacitance":
		h.Capacitance = v
	case "resistance":
		h.Resistance = v
	case "ambient":
		h.Ambient = v
	default:
		return false
	}
	return true
}
