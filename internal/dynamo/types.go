package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Plant is a simulated process driven by a single actuator input u.
type Plant interface {
	Derive(x State, u float64, t float64) State
	Measure(x State) float64
	StateDim() int
}

type Integrator interface {
	Step(p Plant, x State, u float64, t float64, dt float64) State
}

// Sample is one control tick: the time, the setpoint and measured value fed
// to the controller, and the output it returned.
type Sample struct {
	T        float64
	Dt       float64
	Setpoint float64
	PV       float64
	Output   float64
}

// ControlError is the deviation the controller saw on this tick.
func (s Sample) ControlError() float64 { return s.Setpoint - s.PV }

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s Sample)
}
