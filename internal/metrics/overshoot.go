package metrics

import (
	"math"

	"github.com/san-kum/pidloop/internal/dynamo"
)

// Overshoot is the peak excursion of the process value past the final
// setpoint, in percent of the step from the initial process value.
type Overshoot struct {
	started  bool
	initial  float64
	setpoint float64
	max      float64
	min      float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot_pct" }

func (m *Overshoot) Observe(s dynamo.Sample) {
	if !finite(s.PV) || !finite(s.Setpoint) {
		return
	}
	if !m.started {
		m.started = true
		m.initial = s.PV
		m.max = s.PV
		m.min = s.PV
	}
	m.setpoint = s.Setpoint
	m.max = math.Max(m.max, s.PV)
	m.min = math.Min(m.min, s.PV)
}

func (m *Overshoot) Value() float64 {
	step := m.setpoint - m.initial
	if !m.started || step == 0 {
		return 0
	}
	var over float64
	if step > 0 {
		over = (m.max - m.setpoint) / step
	} else {
		over = (m.setpoint - m.min) / -step
	}
	return math.Max(0, over*100)
}

func (m *Overshoot) Reset() {
	*m = Overshoot{}
}
