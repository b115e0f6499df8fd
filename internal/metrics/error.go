package metrics

import (
	"math"

	"github.com/san-kum/pidloop/internal/dynamo"
)

// IAE is the integral of absolute error over the run.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s dynamo.Sample) {
	e := math.Abs(s.ControlError())
	if finite(e) && s.Dt > 0 {
		m.sum += e * s.Dt
	}
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// SteadyStateError is the mean absolute error over the last window samples.
type SteadyStateError struct {
	window []float64
	next   int
	filled bool
}

func NewSteadyStateError(window int) *SteadyStateError {
	if window < 1 {
		window = 1
	}
	return &SteadyStateError{window: make([]float64, window)}
}

func (m *SteadyStateError) Name() string { return "steady_state_error" }

func (m *SteadyStateError) Observe(s dynamo.Sample) {
	e := math.Abs(s.ControlError())
	if !finite(e) {
		return
	}
	m.window[m.next] = e
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.filled = true
	}
}

func (m *SteadyStateError) Value() float64 {
	n := m.next
	if m.filled {
		n = len(m.window)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.window[:n] {
		sum += v
	}
	return sum / float64(n)
}

func (m *SteadyStateError) Reset() {
	for i := range m.window {
		m.window[i] = 0
	}
	m.next = 0
	m.filled = false
}
