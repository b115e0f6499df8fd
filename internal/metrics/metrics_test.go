package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pidloop/internal/dynamo"
)

func feed(m dynamo.Metric, samples ...dynamo.Sample) {
	for _, s := range samples {
		m.Observe(s)
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	feed(m,
		dynamo.Sample{Output: 2},
		dynamo.Sample{Output: -4},
		dynamo.Sample{Output: math.NaN()},
	)

	if m.Value() != 3 {
		t.Errorf("expected 3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestIAE(t *testing.T) {
	m := NewIAE()
	feed(m,
		dynamo.Sample{Dt: 0.5, Setpoint: 1, PV: 0},
		dynamo.Sample{Dt: 0.5, Setpoint: 1, PV: 2},
		dynamo.Sample{Dt: 0, Setpoint: 1, PV: 5},
	)

	if math.Abs(m.Value()-1.0) > 1e-12 {
		t.Errorf("expected 1.0, got %f", m.Value())
	}
}

func TestOvershoot(t *testing.T) {
	tests := []struct {
		name string
		pvs  []float64
		sp   float64
		want float64
	}{
		{"rising", []float64{0, 0.5, 1.2, 1.0}, 1, 20},
		{"falling", []float64{10, 4, 1, 2}, 2, 12.5},
		{"no overshoot", []float64{0, 0.5, 0.9}, 1, 0},
		{"no step", []float64{1, 1}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewOvershoot()
			for _, pv := range tt.pvs {
				m.Observe(dynamo.Sample{Setpoint: tt.sp, PV: pv})
			}
			if math.Abs(m.Value()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, m.Value())
			}
		})
	}
}

func TestSteadyStateErrorWindow(t *testing.T) {
	m := NewSteadyStateError(2)
	if m.Value() != 0 {
		t.Error("expected zero before any sample")
	}

	feed(m,
		dynamo.Sample{Setpoint: 10, PV: 0},
		dynamo.Sample{Setpoint: 1, PV: 0},
	)
	if m.Value() != 5.5 {
		t.Errorf("expected 5.5, got %f", m.Value())
	}

	feed(m, dynamo.Sample{Setpoint: 1, PV: 2})
	if m.Value() != 1 {
		t.Errorf("expected window to drop the oldest sample, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDefaults(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 metrics, got %d", len(seen))
	}
}
