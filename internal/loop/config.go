package loop

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidloop/internal/dynamo"
)

// Step is a setpoint change taking effect at time At.
type Step struct {
	At    float64
	Value float64
}

// Schedule is a piecewise-constant setpoint profile.
type Schedule []Step

// Constant returns a schedule holding v from t = 0.
func Constant(v float64) Schedule {
	return Schedule{{At: 0, Value: v}}
}

// At returns the value of the last step with At <= t, or 0 before the first.
func (s Schedule) At(t float64) float64 {
	v := 0.0
	for _, st := range s {
		if st.At > t {
			break
		}
		v = st.Value
	}
	return v
}

// Sorted returns a copy ordered by At.
func (s Schedule) Sorted() Schedule {
	c := make(Schedule, len(s))
	copy(c, s)
	sort.SliceStable(c, func(i, j int) bool { return c[i].At < c[j].At })
	return c
}

// Final returns the value the schedule settles on.
func (s Schedule) Final() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.Sorted()[len(s)-1].Value
}

type Config struct {
	Dt       float64
	Duration float64
	// Jitter varies each tick's dt uniformly in dt*(1±Jitter), as a loop
	// that measures its sampling period would see it.
	Jitter       float64
	Seed         int64
	Setpoints    Schedule
	StopOnFault  bool
	DivergeLimit float64
}

func DefaultConfig() Config {
	return Config{
		Dt:           0.01,
		Duration:     10.0,
		Setpoints:    Constant(1.0),
		StopOnFault:  true,
		DivergeLimit: 1e6,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidConfig, c.Duration)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		return fmt.Errorf("%w: jitter must be in [0, 1), got %f", dynamo.ErrInvalidConfig, c.Jitter)
	}
	if c.DivergeLimit < 0 {
		return fmt.Errorf("%w: diverge limit must not be negative", dynamo.ErrInvalidConfig)
	}
	return nil
}

type Result struct {
	Samples []dynamo.Sample
	Metrics map[string]float64
	Faults  []error
	Ticks   int
	Halted  bool
}
