package pid

import "math"

// Limited wraps a Controller with output saturation and an integral clamp.
// A zero IntegralLimit disables the clamp; OutMin >= OutMax disables
// saturation.
type Limited struct {
	Controller

	OutMin        float64
	OutMax        float64
	IntegralLimit float64

	saturated bool
}

// NewLimited returns a limited controller with initialized gains.
func NewLimited(kp, ki, kd, outMin, outMax, integralLimit float64) *Limited {
	return &Limited{
		Controller:    New(kp, ki, kd),
		OutMin:        outMin,
		OutMax:        outMax,
		IntegralLimit: integralLimit,
	}
}

// Update runs the core step, then clamps the integral and the output.
// saturated reports whether the output was clamped.
func (l *Limited) Update(setpoint, pv, dt float64) (out float64, saturated bool) {
	out = l.Controller.Update(setpoint, pv, dt)
	return l.apply(out)
}

// Step is Update with the core's error reporting.
func (l *Limited) Step(setpoint, pv, dt float64) (float64, error) {
	out, err := l.Controller.Step(setpoint, pv, dt)
	out, _ = l.apply(out)
	return out, err
}

// Saturated reports whether the last output was clamped.
func (l *Limited) Saturated() bool { return l.saturated }

func (l *Limited) apply(out float64) (float64, bool) {
	c := &l.Controller

	if l.IntegralLimit > 0 && isFinite(c.integral) {
		before := c.integral
		c.integral = math.Max(-l.IntegralLimit, math.Min(l.IntegralLimit, c.integral))
		if before != c.integral {
			out -= c.Ki * (before - c.integral)
		}
	}

	l.saturated = false
	if l.OutMin < l.OutMax {
		switch {
		case out > l.OutMax:
			out = l.OutMax
			l.saturated = true
		case out < l.OutMin:
			out = l.OutMin
			l.saturated = true
		}
	}

	c.output = out
	return out, l.saturated
}
