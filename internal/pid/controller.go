package pid

import (
	"fmt"
	"math"
)

// Controller is a single-loop PID controller. The zero value is usable and
// behaves like a controller initialized with all gains zero.
//
// A Controller is not safe for concurrent use; see [Shared].
type Controller struct {
	Kp float64
	Ki float64
	Kd float64

	integral float64
	preError float64
	output   float64
}

// New returns a controller initialized with the given gains.
func New(kp, ki, kd float64) Controller {
	var c Controller
	c.Init(kp, ki, kd)
	return c
}

// Init sets the gains and clears the integral, previous error and output.
func (c *Controller) Init(kp, ki, kd float64) {
	c.Kp = kp
	c.Ki = ki
	c.Kd = kd
	c.Reset()
}

// Reset clears the history and keeps the gains.
func (c *Controller) Reset() {
	c.integral = 0
	c.preError = 0
	c.output = 0
}

// Update runs one control step and returns the new output.
//
// If dt is not a positive finite number the step is proportional only and
// the integral and previous error are left as they were.
func (c *Controller) Update(setpoint, pv, dt float64) float64 {
	err := setpoint - pv

	if !validDt(dt) {
		c.output = c.Kp * err
		return c.output
	}

	c.integral += err * dt
	derivative := (err - c.preError) / dt

	c.output = c.Kp*err + c.Ki*c.integral + c.Kd*derivative
	c.preError = err

	return c.output
}

// Step is Update with error reporting. The output is always stored and
// returned; the error is ErrInvalidDt when dt was rejected and ErrNonFinite
// when the output is NaN or Inf.
func (c *Controller) Step(setpoint, pv, dt float64) (float64, error) {
	out := c.Update(setpoint, pv, dt)
	if !isFinite(out) {
		return out, fmt.Errorf("%w: setpoint=%g pv=%g dt=%g", ErrNonFinite, setpoint, pv, dt)
	}
	if !validDt(dt) {
		return out, fmt.Errorf("%w: %g", ErrInvalidDt, dt)
	}
	return out, nil
}

func (c *Controller) Integral() float64 { return c.integral }
func (c *Controller) PreError() float64 { return c.preError }
func (c *Controller) Output() float64   { return c.output }

// Healthy reports whether the last output is finite and safe to apply.
func (c *Controller) Healthy() bool { return isFinite(c.output) }

// Diagnostics is a snapshot of the controller's internal terms.
type Diagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
	Output   float64
}

func (c *Controller) Diagnostics() Diagnostics {
	return Diagnostics{
		Error:    c.preError,
		Integral: c.integral,
		P:        c.Kp * c.preError,
		I:        c.Ki * c.integral,
		Output:   c.output,
	}
}

func validDt(dt float64) bool {
	return dt > 0 && !math.IsInf(dt, 1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
