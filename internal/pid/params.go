package pid

import "fmt"

// Params returns the tunable gains for live adjustment.
func (c *Controller) Params() map[string]float64 {
	return map[string]float64{
		"Kp": c.Kp,
		"Ki": c.Ki,
		"Kd": c.Kd,
	}
}

// SetParam re-tunes one gain. History is kept, so the change takes effect
// on the next Update without a bump in the integral.
func (c *Controller) SetParam(name string, value float64) error {
	if !isFinite(value) {
		return fmt.Errorf("%w: %s=%g", ErrNonFiniteGain, name, value)
	}
	switch name {
	case "Kp":
		c.Kp = value
	case "Ki":
		c.Ki = value
	case "Kd":
		c.Kd = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
