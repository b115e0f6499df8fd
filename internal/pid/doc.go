// Package pid implements a discrete-time PID controller for a single control loop.
//
// A [Controller] is a plain value: it holds its gains and running history and
// shares nothing with other instances. The owning loop calls [Controller.Init]
// once and then [Controller.Update] once per sampling period:
//
//	var c pid.Controller
//	c.Init(1.2, 0.4, 0.05)
//	for {
//	    out := c.Update(setpoint, readSensor(), dt)
//	    if !c.Healthy() {
//	        // disable the actuator
//	    }
//	}
//
// Update uses rectangular integration and a backward-difference derivative.
// A non-positive or non-finite dt turns the tick into a proportional-only
// tick: no integration, no derivative, history untouched. [Controller.Step]
// runs the same computation and reports that case, and any non-finite
// output, as an error.
//
// Output saturation and integral anti-windup are not part of the controller.
// [Limited] layers them on top for callers that need them, and [Shared]
// guards a controller whose output is read from other goroutines.
package pid
