// Package loop runs a controller against a simulated plant.
//
// A [Runner] stands in for the real-time loop that owns a controller: on
// every tick it measures the plant, calls the controller once with the
// current setpoint and the tick's dt, and applies the returned output to the
// plant. It is the only caller of its controller, so calls are serialized.
//
// When the controller reports a non-finite output the runner disables the
// actuator for that tick and records a fault; with StopOnFault it halts.
package loop
