// Package dynamo provides the primitives shared by the closed-loop bench.
//
// The bench plays the part of the real-time loop that drives a controller:
//
//   - [State]: plant state vector
//   - [Plant]: simulated process (dX/dt = f(X, u, t)) with a measurement
//   - [Integrator]: numerical stepper that advances a plant
//   - [Sample]: one control tick as seen by metrics and observers
//   - [Metric], [Observer]: consumers of samples
//
// # Example
//
//	p := plant.NewMotor()
//	r := loop.New(p, integrators.NewRK4(), &ctrl)
//	result, _ := r.Run(ctx, p.InitialState(0), cfg)
package dynamo
