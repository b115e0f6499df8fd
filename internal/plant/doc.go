// Package plant provides simulated processes for the loop bench.
//
// Each plant implements [dynamo.Plant]: it evolves under a single actuator
// input and exposes one measured process value.
//
//   - [Motor]: speed of a DC motor driven by a voltage-like command
//   - [Thermal]: temperature of a heated body losing heat to ambient
//   - [MassSpring]: position of a damped mass on a spring under a force
//
// Plants are looked up by name through [Get], which also applies parameter
// overrides from a bench file.
package plant
