package integrators

import "github.com/san-kum/pidloop/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(p dynamo.Plant, x dynamo.State, u float64, t float64, dt float64) dynamo.State {
	dx := p.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
