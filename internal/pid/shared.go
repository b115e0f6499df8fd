package pid

import "sync"

// Shared guards a Controller so that telemetry goroutines can read its
// output while the control loop updates it.
type Shared struct {
	mu   sync.RWMutex
	ctrl Controller
}

func NewShared(kp, ki, kd float64) *Shared {
	return &Shared{ctrl: New(kp, ki, kd)}
}

func (s *Shared) Init(kp, ki, kd float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Init(kp, ki, kd)
}

func (s *Shared) Update(setpoint, pv, dt float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Update(setpoint, pv, dt)
}

func (s *Shared) Step(setpoint, pv, dt float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Step(setpoint, pv, dt)
}

func (s *Shared) SetParam(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SetParam(name, value)
}

func (s *Shared) Output() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.Output()
}

func (s *Shared) Diagnostics() Diagnostics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.Diagnostics()
}

// Snapshot returns a copy of the guarded controller.
func (s *Shared) Snapshot() Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl
}
