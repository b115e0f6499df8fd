package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/san-kum/pidloop/internal/dynamo"
	"github.com/san-kum/pidloop/internal/pid"
)

// Stepper is a controller driven once per tick. It is satisfied by
// *pid.Controller, *pid.Limited and *pid.Shared.
type Stepper interface {
	Step(setpoint, pv, dt float64) (float64, error)
}

type Runner struct {
	plant      dynamo.Plant
	integrator dynamo.Integrator
	ctrl       Stepper
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        *slog.Logger
}

func New(plant dynamo.Plant, integrator dynamo.Integrator, ctrl Stepper) *Runner {
	return &Runner{
		plant:      plant,
		integrator: integrator,
		ctrl:       ctrl,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        slog.Default(),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	r.log = l
	return r
}

// Run drives the loop for cfg.Duration. On cancellation it returns the
// samples gathered so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	sess, err := r.Start(x0, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]dynamo.Sample, 0, sess.steps),
		Metrics: make(map[string]float64),
		Faults:  make([]error, 0),
	}

	for !sess.Done() {
		select {
		case <-ctx.Done():
			result.Ticks = sess.tick
			return result, ctx.Err()
		default:
		}

		s, err := sess.Tick()
		result.Samples = append(result.Samples, s)
		if err != nil {
			result.Faults = append(result.Faults, err)
		}
	}

	result.Ticks = sess.tick
	result.Halted = sess.halted
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	r.log.Debug("run complete",
		slog.Int("ticks", result.Ticks),
		slog.Int("faults", len(result.Faults)),
		slog.Bool("halted", result.Halted))

	return result, nil
}

// Start validates cfg, resets the runner's metrics and returns a session
// that advances one tick per call. A runner drives one session at a time.
func (r *Runner) Start(x0 dynamo.State, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != r.plant.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d values, plant needs %d",
			dynamo.ErrInvalidConfig, len(x0), r.plant.StateDim())
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	return &Session{
		r:         r,
		cfg:       cfg,
		setpoints: cfg.Setpoints.Sorted(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		x:         x0.Clone(),
		steps:     int(math.Round(cfg.Duration / cfg.Dt)),
	}, nil
}

// Session is a run in progress.
type Session struct {
	r         *Runner
	cfg       Config
	setpoints Schedule
	rng       *rand.Rand
	override  *float64

	x      dynamo.State
	t      float64
	tick   int
	steps  int
	halted bool
}

func (s *Session) Done() bool          { return s.halted || s.tick >= s.steps }
func (s *Session) Time() float64       { return s.t }
func (s *Session) State() dynamo.State { return s.x.Clone() }

// Endless lets the session run past cfg.Duration until it halts.
func (s *Session) Endless() { s.steps = math.MaxInt }

// Override replaces the schedule with a fixed setpoint.
func (s *Session) Override(v float64) { s.override = &v }

// Setpoint returns the setpoint the next tick will use.
func (s *Session) Setpoint() float64 {
	if s.override != nil {
		return *s.override
	}
	return s.setpoints.At(s.t)
}

// Tick runs one control period. The returned error is a *dynamo.LoopError
// describing a controller or plant fault; the sample is always filled in.
func (s *Session) Tick() (dynamo.Sample, error) {
	r := s.r
	tick := s.tick
	s.tick++

	dt := s.cfg.Dt
	if s.cfg.Jitter > 0 {
		dt *= 1 + s.cfg.Jitter*(2*s.rng.Float64()-1)
	}

	sp := s.Setpoint()
	pv := r.plant.Measure(s.x)
	out, ctrlErr := r.ctrl.Step(sp, pv, dt)

	sample := dynamo.Sample{T: s.t, Dt: dt, Setpoint: sp, PV: pv, Output: out}
	for _, m := range r.metrics {
		m.Observe(sample)
	}
	for _, o := range r.observers {
		o.OnTick(sample)
	}

	var fault error
	applied := out
	if ctrlErr != nil {
		fault = s.fault(tick, ctrlErr)
		if errors.Is(ctrlErr, pid.ErrNonFinite) {
			applied = 0
			if s.cfg.StopOnFault {
				s.halted = true
				return sample, fault
			}
		}
	}

	x := r.integrator.Step(r.plant, s.x, applied, s.t, dt)

	switch {
	case !x.IsValid():
		s.halted = true
		return sample, s.fault(tick, dynamo.ErrInvalidState)
	case s.cfg.DivergeLimit > 0 && math.Abs(r.plant.Measure(x)) > s.cfg.DivergeLimit:
		s.halted = true
		return sample, s.fault(tick, dynamo.ErrUnstable)
	}

	s.x = x
	s.t += dt
	return sample, fault
}

func (s *Session) fault(tick int, err error) error {
	lerr := &dynamo.LoopError{Tick: tick, Time: s.t, Wrapped: err}
	s.r.log.Warn("loop fault",
		slog.Int("tick", tick),
		slog.Float64("t", s.t),
		slog.Any("error", err))
	return lerr
}
