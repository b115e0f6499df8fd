package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidloop/internal/loop"
	"github.com/san-kum/pidloop/internal/pid"
	"github.com/san-kum/pidloop/internal/plant"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultSetpoint = 5.0
	DefaultKp       = 0.5
	DefaultKi       = 1.0
	DefaultKd       = 0.0
)

// Config describes one bench run: the plant, the loop timing, the setpoint
// profile and the gains handed to the controller for that run.
type Config struct {
	Plant       string             `yaml:"plant"`
	PlantParams map[string]float64 `yaml:"plant_params,omitempty"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Jitter      float64            `yaml:"jitter"`
	Seed        int64              `yaml:"seed"`
	InitialPV   float64            `yaml:"initial_pv"`
	Setpoints   []SetpointStep     `yaml:"setpoints"`
	Gains       GainsConfig        `yaml:"gains"`
	Limits      LimitsConfig       `yaml:"limits"`
	StopOnFault bool               `yaml:"stop_on_fault"`
}

type SetpointStep struct {
	At    float64 `yaml:"at"`
	Value float64 `yaml:"value"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// LimitsConfig enables the optional output and integral clamps. Zero values
// leave them off.
type LimitsConfig struct {
	OutMin        float64 `yaml:"out_min"`
	OutMax        float64 `yaml:"out_max"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

func (l LimitsConfig) Enabled() bool {
	return l.OutMin < l.OutMax || l.IntegralLimit > 0
}

func DefaultConfig() *Config {
	return &Config{
		Plant:       "motor",
		Integrator:  "rk4",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Setpoints:   []SetpointStep{{At: 0, Value: DefaultSetpoint}},
		StopOnFault: true,
		Gains: GainsConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := plant.Get(c.Plant, c.PlantParams); err != nil {
		errs = append(errs, err)
	}
	if c.Integrator != "euler" && c.Integrator != "rk4" {
		errs = append(errs, fmt.Errorf("unknown integrator: %s", c.Integrator))
	}
	if err := c.LoopConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	for name, v := range map[string]float64{"kp": c.Gains.Kp, "ki": c.Gains.Ki, "kd": c.Gains.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("gain %s must be finite", name))
		}
	}
	if c.Limits.OutMin > c.Limits.OutMax {
		errs = append(errs, fmt.Errorf("limits: out_min %g above out_max %g", c.Limits.OutMin, c.Limits.OutMax))
	}
	if c.Limits.IntegralLimit < 0 {
		errs = append(errs, errors.New("limits: integral_limit must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) Schedule() loop.Schedule {
	s := make(loop.Schedule, len(c.Setpoints))
	for i, st := range c.Setpoints {
		s[i] = loop.Step{At: st.At, Value: st.Value}
	}
	return s.Sorted()
}

func (c *Config) LoopConfig() loop.Config {
	lc := loop.DefaultConfig()
	lc.Dt = c.Dt
	lc.Duration = c.Duration
	lc.Jitter = c.Jitter
	lc.Seed = c.Seed
	lc.Setpoints = c.Schedule()
	lc.StopOnFault = c.StopOnFault
	return lc
}

// Controller builds the controller for this run, wrapped in the limits
// layer when limits are configured.
func (c *Config) Controller() loop.Stepper {
	g := c.Gains
	if c.Limits.Enabled() {
		return pid.NewLimited(g.Kp, g.Ki, g.Kd, c.Limits.OutMin, c.Limits.OutMax, c.Limits.IntegralLimit)
	}
	ctrl := pid.New(g.Kp, g.Ki, g.Kd)
	return &ctrl
}
