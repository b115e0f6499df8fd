package config

import "sort"

var Presets = map[string]map[string]*Config{
	"motor": {
		"step": {
			Plant: "motor", Integrator: "rk4", Dt: 0.01, Duration: 10.0, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 5}},
			Gains:     GainsConfig{Kp: 0.5, Ki: 1.0},
		},
		"staircase": {
			Plant: "motor", Integrator: "rk4", Dt: 0.01, Duration: 20.0, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 2}, {At: 5, Value: 6}, {At: 10, Value: 4}, {At: 15, Value: 8}},
			Gains:     GainsConfig{Kp: 0.5, Ki: 1.0, Kd: 0.005},
		},
		"jitter": {
			Plant: "motor", Integrator: "rk4", Dt: 0.01, Duration: 10.0, Jitter: 0.25, Seed: 1, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 5}},
			Gains:     GainsConfig{Kp: 0.5, Ki: 1.0, Kd: 0.005},
		},
	},
	"thermal": {
		"heatup": {
			Plant: "thermal", Integrator: "rk4", Dt: 0.1, Duration: 300.0, InitialPV: 20, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 60}},
			Gains:     GainsConfig{Kp: 20, Ki: 0.5},
			Limits:    LimitsConfig{OutMin: 0, OutMax: 200, IntegralLimit: 400},
		},
		"windup": {
			Plant: "thermal", Integrator: "rk4", Dt: 0.1, Duration: 300.0, InitialPV: 20, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 60}},
			Gains:     GainsConfig{Kp: 20, Ki: 0.5},
			Limits:    LimitsConfig{OutMin: 0, OutMax: 200},
		},
	},
	"mass_spring": {
		"position": {
			Plant: "mass_spring", Integrator: "rk4", Dt: 0.005, Duration: 10.0, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 1}},
			Gains:     GainsConfig{Kp: 40, Ki: 30, Kd: 8},
		},
		"underdamped": {
			Plant: "mass_spring", Integrator: "rk4", Dt: 0.005, Duration: 10.0, StopOnFault: true,
			Setpoints: []SetpointStep{{At: 0, Value: 1}},
			Gains:     GainsConfig{Kp: 20, Ki: 10, Kd: 0.5},
		},
	},
}

func GetPreset(plantName, preset string) *Config {
	plantPresets, ok := Presets[plantName]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(plantName string) []string {
	plantPresets, ok := Presets[plantName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
