package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidloop/internal/config"
)

func newLoopCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "run"}
	addLoopFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cmd := newLoopCmd(t)

	cfg, err := resolveConfig(cmd, "thermal")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Plant != "thermal" {
		t.Errorf("expected plant thermal, got %s", cfg.Plant)
	}
	if cfg.Dt != config.DefaultDt || cfg.Gains.Kp != config.DefaultKp {
		t.Errorf("expected defaults, got dt=%v kp=%v", cfg.Dt, cfg.Gains.Kp)
	}
}

func TestResolveConfigFlagsOverridePreset(t *testing.T) {
	cmd := newLoopCmd(t, "--preset", "staircase", "--kp", "2", "--setpoint", "3")

	cfg, err := resolveConfig(cmd, "motor")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Gains.Kp != 2 {
		t.Errorf("expected flag kp 2, got %v", cfg.Gains.Kp)
	}
	if cfg.Gains.Kd != 0.005 {
		t.Errorf("expected preset kd 0.005, got %v", cfg.Gains.Kd)
	}
	if cfg.Duration != 20 {
		t.Errorf("expected preset duration 20, got %v", cfg.Duration)
	}
	if len(cfg.Setpoints) != 1 || cfg.Setpoints[0].Value != 3 {
		t.Errorf("expected constant setpoint 3, got %+v", cfg.Setpoints)
	}

	if p := config.GetPreset("motor", "staircase"); len(p.Setpoints) != 4 {
		t.Error("preset was modified")
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")
	file := config.DefaultConfig()
	file.Gains.Ki = 7
	file.Duration = 3
	if err := config.Save(path, file); err != nil {
		t.Fatalf("save: %v", err)
	}

	cmd := newLoopCmd(t, "--config", path, "--time", "4")

	cfg, err := resolveConfig(cmd, "motor")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Gains.Ki != 7 {
		t.Errorf("expected file ki 7, got %v", cfg.Gains.Ki)
	}
	if cfg.Duration != 4 {
		t.Errorf("expected flag duration 4, got %v", cfg.Duration)
	}

	if _, err := resolveConfig(newLoopCmd(t, "--config", path), "thermal"); err == nil {
		t.Error("expected plant mismatch error")
	}
}

func TestResolveConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "nope"}},
		{"zero dt", []string{"--dt", "0"}},
		{"jitter too large", []string{"--jitter", "1"}},
		{"missing config", []string{"--config", "/nonexistent/loop.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolveConfig(newLoopCmd(t, tt.args...), "motor"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
