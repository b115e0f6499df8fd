package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pidloop/internal/dynamo"
)

type ExportData struct {
	Metadata RunMetadata  `json:"metadata"`
	Samples  []ExportTick `json:"samples"`
}

type ExportTick struct {
	T        float64 `json:"t"`
	Dt       float64 `json:"dt"`
	Setpoint float64 `json:"setpoint"`
	PV       float64 `json:"pv"`
	Output   float64 `json:"output"`
	// Fault marks a tick whose values were not finite; JSON cannot carry
	// NaN or Inf, so they are written as zero.
	Fault bool `json:"fault,omitempty"`
}

func exportTick(smp dynamo.Sample) ExportTick {
	vals := [...]float64{smp.T, smp.Dt, smp.Setpoint, smp.PV, smp.Output}
	fault := false
	for i, v := range vals {
		if !finite(v) {
			vals[i] = 0
			fault = true
		}
	}
	return ExportTick{T: vals[0], Dt: vals[1], Setpoint: vals[2], PV: vals[3], Output: vals[4], Fault: fault}
}

// ExportJSON writes a run's metadata and samples as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata: *meta,
		Samples:  make([]ExportTick, len(samples)),
	}
	for i, smp := range samples {
		data.Samples[i] = exportTick(smp)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies a run's trace.csv to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := s.OpenTrace(runID)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
