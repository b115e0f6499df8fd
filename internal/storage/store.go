package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pidloop/internal/dynamo"
	"github.com/san-kum/pidloop/internal/loop"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var ErrNotFound = errors.New("storage: run not found")

var traceHeader = []string{"time", "dt", "setpoint", "pv", "output"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a finished bench run. Gains are recorded so a trace
// can be read back with the settings that produced it.
type RunMetadata struct {
	ID         string             `json:"id"`
	Plant      string             `json:"plant"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Jitter     float64            `json:"jitter"`
	Integrator string             `json:"integrator"`
	Gains      map[string]float64 `json:"gains"`
	Limited    bool               `json:"limited"`
	Ticks      int                `json:"ticks"`
	Faults     int                `json:"faults"`
	Halted     bool               `json:"halted"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and trace.csv into a new run directory and
// returns the run ID. ID and Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, result *loop.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Plant, meta.Timestamp.UnixNano())
	}
	meta.Ticks = result.Ticks
	meta.Faults = len(result.Faults)
	meta.Halted = result.Halted
	meta.Metrics = make(map[string]float64, len(result.Metrics))
	for name, v := range result.Metrics {
		if finite(v) {
			meta.Metrics[name] = v
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result.Samples); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrace(path string, samples []dynamo.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		return err
	}

	for _, smp := range samples {
		row := []string{
			formatFloat(smp.T),
			formatFloat(smp.Dt),
			formatFloat(smp.Setpoint),
			formatFloat(smp.PV),
			formatFloat(smp.Output),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadTrace reads the samples of a run. Rows that fail to parse are skipped.
func (s *Store) LoadTrace(runID string) ([]dynamo.Sample, error) {
	file, err := s.OpenTrace(runID)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(traceHeader) {
			continue
		}

		var vals [5]float64
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		samples = append(samples, dynamo.Sample{
			T:        vals[0],
			Dt:       vals[1],
			Setpoint: vals[2],
			PV:       vals[3],
			Output:   vals[4],
		})
	}

	return samples, nil
}

// OpenTrace opens the raw trace.csv of a run.
func (s *Store) OpenTrace(runID string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return f, nil
}
