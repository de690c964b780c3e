package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	configFile     = "config.yaml"
	trajectoryFile = "trajectory.csv"
	seriesFile     = "observables.csv"
	checkpointFile = "checkpoint.yaml"
)

var ErrNoCheckpoint = errors.New("storage: run has no checkpoint")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Particles  int                `json:"particles"`
	KT         float64            `json:"kT"`
	Lattice    bool               `json:"lattice"`
	Forces     []string           `json:"forces"`
	StepsTaken int64              `json:"steps_taken"`
	SimTime    float64            `json:"sim_time"`
	Resorts    int                `json:"resorts"`
	Checkpoint bool               `json:"checkpoint"`
	Parent     string             `json:"parent,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// TrajectoryRecord is one particle in one recorded frame.
type TrajectoryRecord struct {
	Time float64 `csv:"time"`
	Step int64   `csv:"step"`
	ID   int     `csv:"id"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
	VX   float64 `csv:"vx"`
	VY   float64 `csv:"vy"`
	VZ   float64 `csv:"vz"`
	QW   float64 `csv:"qw"`
	QX   float64 `csv:"qx"`
	QY   float64 `csv:"qy"`
	QZ   float64 `csv:"qz"`
}

// ObservableRecord is one metric value at one sample time.
type ObservableRecord struct {
	Time   float64 `csv:"time"`
	Metric string  `csv:"metric"`
	Value  float64 `csv:"value"`
}

// Run is what Save persists. Checkpoint and Parent are optional.
type Run struct {
	Config     *config.Config
	Result     *sim.Result
	Checkpoint *sim.Checkpoint
	Parent     string
}

// Save writes a new run directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	cfg, result := run.Config, run.Result
	if cfg == nil || result == nil {
		return "", fmt.Errorf("storage: config and result are required")
	}

	runID := fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString()[:8])
	runDir := s.Dir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	names := make([]string, 0, len(cfg.Forces))
	for _, f := range cfg.Forces {
		names = append(names, f.Type)
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Timestamp:  time.Now(),
		Seed:       cfg.Seed,
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
		Particles:  cfg.Particles.Count,
		KT:         cfg.Thermostat.KT,
		Lattice:    cfg.Lattice != nil,
		Forces:     names,
		StepsTaken: result.StepsTaken,
		SimTime:    result.SimTime,
		Resorts:    result.Resorts,
		Checkpoint: run.Checkpoint != nil,
		Parent:     run.Parent,
		Metrics:    result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), TrajectoryRecords(result.Frames)); err != nil {
		return "", fmt.Errorf("writing trajectory: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, seriesFile), ObservableRecords(result)); err != nil {
		return "", fmt.Errorf("writing observables: %w", err)
	}
	if run.Checkpoint != nil {
		if err := s.SaveCheckpoint(runID, *run.Checkpoint); err != nil {
			return "", err
		}
	}

	return runID, nil
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

func writeCSV[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.Marshal(records, f)
}

func TrajectoryRecords(frames []sim.Frame) []TrajectoryRecord {
	var out []TrajectoryRecord
	for _, fr := range frames {
		for _, p := range fr.Particles {
			out = append(out, TrajectoryRecord{
				Time: fr.Time, Step: fr.Step, ID: p.ID,
				X: p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z,
				VX: p.Vel.X, VY: p.Vel.Y, VZ: p.Vel.Z,
				QW: p.Quat.Real, QX: p.Quat.Imag, QY: p.Quat.Jmag, QZ: p.Quat.Kmag,
			})
		}
	}
	return out
}

// ObservableRecords flattens the metric series in name order.
func ObservableRecords(result *sim.Result) []ObservableRecord {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []ObservableRecord
	for i, t := range result.Times {
		for _, name := range names {
			series := result.Series[name]
			if i < len(series) {
				out = append(out, ObservableRecord{Time: t, Metric: name, Value: series[i]})
			}
		}
	}
	return out
}

func (s *Store) SaveCheckpoint(runID string, cp sim.Checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return os.WriteFile(filepath.Join(s.Dir(runID), checkpointFile), data, 0644)
}

func (s *Store) LoadCheckpoint(runID string) (sim.Checkpoint, error) {
	var cp sim.Checkpoint
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), checkpointFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cp, fmt.Errorf("%w: %s", ErrNoCheckpoint, runID)
		}
		return cp, err
	}
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("decoding checkpoint: %w", err)
	}
	return cp, nil
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}

// LoadTrajectory reads the recorded frames back, grouped by step.
func (s *Store) LoadTrajectory(runID string) ([]sim.Frame, error) {
	var records []TrajectoryRecord
	if err := readCSV(filepath.Join(s.Dir(runID), trajectoryFile), &records); err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for _, r := range records {
		if len(frames) == 0 || frames[len(frames)-1].Step != r.Step {
			frames = append(frames, sim.Frame{Time: r.Time, Step: r.Step})
		}
		fr := &frames[len(frames)-1]
		fr.Particles = append(fr.Particles, sim.Snapshot{
			ID:   r.ID,
			Pos:  r3.Vec{X: r.X, Y: r.Y, Z: r.Z},
			Vel:  r3.Vec{X: r.VX, Y: r.VY, Z: r.VZ},
			Quat: quat.Number{Real: r.QW, Imag: r.QX, Jmag: r.QY, Kmag: r.QZ},
		})
	}
	return frames, nil
}

// LoadSeries reads the metric series back as sample times plus one series
// per metric.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	var records []ObservableRecord
	if err := readCSV(filepath.Join(s.Dir(runID), seriesFile), &records); err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0)
	series := make(map[string][]float64)
	for _, r := range records {
		if len(times) == 0 || times[len(times)-1] != r.Time {
			times = append(times, r.Time)
		}
		series[r.Metric] = append(series[r.Metric], r.Value)
	}
	return times, series, nil
}

// LoadResult reassembles the recorded part of a run result: frames, metric
// series and the final metric values from the metadata.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	frames, err := s.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}
	times, series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	return &sim.Result{
		Frames:     frames,
		Times:      times,
		Series:     series,
		Metrics:    meta.Metrics,
		StepsTaken: meta.StepsTaken,
		Resorts:    meta.Resorts,
		SimTime:    meta.SimTime,
	}, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return err
	}
	return nil
}
