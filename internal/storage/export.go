package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/sim"
)

type ExportFrame struct {
	Time      float64      `json:"time"`
	Step      int64        `json:"step"`
	IDs       []int        `json:"ids"`
	Positions [][3]float64 `json:"positions"`
}

type ExportData struct {
	Name     string               `json:"name"`
	Seed     uint64               `json:"seed"`
	Dt       float64              `json:"dt"`
	Duration float64              `json:"duration"`
	Steps    int64                `json:"steps"`
	SimTime  float64              `json:"sim_time"`
	Resorts  int                  `json:"resorts"`
	Times    []float64            `json:"times"`
	Series   map[string][]float64 `json:"series"`
	Metrics  map[string]float64   `json:"metrics"`
	Frames   []ExportFrame        `json:"frames"`
}

func NewExportData(cfg *config.Config, result *sim.Result) ExportData {
	data := ExportData{
		Name:     cfg.Name,
		Seed:     cfg.Seed,
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
		Steps:    result.StepsTaken,
		SimTime:  result.SimTime,
		Resorts:  result.Resorts,
		Times:    result.Times,
		Series:   result.Series,
		Metrics:  result.Metrics,
		Frames:   make([]ExportFrame, len(result.Frames)),
	}

	for i, fr := range result.Frames {
		ef := ExportFrame{
			Time:      fr.Time,
			Step:      fr.Step,
			IDs:       make([]int, len(fr.Particles)),
			Positions: make([][3]float64, len(fr.Particles)),
		}
		for j, p := range fr.Particles {
			ef.Positions[j] = [3]float64{p.Pos.X, p.Pos.Y, p.Pos.Z}
			ef.IDs[j] = p.ID
		}
		data.Frames[i] = ef
	}
	return data
}

func WriteJSON(w io.Writer, cfg *config.Config, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(cfg, result))
}

func ExportJSON(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, cfg, result)
}

func ExportJSONStdout(cfg *config.Config, result *sim.Result) error {
	return WriteJSON(os.Stdout, cfg, result)
}

// ExportTrajectoryCSV writes frames in the trajectory.csv layout.
func ExportTrajectoryCSV(w io.Writer, frames []sim.Frame) error {
	return gocsv.Marshal(TrajectoryRecords(frames), w)
}
