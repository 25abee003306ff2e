package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Substeps  int                `json:"substeps"`
	Steps     int                `json:"steps"`
	Times     []float64          `json:"times"`
	Positions [][][3]float64     `json:"positions"`
	Metrics   map[string]float64 `json:"metrics"`
}

func newExportData(meta *RunMetadata, traj *Trajectory) ExportData {
	return ExportData{
		ID:        meta.ID,
		Scene:     meta.Scene,
		Seed:      meta.Seed,
		Dt:        meta.Dt,
		Duration:  meta.Duration,
		Substeps:  meta.Substeps,
		Steps:     meta.Steps,
		Times:     traj.Times,
		Positions: traj.Positions,
		Metrics:   meta.Metrics,
	}
}

// Export writes a stored run as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, traj))
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.Export(file, runID)
}

func (s *Store) ExportJSONStdout(runID string) error {
	return s.Export(os.Stdout, runID)
}
