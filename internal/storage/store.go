package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Substeps    int                `json:"substeps"`
	Integrator  string             `json:"integrator"`
	Broadphase  string             `json:"broadphase"`
	Gravity     [3]float64         `json:"gravity"`
	Bodies      int                `json:"bodies"`
	Steps       int                `json:"steps"`
	Frames      int                `json:"frames"`
	Sleeping    int                `json:"sleeping"`
	ElapsedSecs float64            `json:"elapsed_seconds"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata and trajectory under a new run directory
// and returns its id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scene:       cfg.Scene,
		Timestamp:   now,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Substeps:    cfg.Substeps,
		Integrator:  cfg.World.Integrator,
		Broadphase:  cfg.World.Broadphase,
		Gravity:     cfg.World.Gravity,
		Bodies:      len(result.Handles),
		Steps:       result.StepsTaken,
		Frames:      len(result.Frames),
		Sleeping:    result.Stats.Sleeping,
		ElapsedSecs: result.Elapsed.Seconds(),
		Metrics:     result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeTrajectory(w, result); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeTrajectory(w *csv.Writer, result *sim.Result) error {
	if len(result.Frames) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.Frames[0].Bodies {
		header = append(header, fmt.Sprintf("b%d_x", i), fmt.Sprintf("b%d_y", i), fmt.Sprintf("b%d_z", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, f := range result.Frames {
		row := make([]string, 0, 1+3*len(f.Bodies))
		row = append(row, formatFloat(f.Time))
		for _, b := range f.Bodies {
			row = append(row, formatFloat(b.Position[0]), formatFloat(b.Position[1]), formatFloat(b.Position[2]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the stored runs, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Trajectory is a stored run read back. Positions[i][j] is body j at Times[i].
type Trajectory struct {
	Times     []float64
	Positions [][][3]float64
}

// Height returns the y coordinate of body j over time.
func (t *Trajectory) Height(j int) []float64 {
	out := make([]float64, 0, len(t.Positions))
	for _, frame := range t.Positions {
		if j < len(frame) {
			out = append(out, frame[j][1])
		}
	}
	return out
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
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

	traj := &Trajectory{}
	if len(records) < 2 {
		return traj, nil
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		frame := make([][3]float64, 0, (len(record)-1)/3)
		for j := 1; j+2 < len(record); j += 3 {
			var p [3]float64
			for k := 0; k < 3; k++ {
				v, err := strconv.ParseFloat(record[j+k], 64)
				if err != nil {
					return nil, fmt.Errorf("run %s: bad value %q: %w", runID, record[j+k], err)
				}
				p[k] = v
			}
			frame = append(frame, p)
		}
		traj.Times = append(traj.Times, t)
		traj.Positions = append(traj.Positions, frame)
	}

	return traj, nil
}
