package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Scene: "test",
		Frames: []sim.Frame{
			{Time: 0, Bodies: []physics.BodyView{{Position: dynamo.V(0, 1, 0)}, {Position: dynamo.V(2, 3, 4)}}},
			{Time: 0.01, Bodies: []physics.BodyView{{Position: dynamo.V(0, 0.9, 0)}, {Position: dynamo.V(2, 2.9, 4)}}},
		},
		Metrics: map[string]float64{
			"energy": 1.5,
		},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.ForScene("stacking")
	cfg.Seed = 42
	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scene != "stacking" {
		t.Errorf("expected scene 'stacking', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.Steps != 2 || meta.Frames != 2 {
		t.Errorf("steps %d frames %d", meta.Steps, meta.Frames)
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if len(traj.Times) != 2 || len(traj.Positions) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(traj.Times))
	}
	if len(traj.Positions[1]) != 2 || traj.Positions[1][1] != [3]float64{2, 2.9, 4} {
		t.Errorf("unexpected positions %v", traj.Positions[1])
	}
	if h := traj.Height(0); len(h) != 2 || h[1] != 0.9 {
		t.Errorf("Height(0) = %v", h)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, scene := range []string{"falling", "stacking"} {
		if _, err := st.Save(config.ForScene(scene), testResult()); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(tmpDir, "stray.txt"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Scene != "falling" || runs[1].Scene != "stacking" {
		t.Errorf("runs not ordered by time: %s, %s", runs[0].Scene, runs[1].Scene)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); err == nil {
		t.Error("expected error")
	}
	if _, err := st.LoadTrajectory("missing"); err == nil {
		t.Error("expected error")
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	cfg := config.ForScene("collision_spheres")
	cfg.Duration = 0.5
	res, err := sim.New(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save(cfg, res)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.ID != runID || data.Scene != "collision_spheres" {
		t.Errorf("unexpected export header: %+v", data)
	}
	if len(data.Times) != len(res.Frames) || len(data.Positions[0]) != 2 {
		t.Errorf("export has %d frames, want %d", len(data.Times), len(res.Frames))
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSON(path, runID); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("export file missing or empty: %v", err)
	}
}
