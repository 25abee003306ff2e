package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

func fallingConfig() *config.Config {
	cfg := config.ForScene("falling")
	cfg.Bodies.Count = 10
	cfg.Duration = 1.0
	cfg.Dt = 0.1
	cfg.Substeps = 1
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	sim := New(fallingConfig(), nil)

	result, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Frames) != 11 {
		t.Errorf("expected 11 frames, got %d", len(result.Frames))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Handles) != 10 {
		t.Errorf("expected 10 handles, got %d", len(result.Handles))
	}

	final := result.Final()
	if math.Abs(final.Time-1.0) > 1e-9 {
		t.Errorf("final time = %v, want 1", final.Time)
	}
	first := result.Frames[0]
	for i := range final.Bodies {
		if final.Bodies[i].Position[1] >= first.Bodies[i].Position[1] {
			t.Errorf("body %d did not fall", i)
		}
	}
}

func TestSimulatorRecordEvery(t *testing.T) {
	cfg := fallingConfig()
	cfg.RecordEvery = 4
	result, err := New(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// initial, frames 4 and 8, then the final frame 10
	if len(result.Frames) != 4 {
		t.Errorf("expected 4 frames, got %d", len(result.Frames))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero dt", func(c *config.Config) { c.Dt = 0 }},
		{"negative dt", func(c *config.Config) { c.Dt = -0.1 }},
		{"zero duration", func(c *config.Config) { c.Duration = 0 }},
		{"negative duration", func(c *config.Config) { c.Duration = -1.0 }},
		{"unknown scene", func(c *config.Config) { c.Scene = "pinball" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fallingConfig()
			tt.mutate(cfg)
			if _, err := New(cfg, nil).Run(context.Background()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(w *physics.World, time float64) {
	t.count++
	t.sum += float64(w.BodyCount())
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(fallingConfig(), nil)

	metric := &testMetric{}
	sim.AddMetric(metric)

	calls := 0
	sim.AddObserver(ObserverFunc(func(w *physics.World, t float64) { calls++ }))

	result, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if v, ok := result.Metrics["test"]; !ok || v != 10 {
		t.Errorf("metric = %v, %v", v, ok)
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if calls != 10 {
		t.Errorf("expected 10 observer calls, got %d", calls)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := New(fallingConfig(), nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("canceled run should return partial result with no steps")
	}
}

func TestDriverFrameClamp(t *testing.T) {
	cfg := config.ForScene("falling")
	cfg.Substeps = 2
	d, err := NewDriver(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Frame(0.5); err != nil {
		t.Fatal(err)
	}
	if d.Steps() != 2 {
		t.Errorf("steps = %d, want 2", d.Steps())
	}
	if math.Abs(d.Time()-cfg.Dt) > 1e-12 {
		t.Errorf("time = %v, want clamped %v", d.Time(), cfg.Dt)
	}

	d.Frame(0.004)
	if math.Abs(d.Time()-(cfg.Dt+0.004)) > 1e-12 {
		t.Errorf("short frame not honoured: %v", d.Time())
	}

	for _, bad := range []float64{0, -1, math.NaN()} {
		if err := d.Frame(bad); err != nil {
			t.Errorf("Frame(%v) = %v", bad, err)
		}
	}
	if d.Steps() != 4 {
		t.Errorf("invalid frames advanced the world: %d steps", d.Steps())
	}
}

func TestDriverPause(t *testing.T) {
	d, err := NewDriver(config.ForScene("falling"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Toggle() {
		t.Fatal("Toggle should pause a running driver")
	}
	d.Frame(1.0 / 60.0)
	if d.Steps() != 0 {
		t.Error("paused driver advanced")
	}
	if !d.Toggle() || !d.Running() {
		t.Error("Toggle should resume")
	}
}

func TestDriverResetAndSpawn(t *testing.T) {
	cfg := config.ForScene("gravity_playground")
	d, err := NewDriver(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := d.World().Position(d.Handles()[0])

	if err := d.Spawn(100); err != nil {
		t.Fatal(err)
	}
	if d.World().BodyCount() != 200 || len(d.Handles()) != 200 {
		t.Errorf("spawn: %d bodies", d.World().BodyCount())
	}

	d.Clear()
	if d.World().BodyCount() != 0 {
		t.Errorf("clear left %d bodies", d.World().BodyCount())
	}

	d.Frame(1.0 / 60.0)
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	again, _ := d.World().Position(d.Handles()[0])
	if first != again || d.Time() != 0 {
		t.Error("reset did not rebuild the seeded scene")
	}
}

func TestDriverGravity(t *testing.T) {
	d, _ := NewDriver(config.ForScene("gravity_playground"), nil)
	if err := d.SetGravity(dynamo.V(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if d.World().Gravity() != dynamo.V(1, 0, 0) || d.Config().World.Gravity != [3]float64{1, 0, 0} {
		t.Error("gravity not applied")
	}
	if err := d.SetGravity(dynamo.V(math.Inf(1), 0, 0)); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestCollisionSeparation(t *testing.T) {
	d, _ := NewDriver(config.ForScene("collision_spheres"), nil)
	if s := d.Separation(); math.Abs(s-0.6) > 1e-12 {
		t.Errorf("initial separation = %v", s)
	}
	for i := 0; i < 30; i++ {
		d.Frame(1.0 / 60.0)
	}
	if s := d.Separation(); s < 0.98 {
		t.Errorf("separation = %v", s)
	}
}
