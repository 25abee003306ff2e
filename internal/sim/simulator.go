package sim

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
)

// Simulator runs a configured scene for a fixed duration and records frames.
type Simulator struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
}

func New(cfg *config.Config, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		cfg:       cfg,
		logger:    logger,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	d, err := NewDriver(s.cfg, s.logger)
	if err != nil {
		return nil, err
	}

	frames := int(math.Round(s.cfg.Duration / s.cfg.Dt))
	every := s.cfg.RecordEvery
	result := &Result{
		Scene:   s.cfg.Scene,
		Seed:    s.cfg.Seed,
		Handles: append(d.Handles()[:0:0], d.Handles()...),
		Metrics: make(map[string]float64),
	}
	if every > 0 {
		result.Frames = make([]Frame, 0, frames/every+2)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	w := d.World()
	result.Frames = append(result.Frames, Frame{Time: 0, Bodies: w.Snapshot()})
	s.logger.Info("run started", "scene", s.cfg.Scene, "frames", frames, "bodies", w.BodyCount())
	start := time.Now()

	for i := 1; i <= frames; i++ {
		select {
		case <-ctx.Done():
			result.StepsTaken = d.Steps()
			return result, ctx.Err()
		default:
		}

		if err := d.Advance(s.cfg.Dt); err != nil {
			s.logger.Error("step failed", "err", err)
			return result, err
		}

		t := d.Time()
		for _, m := range s.metrics {
			m.Observe(w, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(w, t)
		}

		if (every > 0 && i%every == 0) || i == frames {
			result.Frames = append(result.Frames, Frame{Time: t, Bodies: w.Snapshot()})
		}
	}

	result.StepsTaken = d.Steps()
	result.Stats = w.Stats()
	result.Elapsed = time.Since(start)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("run finished", "scene", s.cfg.Scene, "steps", result.StepsTaken,
		"sleeping", result.Stats.Sleeping, "elapsed", result.Elapsed)
	return result, nil
}
