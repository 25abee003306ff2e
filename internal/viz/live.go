package viz

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 300
	spawnBatch      = 10
	gravityStep     = 1.0
	frameRate       = 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live viewer: a driver advanced on wall-clock ticks plus the
// buffers needed to draw it.
type Model struct {
	driver   *sim.Driver
	logger   *slog.Logger
	canvas   *Canvas
	camera   *Camera
	theme    Theme
	lastTick time.Time

	energy   []float64
	sleeping []float64
	err      error
	showHelp bool
}

func NewModel(cfg *config.Config, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d, err := sim.NewDriver(cfg, logger)
	if err != nil {
		return Model{}, err
	}
	return Model{
		driver:   d,
		logger:   logger,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		theme:    Themes[0],
		energy:   make([]float64, 0, historyCapacity),
		sleeping: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Driver() *sim.Driver { return m.driver }
func (m Model) Err() error          { return m.err }

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input and advances the simulation by the elapsed wall time,
// clamped by the driver to one frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.driver.Toggle()
		case "r":
			m.reset()
		case "n":
			m.stepOnce()
		case "s":
			if err := m.driver.Spawn(spawnBatch); err != nil {
				m.err = err
			}
		case "c":
			m.driver.Clear()
		case "up", "k":
			m.nudgeGravity(dynamo.V(0, gravityStep, 0))
		case "down", "j":
			m.nudgeGravity(dynamo.V(0, -gravityStep, 0))
		case "left", "h":
			m.nudgeGravity(dynamo.V(-gravityStep, 0, 0))
		case "right", "l":
			m.nudgeGravity(dynamo.V(gravityStep, 0, 0))
		case "0":
			m.setGravity(dynamo.Zero)
		case "g":
			m.setGravity(dynamo.DefaultGravity)
		case "a":
			m.camera.Rotate(-0.1, 0)
		case "d":
			m.camera.Rotate(0.1, 0)
		case "w":
			m.camera.Rotate(0, 0.1)
		case "x":
			m.camera.Rotate(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "v":
			m.camera.Yaw, m.camera.Pitch = 0, 0
		case "t":
			m.theme = NextTheme(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		now := time.Time(msg)
		elapsed := 1.0 / frameRate
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick).Seconds()
		}
		m.lastTick = now
		if m.driver.Running() {
			m.frame(elapsed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) frame(elapsed float64) {
	if err := m.driver.Frame(elapsed); err != nil {
		m.fail(err)
		return
	}
	m.record()
}

func (m *Model) stepOnce() {
	if err := m.driver.Advance(m.driver.Config().Dt); err != nil {
		m.fail(err)
		return
	}
	m.record()
}

func (m *Model) fail(err error) {
	m.err = err
	m.logger.Error("step failed", "err", err)
	if m.driver.Running() {
		m.driver.Toggle()
	}
}

func (m *Model) record() {
	w := m.driver.World()
	m.energy = appendCapped(m.energy, metrics.Kinetic(w)+metrics.Potential(w))
	m.sleeping = appendCapped(m.sleeping, float64(w.Stats().Sleeping))
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) reset() {
	if err := m.driver.Reset(); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.energy = m.energy[:0]
	m.sleeping = m.sleeping[:0]
}

func (m *Model) nudgeGravity(dg dynamo.Vec3) {
	m.setGravity(m.driver.World().Gravity().Add(dg))
}

func (m *Model) setGravity(g dynamo.Vec3) {
	if err := m.driver.SetGravity(g); err != nil {
		m.err = err
	}
}

func (m *Model) draw() {
	DrawWorld(m.canvas, m.camera, m.driver.World())
}

// DrawWorld clears c and projects every body of w onto it. Awake bodies are
// filled, sleeping and static ones outlined.
func DrawWorld(c *Canvas, cam *Camera, w *physics.World) {
	c.Clear()
	if g := w.Ground(); g != nil {
		Render(c, GroundGrid(g.Height, 8, 9), cam)
	}
	for _, b := range w.Snapshot() {
		c.DrawSphere(cam, b.Position, b.Radius, !b.Sleeping && !b.Static)
	}
}

func (m Model) View() string {
	m.draw()
	d := m.driver
	w := d.World()
	st := w.Stats()

	canvasView := canvasStyle.Foreground(m.theme.Primary).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(m.theme.Secondary).Render(strings.ToUpper(d.Config().Scene)) + "\n")
	if d.Running() {
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", d.Time()))
	row("Steps", fmt.Sprintf("%d", d.Steps()))
	row("Bodies", fmt.Sprintf("%d", w.BodyCount()))
	row("Contacts", fmt.Sprintf("%d", st.Contacts))
	row("Gravity", dynamo.FormatVec(w.Gravity()))
	if d.Config().Scene == "collision_spheres" {
		row("Separation", fmt.Sprintf("%.4f", d.Separation()))
	}
	if n := w.BodyCount(); n > 0 {
		s.WriteString(labelStyle.Render("Sleeping") + ProgressBar(float64(st.Sleeping)/float64(n), 16) + "\n")
		s.WriteString(labelStyle.Render("") + Sparkline(m.sleeping, 16) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(m.theme.Warning).Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset N:Step Q:Quit\nS:Spawn C:Clear ←↑↓→:Gravity ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n" + main
	}
	return main
}

const helpOverlay = `
  Space      pause / resume
  N          advance one frame
  R          rebuild the scene
  S          spawn bodies
  C          destroy every body
  Arrows     adjust gravity
  0 / G      zero / standard gravity
  A D W X    orbit camera
  + / -      zoom
  V          side view
  T          cycle theme
  Q          quit
`

// RunLive opens the viewer on one configured scene.
func RunLive(cfg *config.Config, logger *slog.Logger) error {
	m, err := NewModel(cfg, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
