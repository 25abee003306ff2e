package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

func lit(c *Canvas) int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - 0x2800; bits > 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2800|0x1|0x80 {
		t.Errorf("unexpected cell %U", c.Grid[0][0])
	}
	c.Set(-1, 0)
	c.Set(100, 100)
	if lit(c) != 2 {
		t.Errorf("out of range Set changed the canvas: %d dots", lit(c))
	}

	c.Unset(0, 0)
	if c.Grid[0][0] != 0x2800|0x80 {
		t.Errorf("unset left %U", c.Grid[0][0])
	}
	c.Clear()
	if lit(c) != 0 {
		t.Error("clear left dots")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 9, 0)
	if got := lit(c); got != 10 {
		t.Errorf("horizontal line lit %d dots, want 10", got)
	}
}

func TestCanvasCircle(t *testing.T) {
	tests := []struct {
		name string
		r    int
		min  int
	}{
		{"dot", 0, 1},
		{"small", 2, 8},
		{"large", 6, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(20, 10)
			c.DrawCircle(20, 20, tt.r)
			if got := lit(c); got < tt.min {
				t.Errorf("circle r=%d lit %d dots, want >= %d", tt.r, got, tt.min)
			}
			f := NewCanvas(20, 10)
			f.FillCircle(20, 20, tt.r)
			if lit(f) < lit(c) {
				t.Errorf("filled circle has fewer dots than outline")
			}
		})
	}
}

func TestCanvasDrawSphere(t *testing.T) {
	cam := NewCamera()
	tests := []struct {
		name   string
		filled bool
		centre bool
	}{
		{"filled", true, true},
		{"outline", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(40, 20)
			if !c.DrawSphere(cam, cam.Target, 1, tt.filled) {
				t.Fatal("sphere at the camera target not drawn")
			}
			if got := c.Lit(40, 40); got != tt.centre {
				t.Errorf("centre lit = %v, want %v", got, tt.centre)
			}
			if !c.Lit(44, 40) {
				t.Error("rim dot not lit")
			}
		})
	}

	c := NewCanvas(40, 20)
	if c.DrawSphere(cam, cam.Target.Add(dynamo.V(0, 0, 100)), 1, true) || lit(c) != 0 {
		t.Error("sphere behind the camera was drawn")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 || len([]rune(lines[0])) != 3 {
		t.Errorf("unexpected canvas string %q", c.String())
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	x, y, _, scale, ok := cam.Project(cam.Target, 120, 88)
	if !ok || x != 60 || y != 44 {
		t.Errorf("target projected to (%d, %d, %v), want centre", x, y, ok)
	}
	if scale <= 0 {
		t.Errorf("scale = %f", scale)
	}

	cam.Yaw, cam.Pitch = 0, 0
	hx, _, _, _, _ := cam.Project(cam.Target.Add(dynamo.V(1, 0, 0)), 120, 88)
	_, hy, _, _, _ := cam.Project(cam.Target.Add(dynamo.V(0, 1, 0)), 120, 88)
	if hx <= 60 {
		t.Errorf("+x should project right of centre, got %d", hx)
	}
	if hy >= 44 {
		t.Errorf("+y should project above centre, got %d", hy)
	}

	if _, _, _, _, ok := cam.Project(cam.Target.Add(dynamo.V(0, 0, 100)), 120, 88); ok {
		t.Error("point behind the camera should not be visible")
	}
}

func TestCameraPitchClamped(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.Rotate(0, 0.1)
	}
	if cam.Pitch >= 1.5708 {
		t.Errorf("pitch not clamped: %f", cam.Pitch)
	}
}

func TestGroundGridRender(t *testing.T) {
	c := NewCanvas(40, 20)
	Render(c, GroundGrid(0, 5, 5), NewCamera())
	if lit(c) == 0 {
		t.Error("ground grid drew nothing")
	}
}

func TestSparklineAndBar(t *testing.T) {
	if got := Sparkline(nil, 5); got != strings.Repeat("─", 5) {
		t.Errorf("empty sparkline = %q", got)
	}
	if !strings.Contains(Sparkline([]float64{0, 1, 2, 3}, 10), "█") {
		t.Error("sparkline missing peak")
	}
	if !strings.Contains(ProgressBar(0.5, 10), "░") {
		t.Error("half bar has no empty cells")
	}
}

func TestThemeCycle(t *testing.T) {
	seen := map[string]bool{}
	th := Themes[0]
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th.Name)
	}
	if len(seen) != len(Themes) || th.Name != Themes[0].Name {
		t.Errorf("theme cycle visited %v", seen)
	}
	if GetTheme("missing").Name != Themes[0].Name {
		t.Error("unknown theme should fall back")
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelKeys(t *testing.T) {
	m, err := NewModel(config.ForScene("stacking"), nil)
	if err != nil {
		t.Fatal(err)
	}
	d := m.Driver()
	if d.World().BodyCount() != 5 {
		t.Fatalf("expected 5 bodies, got %d", d.World().BodyCount())
	}

	start := time.Unix(0, 0)
	m = update(t, m, TickMsg(start))
	m = update(t, m, TickMsg(start.Add(time.Second/60)))
	if d.Steps() == 0 {
		t.Fatal("ticks did not advance the world")
	}

	m = update(t, m, key(" "))
	if d.Running() {
		t.Fatal("space should pause")
	}
	steps := d.Steps()
	m = update(t, m, TickMsg(start.Add(time.Second)))
	if d.Steps() != steps {
		t.Error("paused model advanced on tick")
	}
	m = update(t, m, key("n"))
	if d.Steps() == steps {
		t.Error("n should advance one frame while paused")
	}

	m = update(t, m, key("s"))
	if d.World().BodyCount() != 5+spawnBatch {
		t.Errorf("spawn: %d bodies", d.World().BodyCount())
	}
	m = update(t, m, key("0"))
	if d.World().Gravity() != dynamo.Zero {
		t.Errorf("gravity = %v", d.World().Gravity())
	}
	m = update(t, m, key("k"))
	if d.World().Gravity() != dynamo.V(0, gravityStep, 0) {
		t.Errorf("gravity = %v", d.World().Gravity())
	}
	m = update(t, m, key("c"))
	if d.World().BodyCount() != 0 {
		t.Errorf("clear left %d bodies", d.World().BodyCount())
	}

	m = update(t, m, key("r"))
	if d.World().BodyCount() != 5 || d.Time() != 0 {
		t.Errorf("reset: %d bodies at t=%f", d.World().BodyCount(), d.Time())
	}
	if m.Err() != nil {
		t.Errorf("unexpected error %v", m.Err())
	}
}

func TestModelView(t *testing.T) {
	m, err := NewModel(config.ForScene("collision_spheres"), nil)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		m = update(t, m, TickMsg(start.Add(time.Duration(i)*time.Second/60)))
	}
	view := m.View()
	for _, want := range []string{"COLLISION_SPHERES", "RUNNING", "Separation", "Bodies"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAppMenu(t *testing.T) {
	a := NewApp(1, nil)
	next, _ := a.Update(key("j"))
	app := next.(App)
	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(App)
	if app.state != statePreset || app.selected != app.scenes[1] {
		t.Fatalf("state %d selected %q", app.state, app.selected)
	}
	if app.presets[0] != defaultPreset {
		t.Errorf("presets = %v", app.presets)
	}

	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(App)
	if app.state != stateSim {
		t.Fatalf("expected live view, err %v", app.err)
	}
	if !strings.Contains(app.View(), strings.ToUpper(app.selected)) {
		t.Error("live view missing scene header")
	}

	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = next.(App)
	if app.state != statePreset {
		t.Errorf("esc should return to presets, state %d", app.state)
	}
}
