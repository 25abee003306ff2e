package viz

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/scene"
)

const (
	stateMenu = iota
	statePreset
	stateSim
)

const defaultPreset = "default"

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// App is the scene picker that hands off to the live viewer.
type App struct {
	state    int
	cursor   int
	scenes   []string
	selected string
	presets  []string
	seed     int64
	logger   *slog.Logger
	live     Model
	err      error
}

func NewApp(seed int64, logger *slog.Logger) *App {
	return &App{scenes: scene.Names(), seed: seed, logger: logger}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = statePreset
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.items())-1 {
			a.cursor++
		}
	case "esc":
		if a.state == statePreset {
			a.state = stateMenu
			a.cursor = indexOf(a.scenes, a.selected)
		}
	case "enter", " ":
		if a.state == stateMenu {
			a.selected = a.scenes[a.cursor]
			a.presets = append([]string{defaultPreset}, config.ListPresets(a.selected)...)
			a.state, a.cursor = statePreset, 0
			return a, nil
		}
		cmd := a.start(a.presets[a.cursor])
		return a, cmd
	}
	return a, nil
}

func (a *App) items() []string {
	if a.state == statePreset {
		return a.presets
	}
	return a.scenes
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}

func (a *App) start(preset string) tea.Cmd {
	cfg := config.ForScene(a.selected)
	if preset != defaultPreset {
		cfg = config.GetPreset(a.selected, preset)
	}
	cfg.Seed = a.seed

	live, err := NewModel(cfg, a.logger)
	if err != nil {
		a.err = err
		return nil
	}
	a.err = nil
	a.live = live
	a.state = stateSim
	return a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}

	var b strings.Builder
	if a.state == stateMenu {
		b.WriteString("\n\n    " + GradientText("RIGIDSIM", "#00ffff", "#ff00ff") + "\n")
		b.WriteString("    " + menuSub.Render("sphere rigid-body simulator") + "\n")
	} else {
		b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(a.selected)) + "\n")
		b.WriteString("    " + menuSub.Render("choose a preset") + "\n")
	}
	b.WriteString("    " + menuSub.Render("─────────────────────────") + "\n\n")

	for i, name := range a.items() {
		desc := ""
		if a.state == stateMenu {
			if sc, err := scene.Get(name); err == nil {
				desc = sc.Description
			}
		}
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-20s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(fmt.Sprintf("%-20s", name)), menuIdle.Render(desc)))
		}
	}

	if a.err != nil {
		b.WriteString("\n    " + statusPaused.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuSub.Render(" navigate  ") +
		menuKey.Render("enter") + menuSub.Render(" select  ") +
		menuKey.Render("esc") + menuSub.Render(" back  ") +
		menuKey.Render("q") + menuSub.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive opens the scene picker.
func RunInteractive(seed int64, logger *slog.Logger) error {
	_, err := tea.NewProgram(NewApp(seed, logger), tea.WithAltScreen()).Run()
	return err
}
