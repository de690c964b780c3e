package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/sim"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 600
	maxStepsPerTick = 1024
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a simulator from the bubbletea event loop and renders the
// particles, the step context and the metric history.
type Model struct {
	sim     *sim.Simulator
	cfg     sim.Config
	name    string
	initial sim.Checkpoint
	initKT  float64

	canvas *Canvas
	camera *Camera
	fold   bool

	running      bool
	stepsPerTick int
	selected     int
	names        []string
	history      map[string][]float64
	times        []float64
	showHelp     bool
	err          error
}

// NewModel prepares s for interactive stepping with cfg. The state at this
// point is what reset returns to.
func NewModel(s *sim.Simulator, cfg sim.Config, name string) (Model, error) {
	if err := s.Configure(cfg); err != nil {
		return Model{}, err
	}

	names := make([]string, 0, len(s.Metrics()))
	for _, m := range s.Metrics() {
		m.Reset()
		names = append(names, m.Name())
	}

	m := Model{
		sim:          s,
		cfg:          cfg,
		name:         name,
		initial:      s.Checkpoint(),
		initKT:       s.Thermostat().KT(),
		canvas:       NewCanvas(width, height),
		camera:       NewCamera(),
		fold:         true,
		running:      true,
		stepsPerTick: 1,
		names:        names,
		history:      make(map[string][]float64, len(names)),
		times:        make([]float64, 0, historyCapacity),
	}
	m.observe()
	return m, nil
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running && m.err == nil
		case "r":
			m.reset()
		case "s":
			if !m.running {
				m.advance(1)
			}
		case "tab":
			if len(m.names) > 0 {
				m.selected = (m.selected + 1) % len(m.names)
			}
		case "up", "k":
			m.scaleTemperature(1.1)
		case "down", "j":
			m.scaleTemperature(1 / 1.1)
		case ">", ".":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "<", ",":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "f":
			m.fold = !m.fold
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerTick)
		}
		return m, tick()
	}
	return m, nil
}

// advance takes n steps and records one history sample. A failed step or a
// diverged state stops the run.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if err := m.sim.Step(m.cfg.Dt); err != nil {
			m.fail(err)
			return
		}
		if m.cfg.ValidateState {
			if err := m.sim.CheckState(); err != nil {
				m.fail(err)
				return
			}
		}
	}
	m.observe()
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
	m.sim.Logger().Error("live simulation stopped", "err", err)
}

func (m *Model) observe() {
	ps := m.sim.Particles()
	t := m.sim.Context().SimTime
	for _, metric := range m.sim.Metrics() {
		metric.Observe(ps, t)
		m.history[metric.Name()] = appendCapped(m.history[metric.Name()], metric.Value())
	}
	m.times = appendCapped(m.times, t)
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) scaleTemperature(factor float64) {
	th := m.sim.Thermostat()
	if err := th.SetTemperature(th.KT() * factor); err != nil {
		m.err = err
	}
}

// reset restores the initial state, temperature and metrics.
func (m *Model) reset() {
	if err := m.sim.Restore(m.initial); err != nil {
		m.fail(err)
		return
	}
	if err := m.sim.Thermostat().SetTemperature(m.initKT); err != nil {
		m.fail(err)
		return
	}
	for _, metric := range m.sim.Metrics() {
		metric.Reset()
	}
	m.history = make(map[string][]float64, len(m.names))
	m.times = m.times[:0]
	m.err = nil
	m.running = true
	m.observe()
}

func (m *Model) draw() int {
	m.canvas.Clear()
	ps := m.sim.Particles()
	pts := make([]r3.Vec, len(ps))
	for i := range ps {
		pts[i] = ps[i].Pos
	}
	return Render(m.canvas, Scene{Box: m.sim.Box(), Points: pts, Fold: m.fold}, m.camera)
}

// View renders the TUI interface.
func (m Model) View() string {
	st := styles()
	visible := m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	ctx := m.sim.Context()
	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("STOPPED: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render(fmt.Sprintf("RUNNING x%d", m.stepsPerTick)) + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f", ctx.SimTime))
	row("Steps", fmt.Sprintf("%d", ctx.Steps))
	row("kT", fmt.Sprintf("%.4g", m.sim.Thermostat().KT()))
	row("Particles", fmt.Sprintf("%d (%d shown)", len(m.sim.Particles()), visible))
	row("Rebuilds", fmt.Sprintf("%d", m.sim.Resorts()))
	if c := m.sim.Coupling(); c != nil {
		u := c.Fluid().MeanVelocity()
		row("Fluid", fmt.Sprintf("(%.3f, %.3f, %.3f)", u.X, u.Y, u.Z))
	}
	if m.cfg.Duration > 0 {
		s.WriteString(st.label.Render("Progress") + ProgressBar(ctx.SimTime/m.cfg.Duration, 20) + "\n")
	}

	s.WriteString("\n" + Separator(40) + "\n")
	for i, name := range m.names {
		values := m.history[name]
		v := 0.0
		if len(values) > 0 {
			v = values[len(values)-1]
		}
		line := fmt.Sprintf("%-14s %-12.5g %s", name, v, SparklineChart(values, 14))
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.muted.Render(line) + "\n")
		}
	}

	if len(m.names) > 0 {
		series := m.history[m.names[m.selected]]
		if len(series) > 1 {
			chart := asciigraph.Plot(series, asciigraph.Height(6), asciigraph.Width(36), asciigraph.Caption(m.names[m.selected]))
			s.WriteString(st.graph.Render(chart) + "\n")
		}
	}

	s.WriteString(st.muted.Render("\nSP:Pause S:Step R:Reset Q:Quit\nTab:Metric ↑↓:kT <>:Speed ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  S        - Single step when paused  ║
║  R        - Reset to initial state   ║
║  Q        - Quit                     ║
║  Tab      - Cycle plotted metric     ║
║  Up/K     - Raise kT by 10%          ║
║  Down/J   - Lower kT by 10%          ║
║  < >      - Halve/double speed       ║
║  F        - Toggle periodic folding  ║
║  X Y Z    - Rotate view (+shift)     ║
║  + -      - Zoom                     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// RunLive runs the live view until the user quits.
func RunLive(s *sim.Simulator, cfg sim.Config, name string) error {
	m, err := NewModel(s, cfg, name)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
