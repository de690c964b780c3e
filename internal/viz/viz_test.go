package viz

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/experiment"
	"github.com/san-kum/bdsim/internal/sim"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func liveConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles.Count = 8
	cfg.Box = config.Vec3{4, 4, 4}
	cfg.Metrics = []string{"msd", "kinetic_temperature"}
	return cfg
}

func newLive(t *testing.T) Model {
	t.Helper()
	cfg := liveConfig()
	s, err := experiment.Build(cfg, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewModel(s, experiment.RunConfig(cfg), cfg.Name)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if !c.IsSet(0, 0) || !c.IsSet(3, 3) {
		t.Error("expected pixels to be set")
	}
	if c.IsSet(1, 0) {
		t.Error("unexpected pixel")
	}
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8, got %U", c.Grid[0][1])
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("expected clear canvas")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for x := 0; x < 8; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("pixel %d not set", x)
		}
	}
	if lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n"); len(lines) != 1 {
		t.Errorf("expected 1 line, got %d", len(lines))
	}
}

func TestRenderCountsVisibleParticles(t *testing.T) {
	c := NewCanvas(40, 20)
	box := r3.Vec{X: 4, Y: 4, Z: 4}
	pts := []r3.Vec{{X: 2, Y: 2, Z: 2}, {X: 1, Y: 1, Z: 1}, {X: 6, Y: 2, Z: 2}}

	if n := Render(c, Scene{Box: box, Points: pts, Fold: true}, NewCamera()); n != 3 {
		t.Errorf("expected 3 visible points, got %d", n)
	}
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > 0x2800 && r <= 0x28ff }) {
		t.Error("expected drawn cells")
	}
}

func TestSparklineChart(t *testing.T) {
	got := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := SparklineChart(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	if got := []rune(SparklineChart([]float64{1, 2, 3, 4}, 2)); len(got) != 2 {
		t.Errorf("expected 2 runes, got %d", len(got))
	}
}

func TestNextTheme(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)

	SetTheme("cyberpunk")
	seen := map[string]bool{}
	for range Themes {
		seen[CurrentTheme.Name] = true
		NextTheme()
	}
	if len(seen) != len(Themes) || CurrentTheme.Name != "cyberpunk" {
		t.Errorf("theme cycle visited %v, ended on %s", seen, CurrentTheme.Name)
	}
	if GetTheme("missing").Name != Themes[0].Name {
		t.Error("expected fallback theme")
	}
}

func TestLiveTickAdvances(t *testing.T) {
	m := newLive(t)
	m = update(t, m, TickMsg(time.Now()))

	if got := m.sim.Context().Steps; got != 1 {
		t.Errorf("expected 1 step, got %d", got)
	}
	if len(m.times) != 2 {
		t.Errorf("expected 2 samples, got %d", len(m.times))
	}

	m = update(t, m, key(">"))
	m = update(t, m, TickMsg(time.Now()))
	if got := m.sim.Context().Steps; got != 3 {
		t.Errorf("expected 3 steps, got %d", got)
	}
}

func TestLivePauseAndStep(t *testing.T) {
	m := newLive(t)
	m = update(t, m, key(" "))
	if m.running {
		t.Fatal("expected paused")
	}

	m = update(t, m, TickMsg(time.Now()))
	if m.sim.Context().Steps != 0 {
		t.Error("paused model should not step on tick")
	}

	m = update(t, m, key("s"))
	if m.sim.Context().Steps != 1 {
		t.Error("expected single step")
	}
}

func TestLiveReset(t *testing.T) {
	m := newLive(t)
	start := m.sim.Particles()[0].Pos
	kT := m.sim.Thermostat().KT()

	m = update(t, m, key("k"))
	for i := 0; i < 5; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	if m.sim.Thermostat().KT() <= kT {
		t.Error("expected kT to rise")
	}

	m = update(t, m, key("r"))
	if ctx := m.sim.Context(); ctx.Steps != 0 || ctx.SimTime != 0 {
		t.Errorf("expected initial context, got %+v", ctx)
	}
	if m.sim.Particles()[0].Pos != start {
		t.Error("expected initial positions")
	}
	if m.sim.Thermostat().KT() != kT {
		t.Error("expected initial kT")
	}
	if len(m.times) != 1 {
		t.Errorf("expected history to restart, got %d samples", len(m.times))
	}
}

func TestLiveCycleMetric(t *testing.T) {
	m := newLive(t)
	m = update(t, m, key("tab"))
	if m.selected != 1 {
		t.Errorf("expected metric 1, got %d", m.selected)
	}
	m = update(t, m, key("tab"))
	if m.selected != 0 {
		t.Errorf("expected wrap to metric 0, got %d", m.selected)
	}
}

func TestLiveView(t *testing.T) {
	m := newLive(t)
	for i := 0; i < 3; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	out := m.View()
	for _, want := range []string{"FREE", "RUNNING", "msd", "kinetic_temperature"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(t, m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("expected help overlay")
	}
}

func TestLiveStopsOnInvalidConfig(t *testing.T) {
	cfg := liveConfig()
	s, err := experiment.Build(cfg, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	rc := experiment.RunConfig(cfg)
	rc.Dt = 0
	if _, err := NewModel(s, rc, "bad"); err == nil {
		t.Error("expected configuration error")
	}
}

func TestInteractiveStart(t *testing.T) {
	var gotPreset string
	var gotParams map[string]float64
	build := func(preset string, params map[string]float64) (*sim.Simulator, sim.Config, error) {
		gotPreset, gotParams = preset, params
		cfg := liveConfig()
		cfg.Thermostat.KT = params["kT"]
		s, err := experiment.Build(cfg, nil, quietLogger())
		return s, experiment.RunConfig(cfg), err
	}
	defaults := func(string) []Param { return []Param{{Name: "kT", Value: 1, Step: 0.5}} }

	var m tea.Model = NewInteractiveApp([]string{"free", "trap"}, nil, defaults, build)
	step := func(k tea.KeyMsg) {
		m, _ = m.Update(k)
	}
	step(tea.KeyMsg{Type: tea.KeyDown})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	step(tea.KeyMsg{Type: tea.KeyRight})
	step(key("s"))

	if gotPreset != "trap" {
		t.Errorf("expected trap, got %q", gotPreset)
	}
	if gotParams["kT"] != 1.5 {
		t.Errorf("expected kT 1.5, got %v", gotParams["kT"])
	}
	if !strings.Contains(m.View(), "TRAP") {
		t.Error("expected live view")
	}
}
