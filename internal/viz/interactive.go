package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bdsim/internal/sim"
)

// Param is one editable value on the setup screen.
type Param struct {
	Name  string
	Value float64
	Step  float64
}

// Builder creates a simulator for a preset with the edited parameters.
type Builder func(preset string, params map[string]float64) (*sim.Simulator, sim.Config, error)

// Defaults returns the editable parameters of a preset.
type Defaults func(preset string) []Param

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type app struct {
	state, cursor int
	presets       []string
	info          map[string]string
	selected      string
	params        []Param
	paramCursor   int
	editing       bool
	editBuf       string
	build         Builder
	defaults      Defaults
	err           error
	liveModel     Model
}

// NewInteractiveApp lists presets, lets the user edit their parameters and
// then runs the live view.
func NewInteractiveApp(presets []string, info map[string]string, defaults Defaults, build Builder) tea.Model {
	return app{
		state:    stateMenu,
		presets:  presets,
		info:     info,
		defaults: defaults,
		build:    build,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(key)
		case stateConfig:
			return m.configKey(key)
		}
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.selected = m.presets[m.cursor]
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
		m.params = m.defaults(m.selected)
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.params[m.paramCursor].Value = v
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		if len(m.params) > 0 {
			m.editing = true
			m.editBuf = strconv.FormatFloat(m.params[m.paramCursor].Value, 'g', -1, 64)
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *app) nudge(dir float64) {
	if len(m.params) == 0 {
		return
	}
	p := &m.params[m.paramCursor]
	p.Value += dir * p.Step
}

func (m app) start() (app, tea.Cmd) {
	values := make(map[string]float64, len(m.params))
	for _, p := range m.params {
		values[p.Name] = p.Value
	}
	s, cfg, err := m.build(m.selected, values)
	if err != nil {
		m.err = err
		return m, nil
	}
	live, err := NewModel(s, cfg, m.selected)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.liveModel, m.state = live, stateSim
	return m, live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

var (
	cursorStyle = lipgloss.NewStyle().Bold(true)
	keyStyle    = lipgloss.NewStyle().Bold(true)
)

func (m app) title(name, sub string) string {
	st := styles()
	return "\n\n    " + st.header.Render(name) + "\n    " + st.muted.Render(sub) + "\n    " + st.muted.Render("─────────────────────────") + "\n\n"
}

func (m app) hints(pairs ...string) string {
	st := styles()
	var b strings.Builder
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Foreground(CurrentTheme.Primary).Render(pairs[i]))
		b.WriteString(st.muted.Render(" " + pairs[i+1] + "  "))
	}
	return b.String() + "\n"
}

func (m app) viewMenu() string {
	st := styles()
	var b strings.Builder
	b.WriteString(m.title("BDSIM", "brownian dynamics"))
	for i, name := range m.presets {
		desc := m.info[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				cursorStyle.Foreground(CurrentTheme.Primary).Render("▸"),
				st.active.Render(fmt.Sprintf("%-14s", name)),
				st.value.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", st.muted.Render(fmt.Sprintf("%-14s", name)), st.muted.Render(desc)))
		}
	}
	b.WriteString(m.hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m app) viewConfig() string {
	st := styles()
	var b strings.Builder
	b.WriteString(m.title(strings.ToUpper(m.selected), m.info[m.selected]))
	for i, p := range m.params {
		val := fmt.Sprintf("%10.4g", p.Value)
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n",
				cursorStyle.Foreground(CurrentTheme.Primary).Render("▸"),
				st.value.Render(fmt.Sprintf("%-12s", p.Name)),
				st.active.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", st.muted.Render(fmt.Sprintf("%-12s", p.Name)), st.muted.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + st.failed.Render(m.err.Error()) + "\n")
	}
	b.WriteString(m.hints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back"))
	return b.String()
}

func RunInteractive(presets []string, info map[string]string, defaults Defaults, build Builder) error {
	_, err := tea.NewProgram(NewInteractiveApp(presets, info, defaults, build), tea.WithAltScreen()).Run()
	return err
}
