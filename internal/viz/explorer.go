package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/agentlab/internal/abm"
	"github.com/san-kum/agentlab/internal/experiment"
)

const (
	stateMenu = iota
	stateParams
	stateResult
)

// Explorer is an interactive browser over the model registry: pick a
// model, tweak its parameters and run it, with recorded variables
// plotted straight into the terminal.
type Explorer struct {
	registry *experiment.Registry
	models   []string
	cursor   int

	selected   experiment.Definition
	params     abm.Params
	paramNames []string
	paramCur   int
	editing    bool
	editBuf    string

	// Render, when set, replaces the built-in plot rendering of a
	// finished run.
	Render func(*abm.Bundle) string

	state  int
	result string
	err    error
	width  int
}

func NewExplorer(registry *experiment.Registry) *Explorer {
	return &Explorer{
		registry: registry,
		models:   registry.List(),
		state:    stateMenu,
		width:    80,
	}
}

func (m Explorer) Init() tea.Cmd { return nil }

func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m Explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateParams:
		return m.paramsKey(msg)
	case stateResult:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "escape", "enter":
			m.state = stateParams
		}
	}
	return m, nil
}

func (m Explorer) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "enter", " ":
		def, err := m.registry.Get(m.models[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.selected = def
		m.params = def.Defaults.Clone()
		m.paramNames = make([]string, 0, len(m.params))
		for name := range m.params {
			m.paramNames = append(m.paramNames, name)
		}
		sort.Strings(m.paramNames)
		m.paramCur = 0
		m.state = stateParams
	}
	return m, nil
}

func (m Explorer) paramsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			m.commitEdit()
		case "escape":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "escape":
		m.state = stateMenu
	case "up", "k":
		if m.paramCur > 0 {
			m.paramCur--
		}
	case "down", "j":
		if m.paramCur < len(m.paramNames)-1 {
			m.paramCur++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = formatParam(m.params[m.paramNames[m.paramCur]])
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(+1)
	case "s":
		m.runModel()
		m.state = stateResult
	}
	return m, nil
}

func (m *Explorer) commitEdit() {
	name := m.paramNames[m.paramCur]
	switch m.params[name].(type) {
	case int:
		if v, err := strconv.Atoi(m.editBuf); err == nil {
			m.params[name] = v
		}
	default:
		if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
			m.params[name] = v
		}
	}
	m.editing, m.editBuf = false, ""
}

// adjust nudges the selected parameter: integers by one, floats by a
// tenth.
func (m *Explorer) adjust(dir int) {
	name := m.paramNames[m.paramCur]
	switch v := m.params[name].(type) {
	case int:
		m.params[name] = v + dir
	case float64:
		m.params[name] = v + 0.1*float64(dir)
	}
}

func (m *Explorer) runModel() {
	m.err = nil
	m.result = ""

	model := abm.New(m.selected.Name, m.selected.Factory(), m.params.Clone())
	bundle, err := model.Run(abm.RunConfig{Steps: -1})
	if err != nil {
		m.err = err
		return
	}

	if m.Render != nil {
		m.result = m.Render(bundle)
		return
	}

	var b strings.Builder
	if vars, ok := bundle.Variables["model"]; ok {
		for _, column := range vars.Columns() {
			plot, err := PlotSeries(vars, column, 0, 0)
			if err != nil {
				continue
			}
			b.WriteString(plot + "\n\n")
		}
	}
	if len(bundle.MeasureNames) > 0 {
		for _, name := range bundle.MeasureNames {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				MetricLabel.Render(name),
				MetricValue.Render(strconv.FormatFloat(bundle.Measures[name], 'g', 6, 64))))
		}
	}
	if b.Len() == 0 {
		b.WriteString("  " + Subtle.Render("model recorded nothing") + "\n")
	}
	m.result = b.String()
}

func (m Explorer) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateParams:
		return m.viewParams()
	case stateResult:
		return m.viewResult()
	}
	return ""
}

func (m Explorer) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + Title.Render("AGENTLAB") + "\n    " +
		Subtle.Render("agent-based modeling lab") + "\n    " + Separator(25) + "\n\n")
	for i, name := range m.models {
		desc := ""
		if def, err := m.registry.Get(name); err == nil {
			desc = def.Description
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				Title.Render("▸"),
				Selected.Render(fmt.Sprintf("%-12s", name)),
				Accent.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n",
				Subtle.Render(fmt.Sprintf("%-12s", name)),
				Subtle.Render(desc)))
		}
	}
	b.WriteString("\n    " + KeyHint.Render("j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

func (m Explorer) viewParams() string {
	var b strings.Builder
	b.WriteString("\n\n    " + Title.Render(strings.ToUpper(m.selected.Name)) + "\n    " +
		Subtle.Render(m.selected.Description) + "\n    " + Separator(25) + "\n\n")
	for i, name := range m.paramNames {
		valStr := fmt.Sprintf("%8s", formatParam(m.params[name]))
		if m.editing && i == m.paramCur {
			valStr = fmt.Sprintf("%8s", m.editBuf+"_")
		}
		if i == m.paramCur {
			b.WriteString(fmt.Sprintf("    %s %s %s\n",
				Title.Render("▸"),
				Selected.Render(fmt.Sprintf("%-10s", name)),
				Accent.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n",
				Subtle.Render(fmt.Sprintf("%-10s", name)),
				Subtle.Render(valStr)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + StatusFailed.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + KeyHint.Render("j/k select  h/l adjust  enter edit  s run  esc back") + "\n")
	return b.String()
}

func (m Explorer) viewResult() string {
	var b strings.Builder
	b.WriteString("\n    " + Title.Render(strings.ToUpper(m.selected.Name)) +
		Subtle.Render("  single run") + "\n\n")
	if m.err != nil {
		b.WriteString("    " + StatusFailed.Render(m.err.Error()) + "\n")
	} else {
		b.WriteString(m.result)
	}
	b.WriteString("\n    " + KeyHint.Render("esc back  q quit") + "\n")
	return b.String()
}

func formatParam(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'g', 4, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RunExplorer starts the interactive explorer.
func RunExplorer(registry *experiment.Registry) error {
	_, err := tea.NewProgram(NewExplorer(registry), tea.WithAltScreen()).Run()
	return err
}
