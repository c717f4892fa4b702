package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-synth/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	importStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D8BFD8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	stateShowBody
)

type interactiveModel struct {
	err      error
	summary  *moduleSummary
	name     string
	data     []byte
	filter   textinput.Model
	visible  []int
	selected int
	state    modelState
}

type loadedMsg struct {
	err     error
	summary *moduleSummary
}

func newInteractiveModel(name string, data []byte) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "name or export"
	ti.Prompt = "/ "
	ti.Width = 40

	return &interactiveModel{
		name:   name,
		data:   data,
		filter: ti,
		state:  stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	s, err := summarize(m.data)
	return loadedMsg{summary: s, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.visible) > 0 {
					m.state = stateShowBody
				}
			case stateShowBody:
				m.state = stateBrowse
			}

		case "esc":
			switch m.state {
			case stateShowBody:
				m.state = stateBrowse
			case stateBrowse:
				m.filter.SetValue("")
				m.applyFilter()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = msg.summary
		m.applyFilter()
	}

	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		m.filter.Blur()
		m.state = stateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	m.visible = m.visible[:0]
	if m.summary == nil {
		return
	}
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	for i, f := range m.summary.funcs {
		if q == "" || matchFunc(f, q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func matchFunc(f funcSummary, q string) bool {
	if strings.Contains(strings.ToLower(f.name), q) {
		return true
	}
	for _, e := range f.exports {
		if strings.Contains(strings.ToLower(e), q) {
			return true
		}
	}
	return false
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.summary == nil {
		return "Decoding module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Synth"))
	b.WriteString(" ")
	b.WriteString(m.name)
	b.WriteString(fmt.Sprintf(" (%d bytes)", m.summary.size))
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateFilter:
		b.WriteString(m.sectionsLine())
		b.WriteString("\n\n")
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching functions"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			f := m.summary.funcs[idx]
			line := m.formatFunc(f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("type to filter • enter/esc done"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter show body • / filter • q quit"))
		}

	case stateShowBody:
		f := m.summary.funcs[m.visible[m.selected]]
		b.WriteString(m.formatFunc(f))
		b.WriteString("\n\n")
		switch {
		case f.imported:
			b.WriteString(importStyle.Render("imported, no body"))
			b.WriteString("\n")
		default:
			if f.locals > 0 {
				b.WriteString(fmt.Sprintf("(local i64 × %d)\n", f.locals))
			}
			if len(f.callees) > 0 {
				b.WriteString(importStyle.Render("calls " + f.calls()))
				b.WriteString("\n")
			}
			for _, line := range f.body {
				b.WriteString("  ")
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) sectionsLine() string {
	names := make([]string, 0, len(m.summary.sections))
	for _, sec := range m.summary.sections {
		name := wasm.SectionName(sec.ID)
		if sec.Name != "" {
			name = sec.Name
		}
		names = append(names, fmt.Sprintf("%s:%d", name, sec.Size))
	}
	return sectionStyle.Render(strings.Join(names, "  "))
}

func (m *interactiveModel) formatFunc(f funcSummary) string {
	if f.imported {
		return importStyle.Render(f.signature())
	}
	return funcStyle.Render(f.signature())
}

func runInteractive(name string, data []byte) error {
	p := tea.NewProgram(newInteractiveModel(name, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
