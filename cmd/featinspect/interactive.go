package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/featuredecode/resource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	featureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dtypeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// pageSize is the number of records listed at once.
const pageSize = 20

type interactiveModel struct {
	err       error
	cfg       config
	records   []recordSummary
	filter    textinput.Model
	selected  int
	state     modelState
	loaded    bool
	filtering bool
}

type modelState int

const (
	stateSelectRecord modelState = iota
	stateShowRecord
)

func newInteractiveModel(cfg config) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "feature: "
	ti.Placeholder = "filter"
	ti.Width = 40
	return &interactiveModel{
		cfg:    cfg,
		filter: ti,
		state:  stateSelectRecord,
	}
}

type loadedMsg struct {
	err     error
	records []recordSummary
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadRecords
}

func (m *interactiveModel) loadRecords() tea.Msg {
	data, err := loadRecords(m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}

	table := resource.NewTable()
	records, err := decodeAll(context.Background(), newDecoder(m.cfg, table), data, m.cfg.features, m.cfg.workers)
	if err != nil {
		return loadedMsg{err: err}
	}
	if err := table.Close(); err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{records: records}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectRecord && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectRecord && m.selected < len(m.records)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectRecord:
				if len(m.records) > 0 {
					m.state = stateShowRecord
				}
			case stateShowRecord:
				m.state = stateSelectRecord
			}

		case "/":
			if m.state == stateShowRecord {
				m.filtering = true
				return m, m.filter.Focus()
			}

		case "esc":
			if m.state == stateShowRecord {
				m.state = stateSelectRecord
				m.filter.SetValue("")
			}
		}

	case loadedMsg:
		m.loaded = true
		m.err = msg.err
		m.records = msg.records
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Decoding records..."
	}

	source := m.cfg.file
	if source == "" {
		source = m.cfg.records
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Feature Inspector"))
	b.WriteString(" ")
	b.WriteString(source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectRecord:
		b.WriteString(fmt.Sprintf("%d records:\n\n", len(m.records)))
		start := max(0, m.selected-pageSize+1)
		end := min(len(m.records), start+pageSize)
		for i := start; i < end; i++ {
			line := m.formatRecord(m.records[i])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateShowRecord:
		rec := m.records[m.selected]
		b.WriteString(rec.filtered(m.filter.Value()).render(true))
		b.WriteString("\n")
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("/ filter • enter back • esc clear • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatRecord(r recordSummary) string {
	if r.err != nil {
		return fmt.Sprintf("#%-5d %6d bytes  %s", r.index, r.size, errorStyle.Render("error"))
	}
	names := make([]string, 0, len(r.features))
	for _, f := range r.features {
		names = append(names, featureStyle.Render(f.name)+":"+dtypeStyle.Render(f.dtype))
	}
	return fmt.Sprintf("#%-5d %6d bytes  %s", r.index, r.size, strings.Join(names, " "))
}

// filtered returns a copy of r keeping features whose name contains sub.
func (r recordSummary) filtered(sub string) recordSummary {
	if sub == "" {
		return r
	}
	out := r
	out.features = nil
	for _, f := range r.features {
		if strings.Contains(f.name, sub) {
			out.features = append(out.features, f)
		}
	}
	return out
}

func runInteractive(cfg config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
