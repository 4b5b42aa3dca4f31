package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/pexe"
	"github.com/wippyai/pexe/bitcode"
	"github.com/wippyai/pexe/dump"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// chromeHeight is the number of rows used by the title, filter and help.
const chromeHeight = 5

type browserModel struct {
	err      error
	doc      *bitcode.Document
	load     func() (*bitcode.Document, error)
	location string
	lines    []dump.Line
	shown    int
	opts     dump.TextOptions
	filter   textinput.Model
	view     viewport.Model
	ready    bool
}

type loadedMsg struct {
	err error
	doc *bitcode.Document
}

func newBrowserModel(location string, opts dump.TextOptions, load func() (*bitcode.Document, error)) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter, e.g. block 12 or record 7"
	ti.Prompt = "/ "
	ti.Width = 40
	return &browserModel{
		location: location,
		opts:     opts,
		load:     load,
		filter:   ti,
		view:     viewport.New(80, 20),
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.loadDocument
}

func (m *browserModel) loadDocument() tea.Msg {
	doc, err := m.load()
	return loadedMsg{doc: doc, err: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(1, msg.Height-chromeHeight)
		m.ready = true
		m.refresh()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.doc = msg.doc
		m.lines = dump.Flatten(msg.doc, m.opts)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter":
				m.filter.Blur()
				return m, nil
			case "esc":
				m.filter.Blur()
				m.filter.SetValue("")
				m.refresh()
				return m, nil
			}
			m.filter, cmd = m.filter.Update(msg)
			m.refresh()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "/":
			m.filter.Focus()
			return m, textinput.Blink
		case "esc":
			m.filter.SetValue("")
			m.refresh()
			return m, nil
		}
	}

	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// refresh rebuilds the viewport content from the lines matching the filter.
func (m *browserModel) refresh() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	var b strings.Builder
	m.shown = 0
	for _, l := range m.lines {
		if query != "" && !strings.Contains(strings.ToLower(l.Label), query) {
			continue
		}
		if m.shown > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderLine(l, query != ""))
		m.shown++
	}
	m.view.SetContent(b.String())
	m.view.GotoTop()
}

// renderLine draws l. Matches get the highlight style over an uncolored
// label so the line style cannot reset the highlight.
func (m *browserModel) renderLine(l dump.Line, match bool) string {
	if !match {
		return dump.Render(l, m.opts)
	}
	plain := m.opts
	plain.Color = false
	return matchStyle.Render(dump.Render(l, plain))
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.doc == nil {
		return "Loading " + m.location + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("PEXE Browser"))
	b.WriteString(" ")
	b.WriteString(m.location)
	fmt.Fprintf(&b, "  %d/%d lines\n\n", m.shown, len(m.lines))
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n")
	if m.filter.Focused() {
		b.WriteString(helpStyle.Render("enter apply • esc clear"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ scroll • / filter • esc clear • q quit"))
	}
	return b.String()
}

func runInteractive(ctx context.Context, s settings, log *zap.Logger) error {
	load := func() (*bitcode.Document, error) {
		return pexe.DecodeLocation(ctx, s.location, pexe.Options{
			Decode: s.decodeOptions(log),
			Logger: log,
		})
	}
	opts := s.textOptions(true)
	p := tea.NewProgram(newBrowserModel(s.location, opts, load), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
