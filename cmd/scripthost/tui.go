package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reglet-dev/reglet-scripthost/hostapp"
	"github.com/reglet-dev/reglet-scripthost/ui/termui"
)

const consoleLines = 8

var (
	consoleStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#45475a")).Padding(0, 1)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")).Background(lipgloss.Color("#313244")).Padding(0, 2)
)

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	app      *hostapp.App
	frame    *termui.Frame
	interval time.Duration
	last     time.Time
	typing   bool
	input    string
	width    int
}

func newModel(app *hostapp.App, frameRate int) model {
	return model{
		app:      app,
		frame:    termui.New(),
		interval: time.Second / time.Duration(max(frameRate, 1)),
	}
}

func runTUI(app *hostapp.App, frameRate int) error {
	p := tea.NewProgram(newModel(app, frameRate), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd { return tick(m.interval) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		dt := m.interval
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now
		m.app.Tick(dt)
		m.frame.Begin()
		m.app.Render(m.frame)
		m.frame.Finish()
		return m, tick(m.interval)
	case tea.KeyMsg:
		if m.typing {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		m.frame.Next()
	case "shift+tab", "up":
		m.frame.Prev()
	case "enter", " ":
		m.frame.Activate()
	case ":":
		m.typing = true
	case "h":
		m.app.SetVisible(!m.app.Visible())
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.typing = false
		m.input = ""
	case tea.KeyEnter:
		m.app.Submit(m.input)
		m.input = ""
		m.typing = false
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m model) View() string {
	lines := m.app.Console().Tail(consoleLines)
	console := consoleStyle.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n"))

	prompt := footerStyle.Render("tab focus · enter activate · : console · h hide · q quit")
	if m.typing {
		prompt = promptStyle.Render("> ") + m.input + "█"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.frame.View(), console, prompt)
}
