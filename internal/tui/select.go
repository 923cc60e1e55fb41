// Package tui is the terminal selection surface over a selection session.
// All state transitions go through the session; the model only tracks the
// cursor and translates key presses into session operations.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qxxt/pkgup/internal/session"
	"github.com/qxxt/pkgup/internal/upgrade"
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Unselect    key.Binding
	SelectAll   key.Binding
	UnselectAll key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "tab"),
			key.WithHelp("space", "toggle"),
		),
		Unselect: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unselect"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		UnselectAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "unselect all"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter", "upgrade selected"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "cancel"),
		),
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model for the upgrade selection screen.
type Model struct {
	session  *session.Session
	keys     keyMap
	cursor   int
	notice   string
	selected []int
	quitting bool
}

// NewModel creates a selection model over an open session.
func NewModel(s *session.Session) Model {
	return Model{session: s, keys: defaultKeyMap()}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.notice = ""

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < m.session.Len()-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, m.keys.Toggle):
		if m.session.Selected(m.cursor) {
			m.session.Unselect(m.cursor)
		} else {
			m.session.Select(m.cursor)
		}

	case key.Matches(keyMsg, m.keys.Unselect):
		m.session.Unselect(m.cursor)

	case key.Matches(keyMsg, m.keys.SelectAll):
		m.session.SelectAll()

	case key.Matches(keyMsg, m.keys.UnselectAll):
		m.session.UnselectAll()

	case key.Matches(keyMsg, m.keys.Confirm):
		selected, err := m.session.Confirm()
		if err != nil {
			// ErrNothingSelected: the session stays Open; show the
			// refusal and keep editing.
			m.notice = err.Error()
			return m, nil
		}
		m.selected = selected
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Cancel):
		m.session.Cancel()
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	render := m.session.Render()

	var b strings.Builder
	b.WriteString(titleStyle.Render(render.Header))
	b.WriteString("\n\n")

	for i, line := range render.Lines {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		checkbox := "[ ]"
		style := normalStyle
		if line.Selected {
			checkbox = "[x]"
			style = selectedStyle
		}

		text := fmt.Sprintf("%s%s %s", cursor, checkbox, line.Text)
		if i == m.cursor {
			b.WriteString(cursorStyle.Render(text))
		} else {
			b.WriteString(style.Render(text))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.legend()))
	b.WriteString("\n")

	return b.String()
}

func (m Model) legend() string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.Unselect,
		m.keys.SelectAll, m.keys.UnselectAll, m.keys.Confirm, m.keys.Cancel,
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " | ")
}

// RunSelector opens the interactive selection over candidates and blocks
// until the user confirms or cancels. It satisfies upgrade.Selector.
func RunSelector(candidates upgrade.CandidateSet) ([]int, bool, error) {
	s := session.New(candidates)
	model := NewModel(s)

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, false, fmt.Errorf("selection failed: %w", err)
	}

	m := final.(Model)
	if s.Status() != session.Confirmed {
		return nil, false, nil
	}
	return m.selected, true, nil
}
