package session

import "fmt"

// Line is one candidate row of the render model.
type Line struct {
	// Text is the candidate in selection-line format:
	// "name (1.0) => (1.1)" or "name (2.0) (vc)".
	Text string
	// Selected mirrors the session's selection for this row.
	Selected bool
}

// RenderModel is a pure projection of session state for a line-oriented
// interactive surface. Line position maps one-to-one onto candidate index.
// The surface contributes its own keybinding legend; bindings are not part
// of the session contract.
type RenderModel struct {
	Header string
	Lines  []Line
}

// Render projects the current session state.
func (s *Session) Render() RenderModel {
	m := RenderModel{
		Header: fmt.Sprintf("Upgradable packages (%d selected of %d)", len(s.selected), len(s.candidates)),
		Lines:  make([]Line, len(s.candidates)),
	}
	for i, c := range s.candidates {
		m.Lines[i] = Line{Text: c.String(), Selected: s.selected[i]}
	}
	return m
}
