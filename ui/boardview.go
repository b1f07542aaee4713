package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yonagi/retroboard/board"
	"github.com/yonagi/retroboard/model"
)

var categoryLabels = map[model.Category]string{
	model.CategoryWentWell:    "Went well",
	model.CategoryToImprove:   "To improve",
	model.CategoryActionItems: "Action items",
}

func (m Model) currentCategory() model.Category {
	return model.Categories()[m.col]
}

func (m Model) selectedNote() (model.Note, bool) {
	notes := m.st.NotesIn(m.currentCategory())
	if m.row < 0 || m.row >= len(notes) {
		return model.Note{}, false
	}
	return notes[m.row], true
}

func (m Model) clampCursor() Model {
	if m.col < 0 {
		m.col = 0
	}
	if max := len(model.Categories()) - 1; m.col > max {
		m.col = max
	}
	notes := m.st.NotesIn(m.currentCategory())
	if m.row >= len(notes) {
		m.row = len(notes) - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	return m
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	orc := m.orc

	if m.editing != editNone {
		switch msg.Type {
		case tea.KeyEsc:
			m.editing = editNone
			m.input.Blur()
			m.input.SetValue("")
			return m, nil
		case tea.KeyEnter:
			// Empty text is committed as-is: an empty note is a valid
			// persisted state, not a cancel.
			text := m.input.Value()
			target := m.editing
			id := m.editID
			category := m.currentCategory()
			m.editing = editNone
			m.input.Blur()
			m.input.SetValue("")
			if target == editCompose {
				return m, m.gestureCmd(func(ctx context.Context, st board.State) []board.Action {
					return orc.CreateNote(ctx, st, category, text)
				})
			}
			return m, m.gestureCmd(func(ctx context.Context, st board.State) []board.Action {
				return orc.UpdateNote(ctx, st, id, text)
			})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.orc.Leave()
		return m, tea.Quit

	case "left", "h":
		m.col--
		return m.clampCursor(), nil
	case "right", "l":
		m.col++
		return m.clampCursor(), nil
	case "up", "k":
		m.row--
		return m.clampCursor(), nil
	case "down", "j":
		m.row++
		return m.clampCursor(), nil

	case "n":
		m.editing = editCompose
		m.input.Placeholder = "new note in " + categoryLabels[m.currentCategory()]
		m.input.SetValue("")
		return m, m.input.Focus()

	case "e":
		note, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		m.editing = editExisting
		m.editID = note.ID
		m.input.Placeholder = "edit note"
		m.input.SetValue(note.Text)
		return m, m.input.Focus()

	case "d":
		note, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		id := note.ID
		return m, m.gestureCmd(func(ctx context.Context, st board.State) []board.Action {
			return orc.DeleteNote(ctx, st, id)
		})

	case "v":
		note, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		id := note.ID
		return m, m.gestureCmd(func(ctx context.Context, st board.State) []board.Action {
			return orc.ToggleVote(ctx, st, id)
		})

	case "[", "]":
		note, ok := m.selectedNote()
		if !ok {
			return m, nil
		}
		delta := 1
		if msg.String() == "[" {
			delta = -1
		}
		cats := model.Categories()
		target := m.col + delta
		if target < 0 || target >= len(cats) {
			return m, nil
		}
		id := note.ID
		targetCat := cats[target]
		return m, m.gestureCmd(func(ctx context.Context, st board.State) []board.Action {
			return orc.MoveNote(ctx, st, id, targetCat)
		})

	case "r":
		return m, m.reloadCmd()

	case "x":
		m.st = board.Apply(m.st, board.ClearError{})
		return m, nil
	}
	return m, nil
}

func (m Model) boardView() string {
	var b strings.Builder

	header := titleStyle.Render(m.st.Room.Name)
	if m.st.Room.ID != "" {
		header += helpStyle.Render("  (" + m.st.Room.ID + ")")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if len(m.st.Participants) > 0 {
		names := make([]string, 0, len(m.st.Participants))
		for _, p := range m.st.Participants {
			name := p.Name
			if name == m.st.User.Name {
				name += " (you)"
			}
			names = append(names, name)
		}
		b.WriteString(participantStyle.Render("here: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	colWidth := m.width/3 - 4
	if colWidth < 16 {
		colWidth = 16
	}

	columns := make([]string, 0, 3)
	for i, c := range model.Categories() {
		columns = append(columns, m.renderColumn(i, c, colWidth))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n")

	if m.editing != editNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.st.Err != "" {
		b.WriteString(errorStyle.Render(m.st.Err))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("n: new • e: edit • d: delete • v: vote • [/]: move • r: refresh • x: dismiss error • q: quit"))
	return b.String()
}

func (m Model) renderColumn(idx int, c model.Category, width int) string {
	notes := m.st.NotesIn(c)

	var b strings.Builder
	b.WriteString(columnTitleStyle.Render(fmt.Sprintf("%s (%d)", categoryLabels[c], len(notes))))
	b.WriteString("\n")

	for i, n := range notes {
		b.WriteString(m.renderNote(n, width-4, idx == m.col && i == m.row))
		b.WriteString("\n")
	}
	if len(notes) == 0 {
		b.WriteString(helpStyle.Render("  (empty)"))
		b.WriteString("\n")
	}

	style := columnStyle
	if idx == m.col {
		style = focusedColumnStyle
	}
	return style.Width(width).Render(b.String())
}

func (m Model) renderNote(n model.Note, width int, selected bool) string {
	text := n.Text
	if text == "" {
		text = "(empty)"
	}
	body := lipgloss.NewStyle().Width(width).Render(text)

	vote := voteStyle.Render(fmt.Sprintf("▲ %d", n.Votes))
	if n.HasVoted(m.st.User.Name) {
		vote += voteStyle.Render(" ✓")
	}
	meta := authorStyle.Render("— "+n.Author) + "  " + vote

	style := noteStyle
	if selected {
		style = selectedNoteStyle
	}
	return style.Render(body + "\n" + meta)
}
