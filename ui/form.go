package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yonagi/retroboard/gateway"
)

// Form field positions. The join form's first field is the room id, the
// create form's is the room name; the rest line up.
const (
	fieldRoom = iota
	fieldName
	fieldPassword
	fieldCount
)

// minPasswordLen guards the cheapest class of failure client-side; short
// credentials never reach the backend.
const minPasswordLen = 4

// formModel is the join/create screen: three text inputs, per-field error
// lines and a general banner for everything that has no better home.
type formModel struct {
	join       bool
	inputs     []textinput.Model
	fieldErrs  []string
	banner     string
	focus      int
	submitting bool
}

func newForm(join bool, roomID, userName string) formModel {
	inputs := make([]textinput.Model, fieldCount)

	room := textinput.New()
	if join {
		room.Placeholder = "room id"
		room.SetValue(roomID)
	} else {
		room.Placeholder = "room name"
		room.SetValue(roomID)
	}
	room.CharLimit = 64
	room.Width = 32
	room.Focus()
	inputs[fieldRoom] = room

	name := textinput.New()
	name.Placeholder = "your name"
	name.SetValue(userName)
	name.CharLimit = 32
	name.Width = 32
	inputs[fieldName] = name

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64
	password.Width = 32
	inputs[fieldPassword] = password

	return formModel{
		join:      join,
		inputs:    inputs,
		fieldErrs: make([]string, fieldCount),
	}
}

// validate fills per-field errors for anything that must not reach the
// backend. Returns true when the form may be submitted.
func (f *formModel) validate() bool {
	for i := range f.fieldErrs {
		f.fieldErrs[i] = ""
	}
	f.banner = ""

	ok := true
	if strings.TrimSpace(f.inputs[fieldRoom].Value()) == "" {
		if f.join {
			f.fieldErrs[fieldRoom] = "room id is required"
		} else {
			f.fieldErrs[fieldRoom] = "room name is required"
		}
		ok = false
	}
	if strings.TrimSpace(f.inputs[fieldName].Value()) == "" {
		f.fieldErrs[fieldName] = "name is required"
		ok = false
	}
	if len(f.inputs[fieldPassword].Value()) < minPasswordLen {
		f.fieldErrs[fieldPassword] = "password must be at least 4 characters"
		ok = false
	}
	return ok
}

// fail maps a backend failure onto the form. Structured kinds pick the
// field; everything else lands in the banner.
func (f *formModel) fail(err error) {
	f.submitting = false
	switch {
	case gateway.IsKind(err, gateway.KindRoomNotFound):
		f.fieldErrs[fieldRoom] = "room not found"
	case gateway.IsKind(err, gateway.KindBadPassword):
		f.fieldErrs[fieldPassword] = "invalid password"
	default:
		f.banner = err.Error()
	}
}

func (f *formModel) cycleFocus(delta int) tea.Cmd {
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *formModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i], cmds[i] = f.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (f formModel) view() string {
	var b strings.Builder

	if f.join {
		b.WriteString(titleStyle.Render("Join a retrospective"))
	} else {
		b.WriteString(titleStyle.Render("Create a retrospective"))
	}
	b.WriteString("\n\n")

	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if f.fieldErrs[i] != "" {
			b.WriteString(errorStyle.Render(f.fieldErrs[i]))
			b.WriteString("\n")
		}
	}

	if f.banner != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(f.banner))
		b.WriteString("\n")
	}
	if f.submitting {
		b.WriteString("\n" + helpStyle.Render("contacting server..."))
	} else {
		b.WriteString("\n" + helpStyle.Render("tab: next field • enter: submit • esc: quit"))
	}
	return b.String()
}
