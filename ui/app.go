package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/yonagi/retroboard/board"
	"github.com/yonagi/retroboard/model"
)

// Mode selects which flow the program starts in.
type Mode int

const (
	// ModeCreate opens the create-room form.
	ModeCreate Mode = iota
	// ModeJoin heads for the given room: silent session restore first,
	// the join form only when that fails.
	ModeJoin
)

// Options wires the program. Everything is injected; the UI owns no
// network or storage of its own.
type Options struct {
	Orchestrator *board.Orchestrator
	Logger       *logrus.Logger
	Mode         Mode
	// RoomID is the join target (or a prefilled room name when creating).
	RoomID string
	// UserName prefills the name field.
	UserName string
}

// NewProgram builds the bubbletea program for the client.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(newModel(opts), tea.WithAltScreen())
}

type screen int

const (
	screenForm screen = iota
	screenEntering
	screenBoard
)

type editTarget int

const (
	editNone editTarget = iota
	editCompose
	editExisting
)

// Model is the top-level bubbletea model. The reducer state inside it is
// only ever advanced here, in Update, which is the one event loop the
// whole client runs on.
type Model struct {
	orc *board.Orchestrator
	log *logrus.Logger

	screen screen
	form   formModel
	st     board.State

	col     int
	row     int
	input   textinput.Model
	editing editTarget
	editID  string

	width  int
	height int
	ready  bool
}

// Messages produced by asynchronous work. Each carries the orchestrator
// generation it was issued under; stale ones are dropped on arrival.
type (
	enterResultMsg struct {
		gen     uint64
		outcome board.EnterOutcome
	}
	authResultMsg struct {
		gen     uint64
		outcome board.EnterOutcome
		err     error
	}
	actionsMsg struct {
		gen     uint64
		actions []board.Action
	}
	feedEventMsg struct {
		gen   uint64
		event model.Event
		open  bool
	}
)

func newModel(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	input := textinput.New()
	input.Placeholder = "note text"
	input.CharLimit = 280
	input.Width = 40

	m := Model{
		orc:   opts.Orchestrator,
		log:   log,
		st:    board.NewState(),
		input: input,
	}

	switch opts.Mode {
	case ModeJoin:
		if opts.RoomID != "" {
			m.screen = screenEntering
			m.st = board.Apply(m.st, board.SetLoading{Loading: true})
		} else {
			m.screen = screenForm
		}
		m.form = newForm(true, opts.RoomID, opts.UserName)
	default:
		m.screen = screenForm
		m.form = newForm(false, opts.RoomID, opts.UserName)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenEntering {
		return tea.Batch(textinput.Blink, m.enterCmd(m.form.inputs[fieldRoom].Value()))
	}
	return textinput.Blink
}

// enterCmd runs the restore-validate-load sequence off the loop.
func (m Model) enterCmd(roomID string) tea.Cmd {
	gen := m.orc.Generation()
	orc := m.orc
	return func() tea.Msg {
		return enterResultMsg{gen: gen, outcome: orc.Enter(context.Background(), roomID)}
	}
}

// authCmd submits the form credentials.
func (m Model) authCmd() tea.Cmd {
	gen := m.orc.Generation()
	orc := m.orc
	join := m.form.join
	room := m.form.inputs[fieldRoom].Value()
	name := m.form.inputs[fieldName].Value()
	password := m.form.inputs[fieldPassword].Value()
	return func() tea.Msg {
		var outcome board.EnterOutcome
		var err error
		if join {
			outcome, err = orc.JoinRoomAndEnter(context.Background(), room, password, name)
		} else {
			outcome, err = orc.CreateRoomAndEnter(context.Background(), room, password, name)
		}
		return authResultMsg{gen: gen, outcome: outcome, err: err}
	}
}

// gestureCmd issues one user gesture against the orchestrator.
func (m Model) gestureCmd(run func(context.Context, board.State) []board.Action) tea.Cmd {
	gen := m.orc.Generation()
	st := m.st
	return func() tea.Msg {
		return actionsMsg{gen: gen, actions: run(context.Background(), st)}
	}
}

// reloadCmd refetches the authoritative snapshot.
func (m Model) reloadCmd() tea.Cmd {
	gen := m.orc.Generation()
	orc := m.orc
	return func() tea.Msg {
		return actionsMsg{gen: gen, actions: orc.LoadSnapshot(context.Background())}
	}
}

// waitForEvent re-arms the change-feed pump, the same way the network
// read loop is re-armed after every message in a chat client.
func (m Model) waitForEvent() tea.Cmd {
	ch := m.orc.Events()
	if ch == nil {
		return nil
	}
	gen := m.orc.Generation()
	return func() tea.Msg {
		event, open := <-ch
		return feedEventMsg{gen: gen, event: event, open: open}
	}
}

func (m Model) applyActions(actions []board.Action) Model {
	for _, a := range actions {
		m.st = board.Apply(m.st, a)
	}
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case enterResultMsg:
		if !m.orc.Live(msg.gen) {
			return m, nil
		}
		if msg.outcome.Redirect {
			m.screen = screenForm
			m.form = newForm(true, msg.outcome.RoomID, m.form.inputs[fieldName].Value())
			m.st = board.Apply(m.st, board.SetLoading{Loading: false})
			return m, textinput.Blink
		}
		m = m.applyActions(msg.outcome.Actions)
		m.screen = screenBoard
		return m, m.waitForEvent()

	case authResultMsg:
		if !m.orc.Live(msg.gen) {
			return m, nil
		}
		if msg.err != nil {
			m.form.fail(msg.err)
			return m, nil
		}
		if msg.outcome.Redirect {
			m.form.submitting = false
			m.form.banner = "could not load the room, try again"
			return m, nil
		}
		m = m.applyActions(msg.outcome.Actions)
		m.screen = screenBoard
		return m, m.waitForEvent()

	case actionsMsg:
		if !m.orc.Live(msg.gen) {
			return m, nil
		}
		return m.applyActions(msg.actions), nil

	case feedEventMsg:
		if !m.orc.Live(msg.gen) {
			return m, nil
		}
		if !msg.open {
			m.st = board.Apply(m.st, board.SetError{Message: "live updates disconnected, press r to refresh"})
			return m, nil
		}
		actions, reload := m.orc.HandleEvent(msg.event)
		m = m.applyActions(actions)
		if reload {
			return m, tea.Batch(m.waitForEvent(), m.reloadCmd())
		}
		return m, m.waitForEvent()
	}

	return m.updateFocused(msg)
}

// updateFocused forwards everything else (blinks, pastes) to whichever
// text input currently has focus.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenForm:
		cmd := m.form.updateInputs(msg)
		return m, cmd
	case screenBoard:
		if m.editing != editNone {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.orc.Leave()
		return m, tea.Quit
	}

	switch m.screen {
	case screenForm:
		return m.handleFormKey(msg)
	case screenEntering:
		if msg.Type == tea.KeyEsc {
			m.orc.Leave()
			return m, tea.Quit
		}
		return m, nil
	case screenBoard:
		return m.handleBoardKey(msg)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.orc.Leave()
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return m, m.form.cycleFocus(1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.form.cycleFocus(-1)
	case tea.KeyEnter:
		if m.form.submitting {
			return m, nil
		}
		if !m.form.validate() {
			return m, nil
		}
		m.form.submitting = true
		return m, m.authCmd()
	}
	cmd := m.form.updateInputs(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	switch m.screen {
	case screenForm:
		return "\n" + m.form.view()
	case screenEntering:
		return "\n  " + helpStyle.Render("restoring session...")
	case screenBoard:
		return m.boardView()
	}
	return ""
}
