// Package ui implements the interactive terminal task list on bubbletea.
//
// The model never changes tasks itself: every key that mutates the list
// starts a store operation as a tea.Cmd, and the view is re-rendered from
// the store snapshot once the operation reports back.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/store"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

// opDoneMsg reports the end of a store operation.
type opDoneMsg struct {
	op  store.Operation
	err error
}

// refreshMsg asks the model to re-read the store snapshot.
type refreshMsg struct{}

// dismissMsg closes the notice with the given id if it is still shown.
type dismissMsg struct {
	id uint64
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger for UI debug output.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}

// Model is the bubbletea model of the task list screen.
type Model struct {
	ctx    context.Context
	store  *store.Store
	log    *log.Logger
	input  textinput.Model
	state  store.State
	cursor int
	focus  focus
	loaded bool
	width  int
}

// New creates the model. Nothing is loaded until Init runs.
func New(ctx context.Context, st *store.Store, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.Width = 40
	ti.Focus()

	m := Model{
		ctx:   ctx,
		store: st,
		log:   logging.Discard(),
		input: ti,
		state: st.State(),
		focus: focusInput,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the collection once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-16, 10)
		return m, nil
	case refreshMsg:
		m.sync()
		return m, nil
	case opDoneMsg:
		return m.handleOpDone(msg)
	case dismissMsg:
		m.store.Banner().DismissID(msg.id)
		m.sync()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if msg.op == store.OpLoad {
		m.loaded = true
	}
	if msg.err != nil && !errors.Is(msg.err, store.ErrEmptyTitle) {
		m.log.Debug("operation finished with error", "op", msg.op, "err", msg.err)
	}
	m.sync()
	if msg.op == store.OpCreate && msg.err == nil {
		m.input.SetValue(m.state.Input)
	}
	return m, m.scheduleDismiss()
}

// scheduleDismiss arms the auto-dismiss timer for the notice on screen.
func (m Model) scheduleDismiss() tea.Cmd {
	if m.state.Notice == nil {
		return nil
	}
	id := m.state.Notice.ID
	return tea.Tick(m.store.Banner().Timeout(), func(time.Time) tea.Msg {
		return dismissMsg{id: id}
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.store.DismissNotice()
		m.sync()
		return m, nil
	case "tab", "shift+tab":
		return m.toggleFocus(), nil
	}

	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		return m, m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
	case " ", "space", "x", "enter":
		if t, ok := m.selected(); ok {
			return m, m.toggle(t.ID)
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			return m, m.remove(t.ID)
		}
	case "r":
		return m, m.load()
	case "a", "i":
		return m.toggleFocus(), nil
	}
	return m, nil
}

func (m Model) toggleFocus() Model {
	if m.focus == focusInput {
		m.focus = focusList
		m.input.Blur()
	} else {
		m.focus = focusInput
		m.input.Focus()
	}
	return m
}

func (m Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return service.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

// sync re-reads the store snapshot and keeps the cursor on a row.
func (m *Model) sync() {
	m.state = m.store.State()
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) load() tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		return opDoneMsg{op: store.OpLoad, err: st.Load(ctx)}
	}
}

func (m Model) submit() tea.Cmd {
	ctx, st := m.ctx, m.store
	st.SetInput(m.input.Value())
	return func() tea.Msg {
		_, err := st.Submit(ctx)
		return opDoneMsg{op: store.OpCreate, err: err}
	}
}

func (m Model) toggle(id service.ID) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		_, err := st.Toggle(ctx, id)
		return opDoneMsg{op: store.OpUpdate, err: err}
	}
}

func (m Model) remove(id service.ID) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		return opDoneMsg{op: store.OpDelete, err: st.Delete(ctx, id)}
	}
}
