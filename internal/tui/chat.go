package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

// DefaultPollInterval is how often the chat view polls for session events.
const DefaultPollInterval = 5 * time.Second

// ChatSession is the part of the chat controller the view drives.
// *chat.Controller satisfies it.
type ChatSession interface {
	SendMessage(ctx context.Context, query string)
	PollSystemEvents(ctx context.Context) int
	NewSession(ctx context.Context) (string, error)
	Messages() []models.ChatMessage
	SessionID() string
	IsLoading() bool
}

type ChatOptions struct {
	PollInterval time.Duration

	// Reset starts over with an empty transcript. It is bound to ctrl+l and
	// disabled when nil.
	Reset func(ctx context.Context) error
}

type sendDoneMsg struct{}

type pollTickMsg time.Time

type pollDoneMsg struct {
	added int
}

type sessionMsg struct {
	id  string
	err error
}

type resetMsg struct {
	err error
}

type ChatModel struct {
	ctx     context.Context
	session ChatSession
	opts    ChatOptions

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width   int
	height  int
	ready   bool
	status  string
	content string
}

func NewChatModel(ctx context.Context, session ChatSession, opts ChatOptions) ChatModel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	input := textinput.New()
	input.Placeholder = "Ask for photos, e.g. beach sunsets"
	input.Prompt = "> "
	input.CharLimit = 1000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return ChatModel{
		ctx:      ctx,
		session:  session,
		opts:     opts,
		input:    input,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// RunChat runs the chat view until the user quits.
func RunChat(ctx context.Context, session ChatSession, opts ChatOptions) error {
	p := tea.NewProgram(NewChatModel(ctx, session, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.schedulePoll())
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.viewport.Width = m.width - 4
		m.viewport.Height = m.height - 6
		m.input.Width = m.width - 6
		m.content = ""
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			query := m.input.Value()
			if m.session.IsLoading() || query == "" {
				return m, nil
			}
			m.input.Reset()
			m.status = ""
			return m, m.send(query)

		case "ctrl+n":
			m.status = "Starting a new session..."
			return m, m.newSession()

		case "ctrl+l":
			if m.opts.Reset == nil {
				return m, nil
			}
			m.status = "Clearing history..."
			return m, m.reset()
		}

	case sendDoneMsg:
		m.refresh()
		return m, nil

	case pollTickMsg:
		return m, m.poll()

	case pollDoneMsg:
		if msg.added > 0 {
			m.refresh()
		}
		return m, m.schedulePoll()

	case sessionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("New session failed: %v", msg.err)
		} else {
			m.status = "Session " + msg.id
		}
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Clear failed: %v", msg.err)
		} else {
			m.status = "History cleared"
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refresh re-renders the transcript and follows it to the bottom when it
// changed.
func (m *ChatModel) refresh() {
	content := renderTranscript(m.session.Messages())
	if content == m.content {
		return
	}
	m.content = content
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m ChatModel) send(query string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		session.SendMessage(ctx, query)
		return sendDoneMsg{}
	}
}

func (m ChatModel) schedulePoll() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m ChatModel) poll() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return pollDoneMsg{added: session.PollSystemEvents(ctx)}
	}
}

func (m ChatModel) newSession() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		id, err := session.NewSession(ctx)
		return sessionMsg{id: id, err: err}
	}
}

func (m ChatModel) reset() tea.Cmd {
	reset, ctx := m.opts.Reset, m.ctx
	return func() tea.Msg {
		return resetMsg{err: reset(ctx)}
	}
}

func (m ChatModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	session := m.session.SessionID()
	if session == "" {
		session = "none"
	}
	topBar := lipgloss.JoinHorizontal(
		lipgloss.Left,
		titleStyle.Render("Pixel Chat"),
		helpStyle.Render("  session: "+session),
	)

	transcript := paneStyle.
		Width(m.width - 2).
		Height(m.height - 5).
		Render(m.viewport.View())

	var bottomBar string
	switch {
	case m.session.IsLoading():
		bottomBar = m.spinner.View() + " Searching..."
	case m.status != "":
		bottomBar = helpStyle.Render("  " + m.status)
	default:
		bottomBar = helpStyle.Render("  enter: send • ctrl+n: new session • ctrl+l: clear • esc: quit")
	}

	return topBar + "\n" + transcript + "\n" + m.input.View() + "\n" + bottomBar
}
