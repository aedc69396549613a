package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

// ConversationStore is what the browser reads from.
// *storage.SQLiteStore satisfies it.
type ConversationStore interface {
	ListConversations(ctx context.Context, filters models.ConversationFilters) ([]models.ConversationListItem, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	SearchMessages(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	GetStats(ctx context.Context) (*models.ConversationStats, error)
}

type Browser struct {
	store  ConversationStore
	dbPath string
}

func NewBrowser(store ConversationStore, dbPath string) *Browser {
	return &Browser{store: store, dbPath: dbPath}
}

// Run shows the browser until the user quits. It returns the id of the
// conversation picked with "o", or "" when none was.
func (b *Browser) Run(ctx context.Context) (string, error) {
	m := newBrowserModel(ctx, b.store, b.dbPath)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	if bm, ok := final.(browserModel); ok {
		return bm.opened, nil
	}
	return "", nil
}

type listItem struct {
	conversation models.ConversationListItem
}

func (i listItem) FilterValue() string {
	return i.conversation.Title + " " + i.conversation.Preview
}

func (i listItem) Title() string {
	return i.conversation.Title
}

func (i listItem) Description() string {
	desc := fmt.Sprintf("%d msgs | %s", i.conversation.MessageCount, i.conversation.UpdatedAt.Local().Format(timeLayout))
	if i.conversation.Preview != "" {
		desc = fmt.Sprintf("%s | %s", desc, i.conversation.Preview)
	}
	return desc
}

type commandMode int

const (
	modeNormal commandMode = iota
	modeCommand
	modeFilter
)

type conversationsMsg struct {
	items []models.ConversationListItem
	note  string
	err   error
}

type conversationMsg struct {
	conv *models.Conversation
	err  error
}

type statusMsg string

type contentMsg string

type browserModel struct {
	ctx    context.Context
	store  ConversationStore
	dbPath string

	list         list.Model
	viewport     viewport.Model
	commandInput textinput.Model
	selectedConv *models.Conversation

	width         int
	height        int
	ready         bool
	err           error
	mode          commandMode
	statusMessage string
	opened        string
}

func newBrowserModel(ctx context.Context, store ConversationStore, dbPath string) browserModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Conversations"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	cmdInput := textinput.New()
	cmdInput.Prompt = ":"
	cmdInput.CharLimit = 256
	cmdInput.Width = 50

	return browserModel{
		ctx:          ctx,
		store:        store,
		dbPath:       dbPath,
		list:         l,
		viewport:     viewport.New(0, 0),
		commandInput: cmdInput,
		mode:         modeNormal,
	}
}

func (m browserModel) Init() tea.Cmd {
	return m.loadConversations("")
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		listWidth := m.width / 3
		m.list.SetSize(listWidth, m.height-3)

		m.viewport.Width = m.width - listWidth - 4
		m.viewport.Height = m.height - 5

		m.commandInput.Width = m.width - 4

	case conversationsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, conv := range msg.items {
			items = append(items, listItem{conversation: conv})
		}
		m.statusMessage = msg.note
		return m, m.list.SetItems(items)

	case conversationMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}
		m.selectedConv = msg.conv
		m.showConversation()
		return m, nil

	case statusMsg:
		m.statusMessage = string(msg)
		return m, nil

	case contentMsg:
		m.viewport.SetContent(string(msg))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeNormal:
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit

			case ":":
				m.mode = modeCommand
				m.commandInput.Focus()
				m.commandInput.SetValue("")
				return m, textinput.Blink

			case "/":
				m.mode = modeFilter
				m.statusMessage = "Filter mode - Type to filter, ESC to exit"

			case "enter":
				if item, ok := m.list.SelectedItem().(listItem); ok {
					return m, m.loadConversation(item.conversation.ID)
				}
				return m, nil

			case "o":
				if item, ok := m.list.SelectedItem().(listItem); ok {
					m.opened = item.conversation.ID
					return m, tea.Quit
				}
				return m, nil

			case "?":
				m.showHelp()
				return m, nil
			}

		case modeCommand:
			switch msg.String() {
			case "enter":
				cmd = m.executeCommand(m.commandInput.Value())
				m.mode = modeNormal
				m.commandInput.Blur()
				m.commandInput.SetValue("")
				return m, cmd

			case "esc":
				m.mode = modeNormal
				m.commandInput.Blur()
				m.commandInput.SetValue("")
				m.statusMessage = ""
				return m, nil
			}

		case modeFilter:
			if msg.String() == "esc" && m.list.FilterState() != list.Filtering {
				m.mode = modeNormal
				m.statusMessage = ""
			}
		}
	}

	switch m.mode {
	case modeNormal, modeFilter:
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)

	case modeCommand:
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *browserModel) executeCommand(cmdStr string) tea.Cmd {
	parts := strings.Fields(cmdStr)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "find", "search":
		if len(args) == 0 {
			m.statusMessage = "Usage: :find <query>"
			return nil
		}
		query := strings.Join(args, " ")
		m.statusMessage = fmt.Sprintf("Searching for: %s", query)
		return m.runFind(query)

	case "all":
		return m.loadConversations("")

	case "stats":
		return m.runStats()

	case "export":
		if len(args) == 0 {
			m.statusMessage = "Usage: :export <filename>"
			return nil
		}
		if m.selectedConv == nil {
			m.statusMessage = "No conversation selected"
			return nil
		}
		return m.runExport(m.selectedConv, args[0])

	case "delete":
		if m.selectedConv == nil {
			m.statusMessage = "No conversation selected"
			return nil
		}
		id := m.selectedConv.ID
		m.selectedConv = nil
		m.viewport.SetContent("")
		return m.runDelete(id)

	case "help", "h":
		m.showHelp()

	case "quit", "q":
		return tea.Quit

	default:
		m.statusMessage = fmt.Sprintf("Unknown command: %s", command)
	}

	return nil
}

func (m browserModel) loadConversations(note string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		items, err := store.ListConversations(ctx, models.ConversationFilters{})
		return conversationsMsg{items: items, note: note, err: err}
	}
}

func (m browserModel) loadConversation(id string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		conv, err := store.GetConversation(ctx, id)
		if err == nil && conv == nil {
			err = fmt.Errorf("conversation %s no longer exists", id)
		}
		return conversationMsg{conv: conv, err: err}
	}
}

func (m browserModel) runFind(query string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		results, err := store.SearchMessages(ctx, query, 100)
		if err != nil {
			return statusMsg(fmt.Sprintf("Search failed: %v", err))
		}

		seen := make(map[string]bool)
		var items []models.ConversationListItem
		for _, r := range results {
			if seen[r.Conversation.ID] {
				continue
			}
			seen[r.Conversation.ID] = true
			items = append(items, r.Conversation)
		}
		return conversationsMsg{
			items: items,
			note:  fmt.Sprintf("Found %d matches in %d conversations (:all to reset)", len(results), len(items)),
		}
	}
}

func (m browserModel) runDelete(id string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		if err := store.DeleteConversation(ctx, id); err != nil {
			return statusMsg(fmt.Sprintf("Delete failed: %v", err))
		}
		return m.loadConversations("Conversation deleted")()
	}
}

func (m browserModel) runExport(conv *models.Conversation, filename string) tea.Cmd {
	return func() tea.Msg {
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return statusMsg(fmt.Sprintf("Export failed: %v", err))
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return statusMsg(fmt.Sprintf("Export failed: %v", err))
		}
		return statusMsg(fmt.Sprintf("Exported %q to %s", conv.Title, filename))
	}
}

func (m browserModel) runStats() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		stats, err := store.GetStats(ctx)
		if err != nil {
			return statusMsg(fmt.Sprintf("Stats failed: %v", err))
		}

		var content strings.Builder
		content.WriteString(titleStyle.Render("Statistics"))
		content.WriteString("\n\n")
		fmt.Fprintf(&content, "Conversations:   %d\n", stats.TotalConversations)
		fmt.Fprintf(&content, "Messages:        %d\n", stats.TotalMessages)
		fmt.Fprintf(&content, "Images returned: %d\n", stats.TotalImages)
		fmt.Fprintf(&content, "Linked sessions: %d\n\n", stats.LinkedSessions)

		content.WriteString("By type:\n")
		for _, t := range []models.MessageType{models.MessageUser, models.MessageAgent, models.MessageSystem} {
			fmt.Fprintf(&content, "  %s: %d\n", t, stats.TypeBreakdown[t])
		}
		return contentMsg(content.String())
	}
}

func (m *browserModel) showHelp() {
	help := `
Commands (press : to enter command mode):

  :find <query>   - Search stored messages
  :all            - List every conversation again
  :stats          - Show statistics
  :export <file>  - Export the selected conversation as JSON
  :delete         - Delete the selected conversation
  :help           - Show this help

Normal Mode Keys:
  j/k or ↑/↓     - Navigate list
  enter          - View conversation
  o              - Open conversation in chat
  /              - Filter list
  :              - Command mode
  ?              - Show help
  q              - Quit
`

	m.viewport.SetContent(help)
	m.viewport.GotoTop()
}

func (m *browserModel) showConversation() {
	if m.selectedConv == nil {
		m.viewport.SetContent("Select a conversation to view")
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.selectedConv.Title))
	content.WriteString("\n\n")
	if m.selectedConv.ServerSessionID != "" {
		fmt.Fprintf(&content, "Session: %s\n", m.selectedConv.ServerSessionID)
	}
	fmt.Fprintf(&content, "Created: %s\n", m.selectedConv.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&content, "Updated: %s\n", m.selectedConv.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	content.WriteString("\n" + strings.Repeat("─", 40) + "\n\n")
	content.WriteString(renderTranscript(m.selectedConv.Messages))

	m.viewport.SetContent(content.String())
	m.viewport.GotoTop()
}

func (m browserModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.err)
	}

	listView := paneStyle.
		Width(m.width/3 - 2).
		Height(m.height - 3).
		Render(m.list.View())

	contentView := paneStyle.
		Width(m.width - m.width/3 - 2).
		Height(m.height - 3).
		Render(m.viewport.View())

	var bottomBar string
	switch m.mode {
	case modeCommand:
		bottomBar = m.commandInput.View()
	case modeNormal:
		if m.statusMessage != "" {
			bottomBar = helpStyle.Render("  " + m.statusMessage)
		} else {
			bottomBar = helpStyle.Render("  j/k: navigate • enter: view • o: open in chat • /: filter • :: command • ?: help • q: quit")
		}
	case modeFilter:
		bottomBar = helpStyle.Render("  Filter mode - Type to filter • ESC: exit filter")
	}

	dbInfo := fmt.Sprintf("DB: %s", filepath.Base(m.dbPath))
	if m.dbPath == "" {
		dbInfo = "DB: default"
	}

	topBar := lipgloss.JoinHorizontal(
		lipgloss.Left,
		titleStyle.Render("Pixel Chat"),
		helpStyle.Render("  "+dbInfo),
	)

	return topBar + "\n" +
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			listView,
			contentView,
		) + "\n" + bottomBar
}
