package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type viewMode int

const (
	modeChatList viewMode = iota
	modeRoom
	modeSearch
)

type (
	refreshMsg    struct{}
	transcriptMsg struct{ roomID string }
	typingMsg     struct{ roomID string }
	noticeMsg     struct{ err error }
	chatsMsg      struct {
		chats []ChatSummary
		err   error
	}
	searchMsg struct {
		users []UserSummary
		err   error
	}
	chatOpenedMsg struct {
		chat ChatSummary
		err  error
	}
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	senderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the terminal front end. All chat state lives in the session; the
// model only renders it and translates key presses into session calls.
type Model struct {
	session *Session
	input   textinput.Model
	events  chan tea.Msg

	mode     viewMode
	chats    []ChatSummary
	cursor   int
	roomID   string
	roomName string
	notice   string

	results      []UserSummary
	resultCursor int
}

func NewModel(session *Session) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a message..."
	ti.CharLimit = 512
	ti.Width = 60

	events := make(chan tea.Msg, 64)
	session.Notifier.OnRefresh(func() {
		pushEvent(events, refreshMsg{})
	})
	session.Notifier.OnAppend(func(roomID string) {
		pushEvent(events, transcriptMsg{roomID: roomID})
	})
	session.Typing.OnChange(func(roomID string) {
		pushEvent(events, typingMsg{roomID: roomID})
	})
	session.OnNotice(func(err error) {
		pushEvent(events, noticeMsg{err: err})
	})

	return &Model{
		session: session,
		input:   ti,
		events:  events,
		mode:    modeChatList,
	}
}

// pushEvent never blocks the session's event loop; a stalled UI just loses a
// repaint hint, not chat state.
func pushEvent(events chan tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.loadChats())
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) loadChats() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		chats, err := m.session.API().ListChats(ctx)
		return chatsMsg{chats: chats, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chatsMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.chats = msg.chats
			if m.cursor >= len(m.chats) {
				m.cursor = 0
			}
		}
		return m, nil

	case refreshMsg:
		// Unread counts changed; re-fetch chat ordering too.
		return m, tea.Batch(m.listen(), m.loadChats())

	case transcriptMsg, typingMsg:
		return m, m.listen()

	case noticeMsg:
		m.notice = msg.err.Error()
		return m, m.listen()

	case searchMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.results = msg.users
			m.resultCursor = 0
			if len(m.results) == 0 {
				m.notice = "no users found"
			}
		}
		return m, nil

	case chatOpenedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		return m.enterRoom(msg.chat)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.session.Close()
		return m, tea.Quit

	case tea.KeyEsc:
		switch m.mode {
		case modeRoom:
			m.session.LeaveRoom(m.roomID)
			m.mode = modeChatList
			m.roomID = ""
			m.input.Reset()
			m.input.Blur()
		case modeSearch:
			m.mode = modeChatList
			m.results = nil
			m.input.Reset()
			m.input.Blur()
		}
		return m, nil
	}

	switch m.mode {
	case modeChatList:
		return m.handleListKey(msg)
	case modeSearch:
		return m.handleSearchKey(msg)
	}
	return m.handleRoomKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.chats)-1 {
			m.cursor++
		}
	case "/":
		m.mode = modeSearch
		m.results = nil
		m.notice = ""
		m.input.Reset()
		m.input.Placeholder = "Search users..."
		m.input.Focus()
	case "enter":
		if m.cursor < len(m.chats) {
			return m.enterRoom(m.chats[m.cursor])
		}
	}
	return m, nil
}

// handleSearchKey runs the find-a-user flow: type a query, enter to search,
// pick a result, enter again to open (or create) the direct chat.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.resultCursor < len(m.results)-1 {
			m.resultCursor++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.results) > 0 {
			return m, m.startChat(m.results[m.resultCursor].ID)
		}
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		return m, m.searchUsers(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// editing the query restarts the search
	m.results = nil
	return m, cmd
}

func (m *Model) searchUsers(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		users, err := m.session.API().SearchUsers(ctx, query)
		return searchMsg{users: users, err: err}
	}
}

func (m *Model) startChat(userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		chat, err := m.session.API().AccessChat(ctx, userID)
		if err != nil {
			return chatOpenedMsg{err: err}
		}
		return chatOpenedMsg{chat: *chat}
	}
}

// enterRoom joins the room, loads its history and switches to the room view.
func (m *Model) enterRoom(chat ChatSummary) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.session.OpenRoom(ctx, chat.ID); err != nil {
		m.notice = "failed to load the messages: " + err.Error()
		return m, nil
	}
	m.mode = modeRoom
	m.roomID = chat.ID
	m.roomName = m.chatTitle(chat)
	m.notice = ""
	m.results = nil
	m.input.Reset()
	m.input.Placeholder = "Enter a message..."
	m.input.Focus()
	// the new chat should show up in the list too
	return m, m.loadChats()
}

func (m *Model) handleRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		content := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if content == "" {
			return m, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.session.Send(ctx, m.roomID, content); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace || msg.Type == tea.KeyBackspace {
		m.session.Keystroke()
	}
	return m, cmd
}

func (m *Model) chatTitle(c ChatSummary) string {
	if c.IsGroup || c.Name != "" {
		return c.Name
	}
	// Direct chat: show the other side's name.
	for _, member := range c.Members {
		if member.ID != m.session.Identity().UserID {
			return member.Username
		}
	}
	return c.ID
}

func (m *Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeChatList:
		b.WriteString(titleStyle.Render("chatwire · chats") + "\n\n")
		if len(m.chats) == 0 {
			b.WriteString(faintStyle.Render("no chats yet") + "\n")
		}
		for i, c := range m.chats {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}
			line := cursor + m.chatTitle(c)
			if unread := m.session.Notifier.UnreadCount(c.ID); unread > 0 {
				line += " " + badgeStyle.Render(fmt.Sprintf("(%d new)", unread))
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + faintStyle.Render("enter: open  ·  /: find a user  ·  ctrl+c: quit") + "\n")
	case modeSearch:
		b.WriteString(titleStyle.Render("chatwire · find a user") + "\n\n")
		b.WriteString(m.input.View() + "\n\n")
		for i, user := range m.results {
			cursor := "  "
			if i == m.resultCursor {
				cursor = cursorStyle.Render("> ")
			}
			b.WriteString(cursor + user.Username + "\n")
		}
		b.WriteString("\n" + faintStyle.Render("enter: search / open chat  ·  esc: back") + "\n")
	default:
		b.WriteString(titleStyle.Render(m.roomName) + "\n\n")

		entries := m.session.Notifier.Transcript(m.roomID)
		start := 0
		if len(entries) > 20 {
			start = len(entries) - 20
		}
		for _, entry := range entries[start:] {
			sender := entry.Message.SenderName
			if sender == "" {
				sender = entry.Message.SenderID
			}
			line := senderStyle.Render(sender) + ": " + entry.Message.Content
			if entry.Pending {
				line += faintStyle.Render(" (sending...)")
			}
			if entry.Failed {
				line += noticeStyle.Render(" (failed)")
			}
			b.WriteString(line + "\n")
		}

		if typists := m.session.Typing.Typists(m.roomID); len(typists) > 0 {
			b.WriteString(faintStyle.Render(strings.Join(typists, ", ")+" typing...") + "\n")
		}

		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(faintStyle.Render("esc: back  ·  ctrl+c: quit") + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}

	return b.String()
}
