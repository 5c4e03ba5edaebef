// Package chat is the interactive terminal front end. Each submitted
// message is appended to the transcript and the whole conversation is
// handed to the bridge; the reply comes back as a Bubble Tea message.
package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"chatbridge/pkg/bridge"
	"chatbridge/pkg/display"
	"chatbridge/pkg/transcript"
	"chatbridge/pkg/ui/styles"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const (
	chatTitle      = "chatbridge"
	chatFooter     = "Enter Send | PgUp/PgDn Scroll | Ctrl+Y Copy reply | Ctrl+L Clear | Esc Quit"
	pendingLabel   = "Waiting for reply..."
	offlineLabel   = "Backend unreachable"
	inputHeight    = 3
	chromeLines    = 2 + 1 + 1 + 1 + 1 // border, title, separator, status, footer
	scrollPageSize = 10
)

// Responder produces a reply for a conversation. *bridge.Client satisfies it.
type Responder interface {
	GetResponse(ctx context.Context, messages []bridge.Message) string
}

// replyMsg carries the bridge's answer back into the update loop.
type replyMsg struct {
	content string
}

// copiedMsg reports that the last reply was sent to the clipboard.
type copiedMsg struct{}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx        context.Context
	client     Responder
	transcript *transcript.Transcript
	textarea   textarea.Model
	clipboard  io.Writer

	width   int
	height  int
	lines   []string
	scrollY int
	follow  bool
	pending bool
	status  string
	failed  bool
}

// New creates the chat model. tr may already hold earlier messages.
func New(ctx context.Context, client Responder, tr *transcript.Transcript) *Model {
	if tr == nil {
		tr = transcript.New()
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.SetHeight(inputHeight)
	ta.Focus()

	m := &Model{
		ctx:        ctx,
		client:     client,
		transcript: tr,
		textarea:   ta,
		clipboard:  os.Stdout,
		width:      display.DefaultWidth,
		height:     24,
		follow:     true,
	}
	m.reflow()
	return m
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, client Responder, tr *transcript.Transcript) error {
	p := tea.NewProgram(New(ctx, client, tr), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reflow()
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)

	case replyMsg:
		m.pending = false
		m.status = ""
		m.failed = msg.content == bridge.ConnectionFailureReply
		if m.failed {
			m.status = offlineLabel
		}
		m.transcript.Append(bridge.RoleAssistant, msg.content)
		m.follow = true
		m.reflow()
		return m, nil

	case copiedMsg:
		m.status = "Reply copied to clipboard"
		m.failed = false
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit
	case "enter":
		return m.submit()
	case "ctrl+y":
		return m.copyLastReply()
	case "ctrl+l":
		if m.pending {
			return nil
		}
		m.transcript.Reset()
		m.status = ""
		m.failed = false
		m.scrollY = 0
		m.follow = true
		m.reflow()
		return nil
	case "pgup", "pgdown", "ctrl+up", "ctrl+down":
		m.scroll(msg.String())
		return nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return cmd
}

// submit sends the textarea content. Ignored while a reply is pending.
func (m *Model) submit() tea.Cmd {
	if m.pending {
		return nil
	}
	content := strings.TrimSpace(m.textarea.Value())
	if content == "" {
		return nil
	}
	m.textarea.Reset()

	m.transcript.Append(bridge.RoleUser, content)
	m.pending = true
	m.status = pendingLabel
	m.failed = false
	m.follow = true
	m.reflow()

	slog.Debug("chat_submit", "message_count", m.transcript.Len())
	return m.requestReply(m.transcript.Messages())
}

func (m *Model) requestReply(messages []bridge.Message) tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		if client == nil {
			return replyMsg{content: bridge.ConnectionFailureReply}
		}
		return replyMsg{content: client.GetResponse(ctx, messages)}
	}
}

func (m *Model) copyLastReply() tea.Cmd {
	text, ok := m.transcript.LastAssistant()
	if !ok {
		return nil
	}
	out := m.clipboard
	return func() tea.Msg {
		_, _ = fmt.Fprint(out, osc52.New(text))
		return copiedMsg{}
	}
}

func (m *Model) scroll(key string) {
	maxScroll := m.maxScroll()
	switch key {
	case "ctrl+up":
		m.scrollY--
	case "ctrl+down":
		m.scrollY++
	case "pgup":
		m.scrollY -= scrollPageSize
	case "pgdown":
		m.scrollY += scrollPageSize
	}
	if m.scrollY < 0 {
		m.scrollY = 0
	}
	if m.scrollY > maxScroll {
		m.scrollY = maxScroll
	}
	m.follow = m.scrollY >= maxScroll
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render draws the chat screen as a string.
func (m *Model) Render() string {
	contentWidth := m.contentWidth()
	paneHeight := m.paneHeight()

	lines := make([]string, 0, paneHeight+inputHeight+4)
	lines = append(lines, padStyled(styles.TitleStyle.Render(truncateToWidth(chatTitle, contentWidth)), contentWidth))

	start := m.scrollY
	end := start + paneHeight
	if end > len(m.lines) {
		end = len(m.lines)
	}
	for i := start; i < end; i++ {
		lines = append(lines, padStyled(ansi.Truncate(m.lines[i], contentWidth, ""), contentWidth))
	}
	for len(lines) < 1+paneHeight {
		lines = append(lines, strings.Repeat(" ", contentWidth))
	}

	lines = append(lines, strings.Repeat("─", contentWidth))

	status := ""
	if m.status != "" {
		style := styles.PendingStyle
		if m.failed {
			style = styles.ErrorStyle
		}
		status = style.Render(truncateToWidth(m.status, contentWidth))
	}
	lines = append(lines, padStyled(status, contentWidth))

	m.textarea.SetWidth(contentWidth)
	inputLines := strings.Split(m.textarea.View(), "\n")
	for i := 0; i < inputHeight; i++ {
		line := ""
		if i < len(inputLines) {
			line = inputLines[i]
		}
		lines = append(lines, padStyled(ansi.Truncate(line, contentWidth, ""), contentWidth))
	}

	lines = append(lines, padStyled(styles.FooterStyle.Render(truncateToWidth(chatFooter, contentWidth)), contentWidth))

	return styles.ChatBoxStyle.Render(strings.Join(lines, "\n"))
}

// Pending reports whether a reply is in flight.
func (m *Model) Pending() bool {
	return m.pending
}

func (m *Model) reflow() {
	width := m.contentWidth()
	renderer := display.New(display.Styled, width)
	rendered := strings.TrimRight(renderer.RenderTranscript(m.transcript.Messages()), "\n")
	if rendered == "" {
		m.lines = []string{styles.PlaceholderStyle.Render("Say something to start the conversation.")}
	} else {
		m.lines = strings.Split(rendered, "\n")
	}
	if m.follow {
		m.scrollY = m.maxScroll()
	}
	if m.scrollY > m.maxScroll() {
		m.scrollY = m.maxScroll()
	}
}

func (m *Model) contentWidth() int {
	w := m.width - 2
	if w < 1 {
		return 1
	}
	return w
}

func (m *Model) paneHeight() int {
	h := m.height - chromeLines - inputHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) maxScroll() int {
	maxScroll := len(m.lines) - m.paneHeight()
	if maxScroll < 0 {
		return 0
	}
	return maxScroll
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	if width <= 3 {
		return runewidth.Truncate(text, width, "")
	}
	return runewidth.Truncate(text, width, "...")
}

func padStyled(text string, width int) string {
	if width <= 0 {
		return text
	}
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return text + strings.Repeat(" ", width-textWidth)
}
