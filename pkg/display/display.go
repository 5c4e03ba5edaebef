// Package display formats chat replies for a terminal or a pipe.
package display

import (
	"os"
	"strings"

	"chatbridge/pkg/bridge"
	"chatbridge/pkg/ui/styles"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

const DefaultWidth = 80

// Mode selects how output is decorated.
type Mode int

const (
	// Plain writes undecorated text, suitable for pipes and logs.
	Plain Mode = iota
	// Styled draws colored prefixes and a box around replies.
	Styled
)

// Renderer formats messages for output.
type Renderer struct {
	mode  Mode
	width int
}

// New creates a renderer. A non-positive width means DefaultWidth.
func New(mode Mode, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{mode: mode, width: width}
}

// ForFile picks Styled for terminals and Plain otherwise, and takes the
// width from the terminal when it can.
func ForFile(f *os.File) *Renderer {
	if f == nil {
		return New(Plain, DefaultWidth)
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return New(Plain, DefaultWidth)
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = DefaultWidth
	}
	return New(Styled, width)
}

// Mode returns the renderer's mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// RenderReply formats a lone assistant reply.
func (r *Renderer) RenderReply(reply string) string {
	reply = strings.TrimRight(reply, "\n")
	if r.mode == Plain {
		return Wrap(reply, r.width) + "\n"
	}

	// border + padding on both sides
	inner := r.width - 4
	if inner < 1 {
		inner = 1
	}
	body := styles.TextStyle.Render(Wrap(reply, inner))
	return styles.ReplyBoxStyle.Render(body) + "\n"
}

// RenderMessage formats one message with a speaker prefix.
func (r *Renderer) RenderMessage(role bridge.Role, content string) string {
	label := Label(role)
	content = strings.TrimRight(content, "\n")

	avail := r.width - ansi.StringWidth(label) - 1
	if avail < 1 {
		avail = 1
	}
	lines := strings.Split(Wrap(content, avail), "\n")
	indent := strings.Repeat(" ", ansi.StringWidth(label)+1)

	prefix := label
	if r.mode == Styled {
		prefix = prefixStyle(role).Render(label)
	}

	var sb strings.Builder
	for i, line := range lines {
		if i == 0 {
			sb.WriteString(prefix)
			sb.WriteString(" ")
		} else {
			sb.WriteString(indent)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderExchange formats a user message followed by the reply.
func (r *Renderer) RenderExchange(user, reply string) string {
	return r.RenderMessage(bridge.RoleUser, user) + r.RenderMessage(bridge.RoleAssistant, reply)
}

// RenderTranscript formats a whole conversation, skipping nothing.
func (r *Renderer) RenderTranscript(messages []bridge.Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(r.RenderMessage(msg.Role, msg.Content))
	}
	return sb.String()
}

// Label returns the speaker label shown before a message.
func Label(role bridge.Role) string {
	switch role {
	case bridge.RoleUser:
		return "You:"
	case bridge.RoleAssistant:
		return "Assistant:"
	case bridge.RoleSystem:
		return "System:"
	default:
		return string(role) + ":"
	}
}

// Wrap word-wraps text to width cells, breaking long words when needed.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return ansi.Wrap(text, width, "")
}

func prefixStyle(role bridge.Role) lipgloss.Style {
	switch role {
	case bridge.RoleUser:
		return styles.UserPrefixStyle
	case bridge.RoleSystem:
		return styles.SystemPrefixStyle
	default:
		return styles.AssistantPrefixStyle
	}
}
