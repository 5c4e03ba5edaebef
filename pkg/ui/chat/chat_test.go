package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"chatbridge/pkg/bridge"
	"chatbridge/pkg/transcript"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

type fakeResponder struct {
	mu    sync.Mutex
	reply string
	calls [][]bridge.Message
}

func (f *fakeResponder) GetResponse(ctx context.Context, messages []bridge.Message) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	return f.reply
}

func newTestModel(t *testing.T, reply string) (*Model, *fakeResponder) {
	t.Helper()
	f := &fakeResponder{reply: reply}
	m := New(context.Background(), f, transcript.New())
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return m, f
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(newTextKeyPressMsg(string(r)))
	}
}

func TestSubmit_SendsConversationAndAppendsReply(t *testing.T) {
	m, f := newTestModel(t, "Hi there")

	typeText(m, "hi")
	_, cmd := m.Update(testKeyEnter)
	if cmd == nil {
		t.Fatal("Expected a command after submit")
	}
	if !m.Pending() {
		t.Fatal("Expected model to be pending after submit")
	}

	msg := cmd()
	if _, ok := msg.(replyMsg); !ok {
		t.Fatalf("Expected replyMsg, got %T", msg)
	}
	m.Update(msg)

	if m.Pending() {
		t.Fatal("Expected pending to clear after reply")
	}
	if len(f.calls) != 1 {
		t.Fatalf("Expected 1 bridge call, got %d", len(f.calls))
	}
	sent := f.calls[0]
	if len(sent) != 1 || sent[0].Role != bridge.RoleUser || sent[0].Content != "hi" {
		t.Fatalf("Unexpected conversation sent: %+v", sent)
	}

	msgs := m.transcript.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 transcript messages, got %d", len(msgs))
	}
	if msgs[1].Role != bridge.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Fatalf("Unexpected reply message: %+v", msgs[1])
	}

	view := ansi.Strip(m.Render())
	if !strings.Contains(view, "You: hi") || !strings.Contains(view, "Assistant: Hi there") {
		t.Fatalf("Expected exchange in view, got:\n%s", view)
	}
}

func TestSubmit_IncludesEarlierHistory(t *testing.T) {
	f := &fakeResponder{reply: "second answer"}
	tr := transcript.New(
		bridge.Message{Role: bridge.RoleSystem, Content: "sys"},
		bridge.Message{Role: bridge.RoleUser, Content: "first"},
		bridge.Message{Role: bridge.RoleAssistant, Content: "first answer"},
	)
	m := New(context.Background(), f, tr)

	m.textarea.SetValue("second")
	_, cmd := m.Update(testKeyEnter)
	m.Update(cmd())

	if len(f.calls) != 1 {
		t.Fatalf("Expected 1 bridge call, got %d", len(f.calls))
	}
	sent := f.calls[0]
	if len(sent) != 4 {
		t.Fatalf("Expected 4 messages sent, got %d", len(sent))
	}
	if sent[3].Content != "second" {
		t.Fatalf("Expected last message 'second', got %q", sent[3].Content)
	}
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	m, f := newTestModel(t, "unused")

	typeText(m, "   ")
	_, cmd := m.Update(testKeyEnter)
	if cmd != nil {
		t.Fatal("Expected no command for blank input")
	}
	if m.Pending() {
		t.Fatal("Expected model not to be pending")
	}
	if len(f.calls) != 0 {
		t.Fatalf("Expected no bridge calls, got %d", len(f.calls))
	}
}

func TestSubmit_IgnoredWhilePending(t *testing.T) {
	m, _ := newTestModel(t, "reply")

	m.textarea.SetValue("first")
	_, first := m.Update(testKeyEnter)
	if first == nil {
		t.Fatal("Expected a command for first submit")
	}

	m.textarea.SetValue("second")
	_, second := m.Update(testKeyEnter)
	if second != nil {
		t.Fatal("Expected second submit to be ignored while pending")
	}
	if m.transcript.Len() != 1 {
		t.Fatalf("Expected 1 transcript message, got %d", m.transcript.Len())
	}
	if !strings.Contains(ansi.Strip(m.Render()), pendingLabel) {
		t.Fatal("Expected pending status in view")
	}
}

func TestRequestReply_NilClient(t *testing.T) {
	m := New(context.Background(), nil, nil)
	m.textarea.SetValue("hi")
	_, cmd := m.Update(testKeyEnter)

	msg, ok := cmd().(replyMsg)
	if !ok {
		t.Fatal("Expected replyMsg")
	}
	if msg.content != bridge.ConnectionFailureReply {
		t.Fatalf("Expected connection failure reply, got %q", msg.content)
	}

	m.Update(msg)
	if !m.failed {
		t.Fatal("Expected failed status after connection failure")
	}
	if !strings.Contains(ansi.Strip(m.Render()), offlineLabel) {
		t.Fatal("Expected offline status in view")
	}

	m.textarea.SetValue("again")
	m.Update(testKeyEnter)
	if m.failed {
		t.Fatal("Expected failed status to clear on the next submit")
	}
}

func TestReply_SuccessLeavesStatusClear(t *testing.T) {
	m, _ := newTestModel(t, "fine")
	m.textarea.SetValue("hi")
	_, send := m.Update(testKeyEnter)
	m.Update(send())

	if m.failed || m.status != "" {
		t.Fatalf("Expected clear status, got failed=%v status=%q", m.failed, m.status)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{testKeyCtrlC, testKeyEsc} {
		m, _ := newTestModel(t, "")
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("Expected quit command for %q", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("Expected tea.QuitMsg for %q", key.String())
		}
	}
}

func TestCopyLastReply(t *testing.T) {
	m, _ := newTestModel(t, "copy me")
	var clip bytes.Buffer
	m.clipboard = &clip

	_, cmd := m.Update(testKeyCtrlY)
	if cmd != nil {
		t.Fatal("Expected no copy command without a reply")
	}

	m.textarea.SetValue("hi")
	_, send := m.Update(testKeyEnter)
	m.Update(send())

	_, cmd = m.Update(testKeyCtrlY)
	if cmd == nil {
		t.Fatal("Expected copy command")
	}
	m.Update(cmd())

	encoded := base64.StdEncoding.EncodeToString([]byte("copy me"))
	if !strings.Contains(clip.String(), "\x1b]52;") || !strings.Contains(clip.String(), encoded) {
		t.Fatalf("Expected OSC 52 sequence with reply, got %q", clip.String())
	}
	if !strings.Contains(ansi.Strip(m.Render()), "Reply copied") {
		t.Fatal("Expected copy status in view")
	}
}

func TestClearTranscript(t *testing.T) {
	m, _ := newTestModel(t, "reply")
	m.textarea.SetValue("hi")
	_, send := m.Update(testKeyEnter)
	m.Update(send())

	m.Update(testKeyCtrlL)
	if m.transcript.Len() != 0 {
		t.Fatalf("Expected empty transcript, got %d", m.transcript.Len())
	}
}

func TestRender_FitsWindow(t *testing.T) {
	m, _ := newTestModel(t, strings.Repeat("long reply ", 40))
	m.textarea.SetValue("hi")
	_, send := m.Update(testKeyEnter)
	m.Update(send())

	out := m.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("Expected 20 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w > 60 {
			t.Errorf("Line %d exceeds width 60 (%d)", i, w)
		}
	}
}

func TestScroll(t *testing.T) {
	m, _ := newTestModel(t, strings.Repeat("line\n", 50))
	m.textarea.SetValue("hi")
	_, send := m.Update(testKeyEnter)
	m.Update(send())

	bottom := m.scrollY
	if bottom == 0 {
		t.Fatal("Expected transcript to overflow the pane")
	}

	m.Update(testKeyPgUp)
	if m.scrollY != bottom-scrollPageSize {
		t.Fatalf("Expected scrollY %d, got %d", bottom-scrollPageSize, m.scrollY)
	}
	if m.follow {
		t.Fatal("Expected follow to be off after scrolling up")
	}

	m.Update(testKeyPgDown)
	m.Update(testKeyPgDown)
	if m.scrollY != bottom || !m.follow {
		t.Fatalf("Expected to return to bottom, got scrollY=%d follow=%v", m.scrollY, m.follow)
	}
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateToWidth(tt.text, tt.width); got != tt.want {
			t.Errorf("truncateToWidth(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}
