// Package transcript keeps the conversation a front end has with the chat
// backend. It lives in memory only.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"chatbridge/pkg/bridge"
)

// Transcript is an append-only, goroutine-safe conversation.
type Transcript struct {
	mu       sync.RWMutex
	messages []bridge.Message
}

// New returns a transcript seeded with messages. The slice is copied.
func New(messages ...bridge.Message) *Transcript {
	t := &Transcript{}
	t.messages = append(t.messages, messages...)
	return t
}

// Append adds a message to the end of the conversation.
func (t *Transcript) Append(role bridge.Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, bridge.Message{Role: role, Content: content})
}

// Messages returns a copy of the conversation, oldest first.
func (t *Transcript) Messages() []bridge.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]bridge.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// LastAssistant returns the content of the latest assistant message.
func (t *Transcript) LastAssistant() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == bridge.RoleAssistant {
			return t.messages[i].Content, true
		}
	}
	return "", false
}

// Reset drops every message.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// LoadFile reads a JSON array of {"role", "content"} objects.
func LoadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	messages, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(messages...), nil
}

// Parse decodes a JSON array of messages and rejects unknown roles.
func Parse(data []byte) ([]bridge.Message, error) {
	var messages []bridge.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	for i, msg := range messages {
		role := bridge.Role(strings.ToLower(strings.TrimSpace(string(msg.Role))))
		if !role.Valid() {
			return nil, fmt.Errorf("message %d: unsupported role: %q", i, msg.Role)
		}
		messages[i].Role = role
	}
	return messages, nil
}
