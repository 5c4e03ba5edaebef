// Package bridge forwards a conversation to the chat backend and turns
// whatever comes back into a string that can be shown to the user.
package bridge

import (
	"context"
	"errors"
	"unicode/utf8"
)

// LastUserMessage returns the most recent user message in messages.
func LastUserMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i], true
		}
	}
	return Message{}, false
}

// BuildHistory projects messages onto the wire format, dropping system
// messages and keeping the original order.
func BuildHistory(messages []Message) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			continue
		}
		history = append(history, HistoryEntry{
			Role:    string(msg.Role),
			Message: msg.Content,
		})
	}
	return history
}

// Prepare builds the request for messages. It returns ErrNoUserMessage
// when there is nothing to send.
func Prepare(messages []Message) (ChatRequest, error) {
	last, ok := LastUserMessage(messages)
	if !ok {
		return ChatRequest{}, ErrNoUserMessage
	}
	return ChatRequest{
		Message: last.Content,
		History: BuildHistory(messages),
	}, nil
}

// GetResponse sends the conversation to the backend and returns the reply
// text. It never fails: every error path resolves to one of the fixed
// replies or to the backend's own error detail.
func (c *Client) GetResponse(ctx context.Context, messages []Message) string {
	logger := c.log()

	req, err := Prepare(messages)
	if err != nil {
		logger.Debug("chat_no_user_message", "message_count", len(messages))
		return NoUserMessageReply
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		attrs := []any{
			"error", err,
			"base_url", c.baseURL,
			"history_len", len(req.History),
		}
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			attrs = append(attrs, "status_code", backendErr.StatusCode)
		}
		logger.Error("chat_request_failed", attrs...)
		return Reply(err)
	}

	reply := resp.Content()
	logger.Debug("chat_reply",
		"reply_chars", utf8.RuneCountInString(reply),
		"fallback", reply == EmptyReply)
	return reply
}

// GetLegacyResponse is GetResponse under its earlier name.
func (c *Client) GetLegacyResponse(ctx context.Context, messages []Message) string {
	return c.GetResponse(ctx, messages)
}

var defaultClient = New(DefaultBaseURL)

// GetResponse calls the backend at DefaultBaseURL.
func GetResponse(ctx context.Context, messages []Message) string {
	return defaultClient.GetResponse(ctx, messages)
}

// GetLegacyResponse is GetResponse under its earlier name.
func GetLegacyResponse(ctx context.Context, messages []Message) string {
	return defaultClient.GetLegacyResponse(ctx, messages)
}
