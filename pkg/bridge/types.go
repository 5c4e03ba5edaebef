package bridge

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is the wire projection of a non-system Message.
type HistoryEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// ChatRequest is the body posted to the backend's /api/chat endpoint.
type ChatRequest struct {
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

// ChatResponse is the backend reply. Every field is optional.
type ChatResponse struct {
	Response *string `json:"response,omitempty"`
	Text     *string `json:"text,omitempty"`
	Detail   *string `json:"detail,omitempty"`
}

// Content returns the display text in precedence order: response, text,
// then EmptyReply.
func (r ChatResponse) Content() string {
	if r.Response != nil && *r.Response != "" {
		return *r.Response
	}
	if r.Text != nil && *r.Text != "" {
		return *r.Text
	}
	return EmptyReply
}

// Fixed user-visible replies.
const (
	NoUserMessageReply     = "I didn't receive your message. Please try again."
	EmptyReply             = "I'm sorry, I couldn't process your request."
	ConnectionFailureReply = "I'm having trouble connecting to the server. Please try again later."
)
