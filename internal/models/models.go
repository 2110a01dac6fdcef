package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a session transcript. A message is mutable only
// while Streaming is true, and only the last message of a session may be in
// that state.
type ChatMessage struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Reasoning  string      `json:"reasoning,omitempty"`
	ToolEvents []ToolEvent `json:"toolEvents,omitempty"`
	Streaming  bool        `json:"-"`
	IsError    bool        `json:"isError,omitempty"`
}

// ToolEvent records one observed tool-invocation lifecycle transition, in
// arrival order from the stream.
type ToolEvent struct {
	Type     string `json:"type"`
	Status   string `json:"status,omitempty"`
	ItemType string `json:"itemType,omitempty"`
	Query    string `json:"query,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Session is the stored summary of a chat session. Its message list is kept
// separately under its own key.
type Session struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Preview       string `json:"preview"`
	UpdatedAtUnix int64  `json:"updatedAt"`
	MessageCount  int    `json:"messageCount"`
}

// Profile is a named API credential set. Exactly one profile is active at a
// time; the built-in default profile cannot be deleted.
type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
	Default bool   `json:"isDefault"`
}

// UpdateLastAssistant returns a new slice with fn applied to the final message
// when that message is assistant-authored; otherwise the input is returned
// unchanged. The input slice is never mutated, so readers holding an earlier
// snapshot stay consistent.
func UpdateLastAssistant(msgs []ChatMessage, fn func(ChatMessage) ChatMessage) []ChatMessage {
	if len(msgs) == 0 {
		return msgs
	}
	last := msgs[len(msgs)-1]
	if last.Role != RoleAssistant {
		return msgs
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	out[len(out)-1] = fn(last)
	return out
}
