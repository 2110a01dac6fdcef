package api

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ChatResponse is a non-streaming Responses API result. The raw body is kept
// as-is and probed on demand: upstream gateways answer in either the output
// array format or the older chat-completions shape, so field access goes
// through gjson rather than a rigid struct.
type ChatResponse struct {
	raw string
}

func NewChatResponse(body []byte) *ChatResponse {
	return &ChatResponse{raw: string(body)}
}

// ID returns the response id, if present.
func (r *ChatResponse) ID() string {
	return gjson.Get(r.raw, "id").String()
}

// AssistantText extracts the visible assistant text. The output array format
// wins: message items authored by the assistant (or with no role at all)
// contribute their non-empty content texts, newline-joined. When the output
// array yields nothing, choices[0].message.content is the fallback.
func (r *ChatResponse) AssistantText() string {
	if text := r.outputText("message", "content"); text != "" {
		return text
	}
	return strings.TrimSpace(gjson.Get(r.raw, "choices.0.message.content").String())
}

// ReasoningText extracts the reasoning summary from reasoning output items,
// or empty when the response carries none.
func (r *ChatResponse) ReasoningText() string {
	if text := r.outputText("reasoning", "summary"); text != "" {
		return text
	}
	return r.outputText("reasoning", "content")
}

func (r *ChatResponse) outputText(itemType, field string) string {
	var parts []string
	gjson.Get(r.raw, "output").ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() != itemType {
			return true
		}
		role := item.Get("role").String()
		if itemType == "message" && role != "" && role != "assistant" {
			return true
		}
		item.Get(field).ForEach(func(_, part gjson.Result) bool {
			if text := strings.TrimSpace(part.Get("text").String()); text != "" {
				parts = append(parts, text)
			}
			return true
		})
		return true
	})
	return strings.Join(parts, "\n")
}
