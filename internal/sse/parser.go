package sse

import (
	"strings"

	"github.com/tidwall/gjson"
)

const doneSentinel = "[DONE]"

// Parse converts one assembled SSE frame into a typed event. eventName is the
// value of the frame's event: field, if any; data is the joined data payload.
//
// Parse is pure and total: every non-blank payload maps to exactly one event
// (possibly Unknown or Failed), a blank payload maps to nil, and no input
// panics.
func Parse(eventName, data string) Event {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil
	}
	if data == doneSentinel {
		return Completed{}
	}
	if !gjson.Valid(data) {
		return Failed{Message: "malformed stream payload", EventType: eventName}
	}

	evType := eventName
	if evType == "" {
		evType = gjson.Get(data, "type").String()
	}

	switch {
	case evType == "response.output_text.delta":
		if d := gjson.Get(data, "delta"); d.Exists() {
			return TextDelta{Delta: d.String()}
		}
		return nil

	case evType == "response.reasoning_summary_text.delta":
		if d := gjson.Get(data, "delta"); d.Exists() {
			return ReasoningDelta{Delta: d.String()}
		}
		return nil

	case evType == "response.output_item.added":
		id, itemType, status, query := itemFields(data)
		return ItemAdded{ItemID: id, ItemType: itemType, Status: status, Query: query}

	case evType == "response.output_item.done":
		id, itemType, status, query := itemFields(data)
		return ItemDone{ItemID: id, ItemType: itemType, Status: status, Query: query}

	case strings.HasPrefix(evType, "response.web_search_call."):
		return WebSearchCall{
			EventType: evType,
			ItemID:    firstString(data, "item_id", "item.id"),
			Status:    firstString(data, "status", "item.status"),
			Query:     queryField(data, ""),
			Message:   gjson.Get(data, "message").String(),
		}

	case evType == "response.completed":
		id := gjson.Get(data, "response_id")
		if !id.Exists() {
			id = gjson.Get(data, "response.id")
		}
		return Completed{ResponseID: id.String()}

	case evType == "response.error" || evType == "response.failed" || evType == "error":
		return Failed{
			Message:   errorMessage(data),
			Code:      firstString(data, "error.code", "response.error.code", "code"),
			EventType: evType,
		}

	default:
		return Unknown{EventType: evType, Raw: data}
	}
}

// itemFields resolves the id/type/status/query of an output item, preferring
// fields nested under item over payload-level fields.
func itemFields(data string) (id, itemType, status, query string) {
	id = firstString(data, "item.id", "item_id", "id")
	itemType = firstString(data, "item.type", "item_type")
	status = firstString(data, "item.status", "status")
	query = queryField(data, "item.")
	return
}

// queryField resolves a search query with top-level query taking precedence
// over action.query, then search.query. With a prefix, the prefixed variants
// win over the payload-level ones.
func queryField(data, prefix string) string {
	paths := []string{"query", "action.query", "search.query"}
	if prefix != "" {
		prefixed := make([]string, 0, len(paths)*2)
		for _, p := range paths {
			prefixed = append(prefixed, prefix+p)
		}
		paths = append(prefixed, paths...)
	}
	return firstString(data, paths...)
}

func errorMessage(data string) string {
	if msg := firstString(data, "error.message", "response.error.message", "message"); msg != "" {
		return msg
	}
	return "request failed"
}

func firstString(data string, paths ...string) string {
	for _, p := range paths {
		if v := gjson.Get(data, p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
