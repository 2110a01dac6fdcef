package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DoneSentinel(t *testing.T) {
	ev := Parse("", "[DONE]")
	require.IsType(t, Completed{}, ev)
	assert.Empty(t, ev.(Completed).ResponseID)
}

func TestParse_BlankPayload(t *testing.T) {
	assert.Nil(t, Parse("", ""))
	assert.Nil(t, Parse("response.output_text.delta", "   \t"))
}

func TestParse_MalformedPayload(t *testing.T) {
	ev := Parse("response.output_text.delta", "{not json")
	require.IsType(t, Failed{}, ev)
	failed := ev.(Failed)
	assert.Equal(t, "malformed stream payload", failed.Message)
	assert.Equal(t, "response.output_text.delta", failed.EventType)
}

func TestParse_TextDelta(t *testing.T) {
	ev := Parse("response.output_text.delta", `{"delta":"Hel"}`)
	require.IsType(t, TextDelta{}, ev)
	assert.Equal(t, "Hel", ev.(TextDelta).Delta)

	// Type resolved from payload when the event name is absent.
	ev = Parse("", `{"type":"response.output_text.delta","delta":"lo"}`)
	require.IsType(t, TextDelta{}, ev)
	assert.Equal(t, "lo", ev.(TextDelta).Delta)

	// Missing delta field yields no event at all.
	assert.Nil(t, Parse("response.output_text.delta", `{"foo":1}`))
}

func TestParse_ReasoningDelta(t *testing.T) {
	ev := Parse("response.reasoning_summary_text.delta", `{"delta":"thinking"}`)
	require.IsType(t, ReasoningDelta{}, ev)
	assert.Equal(t, "thinking", ev.(ReasoningDelta).Delta)

	assert.Nil(t, Parse("response.reasoning_summary_text.delta", `{}`))
}

func TestParse_OutputItemAdded(t *testing.T) {
	ev := Parse("response.output_item.added",
		`{"item":{"id":"ws_1","type":"web_search_call","status":"in_progress","action":{"query":"go generics"}}}`)
	require.IsType(t, ItemAdded{}, ev)
	added := ev.(ItemAdded)
	assert.Equal(t, "ws_1", added.ItemID)
	assert.Equal(t, "web_search_call", added.ItemType)
	assert.Equal(t, "in_progress", added.Status)
	assert.Equal(t, "go generics", added.Query)
}

func TestParse_OutputItemQueryPrecedence(t *testing.T) {
	// Top-level query beats action.query; item fields beat payload fields.
	ev := Parse("response.output_item.done",
		`{"query":"payload","item":{"id":"i1","type":"web_search_call","query":"item","action":{"query":"action"}}}`)
	require.IsType(t, ItemDone{}, ev)
	assert.Equal(t, "item", ev.(ItemDone).Query)

	ev = Parse("response.output_item.done",
		`{"item":{"id":"i1","type":"web_search_call","action":{"query":"action"},"search":{"query":"search"}}}`)
	assert.Equal(t, "action", ev.(ItemDone).Query)

	ev = Parse("response.output_item.done",
		`{"query":"payload","item":{"id":"i1","type":"web_search_call"}}`)
	assert.Equal(t, "payload", ev.(ItemDone).Query)
}

func TestParse_WebSearchCall(t *testing.T) {
	ev := Parse("response.web_search_call.searching",
		`{"item_id":"ws_2","status":"searching","action":{"query":"sqlite wal"}}`)
	require.IsType(t, WebSearchCall{}, ev)
	ws := ev.(WebSearchCall)
	assert.Equal(t, "response.web_search_call.searching", ws.EventType)
	assert.Equal(t, "ws_2", ws.ItemID)
	assert.Equal(t, "searching", ws.Status)
	assert.Equal(t, "sqlite wal", ws.Query)
}

func TestParse_Completed(t *testing.T) {
	ev := Parse("response.completed", `{"response_id":"resp_1"}`)
	require.IsType(t, Completed{}, ev)
	assert.Equal(t, "resp_1", ev.(Completed).ResponseID)

	ev = Parse("response.completed", `{"response":{"id":"resp_2"}}`)
	assert.Equal(t, "resp_2", ev.(Completed).ResponseID)
}

func TestParse_Failed(t *testing.T) {
	for _, evType := range []string{"response.error", "response.failed", "error"} {
		ev := Parse(evType, `{"error":{"message":"boom","code":"server_error"}}`)
		require.IsType(t, Failed{}, ev, evType)
		failed := ev.(Failed)
		assert.Equal(t, "boom", failed.Message)
		assert.Equal(t, "server_error", failed.Code)
		assert.Equal(t, evType, failed.EventType)
	}

	ev := Parse("error", `{"response":{"error":{"message":"nested"}}}`)
	assert.Equal(t, "nested", ev.(Failed).Message)

	ev = Parse("error", `{"message":"flat"}`)
	assert.Equal(t, "flat", ev.(Failed).Message)

	ev = Parse("error", `{}`)
	assert.Equal(t, "request failed", ev.(Failed).Message)
}

func TestParse_Unknown(t *testing.T) {
	ev := Parse("response.audio.delta", `{"delta":"zzz"}`)
	require.IsType(t, Unknown{}, ev)
	assert.Equal(t, "response.audio.delta", ev.(Unknown).EventType)
}

func TestParse_Idempotent(t *testing.T) {
	name, payload := "response.output_item.added",
		`{"item":{"id":"a","type":"web_search_call","status":"completed"}}`
	first := Parse(name, payload)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Parse(name, payload))
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Completed{}))
	assert.True(t, IsTerminal(Failed{}))
	assert.False(t, IsTerminal(TextDelta{}))
	assert.False(t, IsTerminal(Unknown{}))
}
