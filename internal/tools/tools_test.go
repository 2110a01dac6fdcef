package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ember/internal/models"
)

func TestDefinitions(t *testing.T) {
	assert.Nil(t, Definitions(false))

	defs := Definitions(true)
	assert.Len(t, defs, 1)
	assert.Equal(t, WebSearchType, defs[0].Type)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		ev   models.ToolEvent
		want string
	}{
		{
			"searching with query",
			models.ToolEvent{Type: "response.web_search_call.searching", Query: "go channels"},
			`SEARCH "go channels"`,
		},
		{
			"in progress",
			models.ToolEvent{Type: "response.web_search_call.in_progress"},
			"SEARCH preparing",
		},
		{
			"completed with query",
			models.ToolEvent{Type: "response.web_search_call.completed", Query: "go channels"},
			`SEARCH "go channels" complete`,
		},
		{
			"item added",
			models.ToolEvent{Type: "response.output_item.added", ItemType: "web_search_call", Query: "sqlite"},
			`SEARCH "sqlite" started`,
		},
		{
			"item done without query",
			models.ToolEvent{Type: "response.output_item.done", ItemType: "web_search_call"},
			"SEARCH done",
		},
		{
			"non-tool item ignored",
			models.ToolEvent{Type: "response.output_item.added", ItemType: "message"},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.ev))
		})
	}
}
