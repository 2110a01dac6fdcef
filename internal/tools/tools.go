// Package tools maps server-side tool configuration and lifecycle events to
// the request payload and the status lines shown in the transcript.
package tools

import (
	"fmt"
	"strings"

	"ember/internal/api"
	"ember/internal/models"
)

const WebSearchType = "web_search"

// Definitions returns the tool list for a request. Web search runs on the
// server side; the client only declares it and renders its lifecycle events.
func Definitions(webSearch bool) []api.Tool {
	if !webSearch {
		return nil
	}
	return []api.Tool{{Type: WebSearchType}}
}

// Summarize renders one tool lifecycle event as a transcript status line, or
// empty for events not worth showing.
func Summarize(ev models.ToolEvent) string {
	switch {
	case strings.Contains(ev.Type, "web_search_call"):
		return summarizeWebSearch(ev)
	case ev.Type == "response.output_item.added" && ev.ItemType == "web_search_call":
		if ev.Query != "" {
			return fmt.Sprintf("SEARCH %q started", ev.Query)
		}
		return "SEARCH started"
	case ev.Type == "response.output_item.done" && ev.ItemType == "web_search_call":
		if ev.Query != "" {
			return fmt.Sprintf("SEARCH %q done", ev.Query)
		}
		return "SEARCH done"
	default:
		return ""
	}
}

func summarizeWebSearch(ev models.ToolEvent) string {
	switch {
	case strings.HasSuffix(ev.Type, ".searching") || ev.Status == "searching":
		if ev.Query != "" {
			return fmt.Sprintf("SEARCH %q", ev.Query)
		}
		return "SEARCH running"
	case strings.HasSuffix(ev.Type, ".in_progress") || ev.Status == "in_progress":
		return "SEARCH preparing"
	case strings.HasSuffix(ev.Type, ".completed") || ev.Status == "completed":
		if ev.Query != "" {
			return fmt.Sprintf("SEARCH %q complete", ev.Query)
		}
		return "SEARCH complete"
	case ev.Message != "":
		return fmt.Sprintf("SEARCH failed: %s", ev.Message)
	default:
		return "SEARCH update"
	}
}
