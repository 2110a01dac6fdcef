// Package sse turns a Responses API event stream into typed events.
//
// The split follows a parser/reader separation: Parse only parses one
// assembled frame, FrameReader owns I/O, frame assembly and terminal-event
// sequencing. Neither renders output or keeps conversation state.
package sse

// Event is one typed occurrence on a response stream. The set is closed
// except for Unknown, which absorbs event types this client does not
// recognize so that new server-side events never break an attempt.
type Event interface {
	event()
}

// TextDelta carries an increment of visible assistant output.
type TextDelta struct {
	Delta string
}

// ReasoningDelta carries an increment of the reasoning summary.
type ReasoningDelta struct {
	Delta string
}

// ItemAdded marks the start of an output item (message, tool call, ...).
type ItemAdded struct {
	ItemID   string
	ItemType string
	Status   string
	Query    string
}

// ItemDone marks the completion of an output item.
type ItemDone struct {
	ItemID   string
	ItemType string
	Status   string
	Query    string
}

// WebSearchCall is any response.web_search_call.* lifecycle event.
type WebSearchCall struct {
	EventType string
	ItemID    string
	Status    string
	Query     string
	Message   string
}

// Completed terminates a stream successfully. ResponseID is empty for the
// bare [DONE] sentinel.
type Completed struct {
	ResponseID string
}

// Failed terminates a stream with an error.
type Failed struct {
	Message   string
	Code      string
	EventType string
}

// Unknown is any event type without a dedicated variant. Raw keeps the
// payload for debug logging.
type Unknown struct {
	EventType string
	Raw       string
}

func (TextDelta) event()      {}
func (ReasoningDelta) event() {}
func (ItemAdded) event()      {}
func (ItemDone) event()       {}
func (WebSearchCall) event()  {}
func (Completed) event()      {}
func (Failed) event()         {}
func (Unknown) event()        {}

// IsTerminal reports whether ev ends the stream.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case Completed, Failed:
		return true
	default:
		return false
	}
}
