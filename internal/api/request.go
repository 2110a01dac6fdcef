package api

const (
	// Reasoning effort levels understood by the Responses API.
	EffortHigh = "high"
	EffortNone = "none"

	// Content part types. Prior assistant turns are sent as output text, new
	// user input as input text; the API treats the two differently.
	ContentInputText  = "input_text"
	ContentOutputText = "output_text"
)

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type InputItem struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type Reasoning struct {
	Effort string `json:"effort,omitempty"`
}

type Tool struct {
	Type string `json:"type"`
}

// ChatRequest is one Responses API request. Requests are treated as
// immutable: every degraded retry derives a fresh copy via the With* methods
// and the original is never touched.
type ChatRequest struct {
	Model        string     `json:"model"`
	Input        []InputItem `json:"input"`
	Instructions string     `json:"instructions,omitempty"`
	Reasoning    *Reasoning `json:"reasoning,omitempty"`
	Tools        []Tool     `json:"tools,omitempty"`
	Stream       bool       `json:"stream"`
}

// WithEffort returns a copy of the request with the reasoning effort replaced.
func (r ChatRequest) WithEffort(effort string) ChatRequest {
	r.Reasoning = &Reasoning{Effort: effort}
	return r
}

// WithoutTools returns a copy of the request with no tools configured.
func (r ChatRequest) WithoutTools() ChatRequest {
	r.Tools = nil
	return r
}

// WithStream returns a copy of the request with the stream flag set.
func (r ChatRequest) WithStream(stream bool) ChatRequest {
	r.Stream = stream
	return r
}

func (r ChatRequest) HasTools() bool {
	return len(r.Tools) > 0
}

// Effort returns the configured reasoning effort, or empty when unset.
func (r ChatRequest) Effort() string {
	if r.Reasoning == nil {
		return ""
	}
	return r.Reasoning.Effort
}
