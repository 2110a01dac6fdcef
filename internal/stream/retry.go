package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ember/internal/api"
)

const maxStreamAttempts = 3

// DefaultStreamReset reports whether an error message looks like an HTTP/2
// mid-stream reset, the failure mode that heavy reasoning output tends to
// trigger on some gateways.
func DefaultStreamReset(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "stream was reset: cancel") ||
		strings.Contains(lower, "http2 framing layer")
}

// Outcome is the final word on one request after all attempts and fallbacks.
type Outcome struct {
	Completed  bool
	ErrMessage string
}

// Runner owns the degrade-and-retry ladder. Attempt one sends the request as
// configured; on a stream reset the next attempt drops reasoning effort to
// none, and the one after that drops tools as well. When streaming never
// completes and produced nothing visible, a non-streaming request walks the
// same ladder as a last resort.
type Runner struct {
	Caller        Caller
	IsStreamReset func(msg string) bool
	Logger        *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) isReset(msg string) bool {
	if msg == "" {
		return false
	}
	if r.IsStreamReset != nil {
		return r.IsStreamReset(msg)
	}
	return DefaultStreamReset(msg)
}

// Run executes the request against the ladder. The returned error is non-nil
// only for cancellation; every other failure is reported through Outcome.
func (r *Runner) Run(ctx context.Context, req api.ChatRequest, sink Sink) (Outcome, error) {
	attempt := req
	var last Result
	for i := 1; i <= maxStreamAttempts; i++ {
		res, err := collectAttempt(ctx, r.Caller, attempt, sink)
		if err != nil {
			return Outcome{}, err
		}
		last = res
		if res.Completed {
			return Outcome{Completed: true}, nil
		}
		if !r.isReset(res.ErrMessage) {
			break
		}

		next, ok := degrade(attempt, i)
		if !ok {
			break
		}
		r.logger().Warn("stream reset, retrying degraded",
			"attempt", i, "error", res.ErrMessage, "effort", next.Effort(), "tools", next.HasTools())
		sink.Reset()
		attempt = next
	}

	if last.HasOutput {
		return Outcome{ErrMessage: last.ErrMessage}, nil
	}
	return r.fallback(ctx, req, sink, last.ErrMessage)
}

// degrade derives the next rung of the ladder after a failed attempt.
// Attempt 1 degrades reasoning effort; attempt 2 also drops tools, but only
// when the request still carries any.
func degrade(req api.ChatRequest, attempt int) (api.ChatRequest, bool) {
	switch attempt {
	case 1:
		return req.WithEffort(api.EffortNone), true
	case 2:
		if !req.HasTools() {
			return api.ChatRequest{}, false
		}
		return req.WithEffort(api.EffortNone).WithoutTools(), true
	default:
		return api.ChatRequest{}, false
	}
}

// fallback retries the original request without streaming, walking the same
// degradation ladder on reset-like errors.
func (r *Runner) fallback(ctx context.Context, req api.ChatRequest, sink Sink, streamErr string) (Outcome, error) {
	r.logger().Warn("streaming produced no output, falling back to non-streaming", "error", streamErr)

	resp, err := r.sendWithRetry(ctx, req.WithStream(false))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Outcome{}, err
		}
		return Outcome{ErrMessage: combineErrors(streamErr, err.Error())}, nil
	}

	sink.Reset()
	if text := resp.AssistantText(); text != "" {
		sink.AppendText(text)
	}
	if reasoning := resp.ReasoningText(); reasoning != "" {
		sink.AppendReasoning(reasoning)
	}
	return Outcome{Completed: true}, nil
}

func (r *Runner) sendWithRetry(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	attempt := req
	var lastErr error
	for i := 1; i <= maxStreamAttempts; i++ {
		resp, err := r.Caller.Send(ctx, attempt)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
		if !r.isReset(err.Error()) {
			break
		}
		next, ok := degrade(attempt, i)
		if !ok {
			break
		}
		attempt = next
	}
	return nil, lastErr
}

func combineErrors(streamErr, fallbackErr string) string {
	switch {
	case streamErr != "" && fallbackErr != "":
		return fmt.Sprintf("Streaming failed: %s. Fallback failed: %s", streamErr, fallbackErr)
	case fallbackErr != "":
		return fallbackErr
	case streamErr != "":
		return streamErr
	default:
		return "request failed"
	}
}
