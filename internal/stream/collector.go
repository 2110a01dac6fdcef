// Package stream turns a single chat request into finished assistant output.
// It drives SSE attempts through the api client, folds events into a sink,
// and degrades the request when the transport keeps resetting.
package stream

import (
	"context"
	"errors"
	"io"

	"ember/internal/api"
	"ember/internal/models"
	"ember/internal/sse"
)

// Caller is the slice of the api client this package needs. Tests substitute
// scripted fakes.
type Caller interface {
	Send(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	OpenStream(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
}

// Sink receives incremental output as it arrives. Reset discards everything
// accumulated so far; the runner calls it before each degraded retry so the
// user never sees two half-answers stitched together.
type Sink interface {
	AppendText(delta string)
	AppendReasoning(delta string)
	AddToolEvent(ev models.ToolEvent)
	Reset()
}

// Result describes one finished stream attempt. ErrMessage is set when the
// stream reported or synthesized a failure; HasOutput is true when anything
// user-visible reached the sink.
type Result struct {
	Completed  bool
	ErrMessage string
	HasOutput  bool
}

// collectAttempt runs one streaming attempt to completion. Transport and
// stream-level failures land in Result.ErrMessage; the returned error is
// non-nil only for cancellation, which must outrank any retry policy.
func collectAttempt(ctx context.Context, caller Caller, req api.ChatRequest, sink Sink) (Result, error) {
	body, err := caller.OpenStream(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return Result{}, err
		}
		return Result{ErrMessage: err.Error()}, nil
	}

	var res Result
	reader := &sse.FrameReader{}
	err = reader.Read(ctx, body, func(ev sse.Event) {
		switch ev := ev.(type) {
		case sse.TextDelta:
			if ev.Delta != "" {
				sink.AppendText(ev.Delta)
				res.HasOutput = true
			}
		case sse.ReasoningDelta:
			if ev.Delta != "" {
				sink.AppendReasoning(ev.Delta)
				res.HasOutput = true
			}
		case sse.ItemAdded:
			sink.AddToolEvent(models.ToolEvent{
				Type:     "response.output_item.added",
				Status:   ev.Status,
				ItemType: ev.ItemType,
				Query:    ev.Query,
			})
			res.HasOutput = true
		case sse.ItemDone:
			sink.AddToolEvent(models.ToolEvent{
				Type:     "response.output_item.done",
				Status:   ev.Status,
				ItemType: ev.ItemType,
				Query:    ev.Query,
			})
			res.HasOutput = true
		case sse.WebSearchCall:
			sink.AddToolEvent(models.ToolEvent{
				Type:    ev.EventType,
				Status:  ev.Status,
				Query:   ev.Query,
				Message: ev.Message,
			})
			res.HasOutput = true
		case sse.Completed:
			res.Completed = true
		case sse.Failed:
			res.ErrMessage = ev.Message
		}
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
