package sse

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

const (
	eventPrefix = "event:"
	dataPrefix  = "data:"

	maxLineBytes = 1 << 20
)

// FrameReader consumes an SSE body line by line, assembles event/data frames
// at blank-line boundaries, and emits the parsed events.
//
// A FrameReader is single-use state for one stream attempt; create a fresh
// one per call to Read.
type FrameReader struct {
	eventName string
	data      strings.Builder
	terminal  bool
}

// Read drains body, invoking emit for each parsed event. The body is always
// closed before Read returns.
//
// Guarantees:
//   - frames arriving after a terminal event are discarded, never parsed
//   - a pending frame is flushed at end of stream
//   - a stream that ends without a terminal event yields a synthetic Failed
//   - read errors become a Failed event; cancellation propagates as an error
func (r *FrameReader) Read(ctx context.Context, body io.ReadCloser, emit func(Event)) error {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			r.flush(emit)
		case strings.HasPrefix(line, eventPrefix):
			r.eventName = strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))
		case strings.HasPrefix(line, dataPrefix):
			chunk := strings.TrimLeft(strings.TrimPrefix(line, dataPrefix), " ")
			if r.data.Len() > 0 {
				r.data.WriteByte('\n')
			}
			r.data.WriteString(chunk)
		}
		// Other field names (id:, retry:, comments) are ignored.
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !r.terminal {
			msg := err.Error()
			if msg == "" {
				msg = "stream read failed"
			}
			emit(Failed{Message: msg})
			r.terminal = true
		}
		return nil
	}

	// Frame pending at EOF without a trailing blank line.
	r.flush(emit)

	if !r.terminal {
		emit(Failed{Message: "stream ended before completion"})
	}
	return nil
}

func (r *FrameReader) flush(emit func(Event)) {
	payload := r.data.String()
	name := r.eventName
	r.data.Reset()
	r.eventName = ""

	if r.terminal || strings.TrimSpace(payload) == "" {
		return
	}

	ev := Parse(name, payload)
	if ev == nil {
		return
	}
	emit(ev)
	if IsTerminal(ev) {
		r.terminal = true
	}
}
