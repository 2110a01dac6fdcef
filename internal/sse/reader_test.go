package sse

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTrackingReader struct {
	io.Reader
	closed bool
}

func (c *closeTrackingReader) Close() error {
	c.closed = true
	return nil
}

type errReader struct {
	data []byte
	err  error
	read bool
}

func (e *errReader) Read(p []byte) (int, error) {
	if !e.read {
		e.read = true
		n := copy(p, e.data)
		return n, nil
	}
	return 0, e.err
}

func (e *errReader) Close() error { return nil }

func collect(t *testing.T, body string) []Event {
	t.Helper()
	var events []Event
	r := &FrameReader{}
	err := r.Read(context.Background(), io.NopCloser(strings.NewReader(body)), func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

func TestFrameReader_BasicStream(t *testing.T) {
	body := "event: response.output_text.delta\n" +
		"data: {\"delta\":\"Hi\"}\n" +
		"\n" +
		"event: response.completed\n" +
		"data: {\"response_id\":\"r1\"}\n" +
		"\n"

	events := collect(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, TextDelta{Delta: "Hi"}, events[0])
	assert.Equal(t, Completed{ResponseID: "r1"}, events[1])
}

func TestFrameReader_MultiLineData(t *testing.T) {
	// Two data lines of one frame join with a newline per SSE semantics.
	body := "data: {\"type\":\"response.output_text.delta\",\n" +
		"data: \"delta\":\"x\"}\n" +
		"\n" +
		"data: [DONE]\n" +
		"\n"

	events := collect(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, TextDelta{Delta: "x"}, events[0])
	assert.Equal(t, Completed{}, events[1])
}

func TestFrameReader_DiscardsAfterTerminal(t *testing.T) {
	body := "data: [DONE]\n" +
		"\n" +
		"event: response.output_text.delta\n" +
		"data: {\"delta\":\"late\"}\n" +
		"\n"

	events := collect(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, Completed{}, events[0])
}

func TestFrameReader_FlushesPendingFrameAtEOF(t *testing.T) {
	// No trailing blank line after the last frame.
	body := "event: response.completed\n" +
		"data: {\"response_id\":\"r9\"}"

	events := collect(t, body)
	require.Len(t, events, 1)
	assert.Equal(t, Completed{ResponseID: "r9"}, events[0])
}

func TestFrameReader_SyntheticFailureWithoutTerminal(t *testing.T) {
	body := "event: response.output_text.delta\n" +
		"data: {\"delta\":\"partial\"}\n" +
		"\n"

	events := collect(t, body)
	require.Len(t, events, 2)
	assert.Equal(t, TextDelta{Delta: "partial"}, events[0])
	require.IsType(t, Failed{}, events[1])
	assert.Equal(t, "stream ended before completion", events[1].(Failed).Message)
}

func TestFrameReader_ReadErrorBecomesFailed(t *testing.T) {
	body := &errReader{
		data: []byte("event: response.output_text.delta\ndata: {\"delta\":\"a\"}\n\n"),
		err:  errors.New("stream was reset: CANCEL"),
	}

	var events []Event
	r := &FrameReader{}
	err := r.Read(context.Background(), body, func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.IsType(t, Failed{}, events[1])
	assert.Equal(t, "stream was reset: CANCEL", events[1].(Failed).Message)
}

func TestFrameReader_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := &closeTrackingReader{Reader: strings.NewReader("data: {\"delta\":\"x\"}\n\n")}
	r := &FrameReader{}
	err := r.Read(ctx, body, func(Event) { t.Fatal("no events expected") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, body.closed, "body must be closed on cancellation")
}

func TestFrameReader_ClosesBody(t *testing.T) {
	body := &closeTrackingReader{Reader: strings.NewReader("data: [DONE]\n\n")}
	r := &FrameReader{}
	require.NoError(t, r.Read(context.Background(), body, func(Event) {}))
	assert.True(t, body.closed)
}
