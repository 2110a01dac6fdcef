package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/internal/api"
	"ember/internal/models"
	"ember/internal/store"
	"ember/internal/stream"
)

type fakeCaller struct {
	mu     sync.Mutex
	bodies []io.ReadCloser
	reqs   []api.ChatRequest
	opened chan struct{}

	sendErr error
}

func (f *fakeCaller) OpenStream(_ context.Context, req api.ChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	if len(f.bodies) == 0 {
		f.mu.Unlock()
		return nil, errors.New("no scripted body")
	}
	body := f.bodies[0]
	f.bodies = f.bodies[1:]
	f.mu.Unlock()
	if f.opened != nil {
		f.opened <- struct{}{}
	}
	return body, nil
}

func (f *fakeCaller) Send(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return api.NewChatResponse([]byte(`{}`)), nil
}

func (f *fakeCaller) requests() []api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.ChatRequest, len(f.reqs))
	copy(out, f.reqs)
	return out
}

// blockingBody serves its payload, then blocks until the request context is
// cancelled, mimicking a connection that stays open mid-generation.
type blockingBody struct {
	ctx  context.Context
	data []byte
	sent bool
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, b.data), nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *blockingBody) Close() error { return nil }

func sseBody(parts ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(parts, "")))
}

func deltaFrame(text string) string {
	return "event: response.output_text.delta\ndata: {\"delta\":\"" + text + "\"}\n\n"
}

func newTestController(t *testing.T, caller *fakeCaller) (*Controller, *store.Sessions) {
	t.Helper()
	kv := store.NewMemoryKV()
	sessions := store.NewSessions(kv)
	profiles := store.NewProfiles(kv)
	require.NoError(t, profiles.EnsureDefault(models.Profile{ID: "default", Name: "Default"}))

	c, err := New(sessions, profiles, Options{
		Model:           "gpt-5",
		ReasoningEffort: api.EffortHigh,
		WebSearch:       true,
		NewClient:       func(models.Profile) stream.Caller { return caller },
	})
	require.NoError(t, err)
	return c, sessions
}

func TestController_SendMessageStreamsAndPersists(t *testing.T) {
	caller := &fakeCaller{bodies: []io.ReadCloser{
		sseBody(deltaFrame("Hi"), deltaFrame("!"), "data: [DONE]\n\n"),
	}}
	c, sessions := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "hello"))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, models.RoleUser, snap.Messages[0].Role)
	assert.Equal(t, "hello", snap.Messages[0].Content)
	assert.Equal(t, "Hi!", snap.Messages[1].Content)
	assert.False(t, snap.Messages[1].Streaming)
	assert.False(t, snap.Messages[1].IsError)
	assert.False(t, snap.Sending)

	persisted, err := sessions.Messages(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, snap.Messages, persisted)

	list, err := sessions.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Title)
	assert.Equal(t, 2, list[0].MessageCount)
}

func TestController_ErrorTurnExcludedFromHistory(t *testing.T) {
	caller := &fakeCaller{bodies: []io.ReadCloser{
		sseBody(deltaFrame("half"), "event: error\ndata: {\"error\":{\"message\":\"boom\"}}\n\n"),
		sseBody(deltaFrame("ok"), "data: [DONE]\n\n"),
	}}
	c, _ := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "first"))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.True(t, snap.Messages[1].IsError)
	assert.Equal(t, "Error: boom", snap.Messages[1].Content)

	require.NoError(t, c.SendMessage(context.Background(), "second"))

	reqs := caller.requests()
	require.Len(t, reqs, 2)
	var roles []string
	var texts []string
	for _, item := range reqs[1].Input {
		roles = append(roles, item.Role)
		texts = append(texts, item.Content[0].Text)
	}
	assert.Equal(t, []string{models.RoleUser, models.RoleUser}, roles,
		"error turns must not reach the request history")
	assert.Equal(t, []string{"first", "second"}, texts)
}

func TestController_RequestShape(t *testing.T) {
	caller := &fakeCaller{bodies: []io.ReadCloser{
		sseBody(deltaFrame("a"), "data: [DONE]\n\n"),
		sseBody(deltaFrame("b"), "data: [DONE]\n\n"),
	}}
	c, _ := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "q1"))
	require.NoError(t, c.SendMessage(context.Background(), "q2"))

	reqs := caller.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "gpt-5", reqs[0].Model)
	assert.Equal(t, api.EffortHigh, reqs[0].Effort())
	assert.True(t, reqs[0].HasTools())

	second := reqs[1].Input
	require.Len(t, second, 3)
	assert.Equal(t, api.ContentInputText, second[0].Content[0].Type)
	assert.Equal(t, api.ContentOutputText, second[1].Content[0].Type)
	assert.Equal(t, "a", second[1].Content[0].Text)
}

func TestController_BlankAndBusySendsAreNoOps(t *testing.T) {
	opened := make(chan struct{}, 1)
	release, cancelBody := context.WithCancel(context.Background())
	caller := &fakeCaller{opened: opened}
	caller.bodies = []io.ReadCloser{&blockingBody{ctx: release, data: []byte(deltaFrame("slow"))}}
	c, _ := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "   "))
	assert.Empty(t, caller.requests())

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(context.Background(), "busy") }()
	<-opened

	require.NoError(t, c.SendMessage(context.Background(), "second"))
	assert.Len(t, caller.requests(), 1, "a busy controller must not start a second request")

	c.PauseGenerating()
	cancelBody()
	require.NoError(t, <-done)
}

func TestController_PauseKeepsPartialOutput(t *testing.T) {
	opened := make(chan struct{}, 1)
	bodyCtx, cancelBody := context.WithCancel(context.Background())
	defer cancelBody()
	caller := &fakeCaller{opened: opened}
	caller.bodies = []io.ReadCloser{&blockingBody{ctx: bodyCtx, data: []byte(deltaFrame("partial answer"))}}
	c, sessions := newTestController(t, caller)

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(context.Background(), "long question") }()
	<-opened

	// Wait for the delta to land before pausing.
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return len(snap.Messages) == 2 && snap.Messages[1].Content == "partial answer"
	}, time.Second, 5*time.Millisecond)

	c.PauseGenerating()
	cancelBody()
	require.NoError(t, <-done)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "partial answer", snap.Messages[1].Content)
	assert.False(t, snap.Messages[1].Streaming)
	assert.False(t, snap.Messages[1].IsError, "paused output is not an error")

	persisted, err := sessions.Messages(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, snap.Messages, persisted)
}

func TestController_NewAndLoadSession(t *testing.T) {
	caller := &fakeCaller{bodies: []io.ReadCloser{
		sseBody(deltaFrame("answer"), "data: [DONE]\n\n"),
	}}
	c, _ := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "remember me"))
	firstID := c.Snapshot().SessionID

	require.NoError(t, c.NewSession())
	snap := c.Snapshot()
	assert.NotEqual(t, firstID, snap.SessionID)
	assert.Empty(t, snap.Messages)

	require.NoError(t, c.LoadSession(firstID))
	snap = c.Snapshot()
	assert.Equal(t, firstID, snap.SessionID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "remember me", snap.Messages[0].Content)
}

func TestController_DeleteLastSessionCreatesFresh(t *testing.T) {
	c, sessions := newTestController(t, &fakeCaller{})

	oldID := c.Snapshot().SessionID
	require.NoError(t, c.DeleteSession(oldID))

	snap := c.Snapshot()
	assert.NotEqual(t, oldID, snap.SessionID)
	assert.NotEmpty(t, snap.SessionID)
	assert.Empty(t, snap.Messages)

	list, err := sessions.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.SessionID, list[0].ID)
}

func TestController_DeleteActiveSwitchesToRemaining(t *testing.T) {
	c, _ := newTestController(t, &fakeCaller{})

	firstID := c.Snapshot().SessionID
	require.NoError(t, c.NewSession())
	secondID := c.Snapshot().SessionID

	require.NoError(t, c.DeleteSession(secondID))
	assert.Equal(t, firstID, c.Snapshot().SessionID)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	caller := &fakeCaller{bodies: []io.ReadCloser{
		sseBody(deltaFrame("x"), "data: [DONE]\n\n"),
	}}
	c, _ := newTestController(t, caller)

	require.NoError(t, c.SendMessage(context.Background(), "hi"))
	snap := c.Snapshot()
	snap.Messages[0].Content = "mutated"
	assert.Equal(t, "hi", c.Snapshot().Messages[0].Content)
}
