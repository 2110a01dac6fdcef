// Package chat owns conversation state: the message list, send lifecycle,
// session switching, and persistence. The UI observes it through snapshots
// and never touches the underlying slices.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ember/internal/api"
	"ember/internal/models"
	"ember/internal/store"
	"ember/internal/stream"
	"ember/internal/tools"
)

// errPaused marks a cancellation that should keep the partial answer instead
// of discarding it.
var errPaused = errors.New("generation paused")

// Options configures a controller. NewClient builds the API caller for a
// credential profile; tests substitute fakes.
type Options struct {
	Model           string
	Instructions    string
	ReasoningEffort string
	WebSearch       bool
	NewClient       func(models.Profile) stream.Caller
	IsStreamReset   func(string) bool
	OnChange        func(Snapshot)
	Logger          *slog.Logger
}

// Snapshot is an immutable view of conversation state. Messages is a fresh
// slice on every change; holders may keep it without locking.
type Snapshot struct {
	SessionID string
	Messages  []models.ChatMessage
	Sending   bool
}

type Controller struct {
	mu       sync.Mutex
	sessions *store.Sessions
	profiles *store.Profiles
	opts     Options

	sessionList []models.Session
	active      models.Session
	messages    []models.ChatMessage

	sending    bool
	cancelSend context.CancelCauseFunc
	sendDone   chan struct{}
}

// New builds a controller resuming the most recent session, creating one
// when the store is empty.
func New(sessions *store.Sessions, profiles *store.Profiles, opts Options) (*Controller, error) {
	c := &Controller{
		sessions: sessions,
		profiles: profiles,
		opts:     opts,
	}
	if c.opts.Logger == nil {
		c.opts.Logger = slog.Default()
	}

	list, err := sessions.List()
	if err != nil {
		return nil, err
	}
	c.sessionList = list

	if len(list) == 0 {
		sess, err := sessions.Create()
		if err != nil {
			return nil, err
		}
		c.sessionList = []models.Session{sess}
		c.active = sess
		c.messages = []models.ChatMessage{}
		return c, nil
	}

	c.active = list[0]
	msgs, err := sessions.Messages(c.active.ID)
	if err != nil {
		return nil, err
	}
	c.messages = msgs
	return c, nil
}

// SetOnChange installs the change callback after construction. The UI
// program needs the controller first, so the callback arrives late.
func (c *Controller) SetOnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.OnChange = fn
}

// Snapshot returns the current conversation state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	msgs := make([]models.ChatMessage, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{SessionID: c.active.ID, Messages: msgs, Sending: c.sending}
}

func (c *Controller) notifyLocked() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.snapshotLocked())
	}
}

// Sessions returns the session list, most recent first.
func (c *Controller) Sessions() []models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Session, len(c.sessionList))
	copy(out, c.sessionList)
	return out
}

// SendMessage runs one full request: it appends the user turn and a
// streaming assistant placeholder, drives the retry runner, finalizes the
// assistant message, and persists the transcript. It blocks until the
// exchange settles; callers run it on their own goroutine.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.sending {
		c.mu.Unlock()
		return nil
	}

	profile, err := c.profiles.Active()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("resolve profile: %w", err)
	}

	c.messages = append(c.messages,
		models.ChatMessage{Role: models.RoleUser, Content: text},
		models.ChatMessage{Role: models.RoleAssistant, Streaming: true},
	)
	req := c.buildRequestLocked()

	sendCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	c.sending = true
	c.cancelSend = cancel
	c.sendDone = done
	sessionID := c.active.ID
	c.notifyLocked()
	c.mu.Unlock()

	defer func() {
		cancel(nil)
		c.mu.Lock()
		c.sending = false
		c.cancelSend = nil
		c.sendDone = nil
		c.notifyLocked()
		c.mu.Unlock()
		close(done)
	}()

	runner := &stream.Runner{
		Caller:        c.opts.NewClient(profile),
		IsStreamReset: c.opts.IsStreamReset,
		Logger:        c.opts.Logger,
	}
	outcome, err := runner.Run(sendCtx, req, &controllerSink{c: c})
	if err != nil {
		if errors.Is(context.Cause(sendCtx), errPaused) {
			c.finalize(sessionID, "")
			return nil
		}
		return err
	}

	if outcome.Completed {
		c.finalize(sessionID, "")
	} else {
		c.finalize(sessionID, outcome.ErrMessage)
	}
	return nil
}

// finalize clears the streaming flag on the trailing assistant message,
// marks it as an error when errMessage is set, and persists the transcript.
func (c *Controller) finalize(sessionID, errMessage string) {
	c.mu.Lock()
	c.messages = models.UpdateLastAssistant(c.messages, func(m models.ChatMessage) models.ChatMessage {
		m.Streaming = false
		if errMessage != "" {
			m.Content = "Error: " + errMessage
			m.IsError = true
		}
		return m
	})
	msgs := make([]models.ChatMessage, len(c.messages))
	copy(msgs, c.messages)
	c.notifyLocked()
	c.mu.Unlock()

	updated, err := c.sessions.SaveMessages(sessionID, msgs)
	if err != nil {
		c.opts.Logger.Error("persist transcript", "session", sessionID, "error", err)
		return
	}

	c.mu.Lock()
	for i := range c.sessionList {
		if c.sessionList[i].ID == updated.ID {
			c.sessionList[i] = updated
			break
		}
	}
	if c.active.ID == updated.ID {
		c.active = updated
	}
	c.mu.Unlock()
}

// buildRequestLocked assembles the request from the transcript. Error turns
// and the streaming placeholder are excluded; prior assistant turns go out
// as output text, user turns as input text.
func (c *Controller) buildRequestLocked() api.ChatRequest {
	var input []api.InputItem
	for _, m := range c.messages {
		if m.IsError || m.Streaming || m.Content == "" {
			continue
		}
		contentType := api.ContentInputText
		if m.Role == models.RoleAssistant {
			contentType = api.ContentOutputText
		}
		input = append(input, api.InputItem{
			Role:    m.Role,
			Content: []api.ContentPart{{Type: contentType, Text: m.Content}},
		})
	}

	req := api.ChatRequest{
		Model:        c.opts.Model,
		Input:        input,
		Instructions: c.opts.Instructions,
		Tools:        tools.Definitions(c.opts.WebSearch),
	}
	if c.opts.ReasoningEffort != "" {
		req.Reasoning = &api.Reasoning{Effort: c.opts.ReasoningEffort}
	}
	return req
}

// PauseGenerating stops the in-flight request but keeps and persists the
// output streamed so far. No-op when idle.
func (c *Controller) PauseGenerating() {
	c.mu.Lock()
	cancel := c.cancelSend
	c.mu.Unlock()
	if cancel != nil {
		cancel(errPaused)
	}
}

// interruptSend aborts any in-flight request and waits for the send
// goroutine to settle before the conversation is swapped out.
func (c *Controller) interruptSend() {
	c.mu.Lock()
	cancel := c.cancelSend
	done := c.sendDone
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel(context.Canceled)
	<-done
}

// NewSession starts a fresh conversation.
func (c *Controller) NewSession() error {
	c.interruptSend()

	sess, err := c.sessions.Create()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionList = append([]models.Session{sess}, c.sessionList...)
	c.active = sess
	c.messages = []models.ChatMessage{}
	c.notifyLocked()
	c.mu.Unlock()
	return nil
}

// LoadSession switches to a stored session.
func (c *Controller) LoadSession(id string) error {
	c.interruptSend()

	msgs, err := c.sessions.Messages(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sess := range c.sessionList {
		if sess.ID == id {
			c.active = sess
			c.messages = msgs
			c.notifyLocked()
			return nil
		}
	}
	return fmt.Errorf("unknown session %q", id)
}

// DeleteSession removes a session. Deleting the active one switches to the
// most recent remaining session, or a fresh one when none remain.
func (c *Controller) DeleteSession(id string) error {
	c.mu.Lock()
	activeDeleted := c.active.ID == id
	c.mu.Unlock()

	if activeDeleted {
		c.interruptSend()
	}
	if err := c.sessions.Delete(id); err != nil {
		return err
	}

	list, err := c.sessions.List()
	if err != nil {
		return err
	}

	if activeDeleted && len(list) == 0 {
		sess, err := c.sessions.Create()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.sessionList = []models.Session{sess}
		c.active = sess
		c.messages = []models.ChatMessage{}
		c.notifyLocked()
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.sessionList = list
	c.mu.Unlock()

	if activeDeleted {
		return c.LoadSession(list[0].ID)
	}
	return nil
}

// RefreshSessions reloads the session index from the store. If the active
// session no longer exists there, the most recent remaining session takes
// over, or a fresh one when none remain.
func (c *Controller) RefreshSessions() error {
	list, err := c.sessions.List()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionList = list
	activeID := c.active.ID
	c.mu.Unlock()

	for _, sess := range list {
		if sess.ID == activeID {
			return nil
		}
	}
	if len(list) == 0 {
		return c.NewSession()
	}
	return c.LoadSession(list[0].ID)
}

// Profiles exposes credential profile management to the UI.
func (c *Controller) Profiles() ([]models.Profile, error)      { return c.profiles.List() }
func (c *Controller) ActiveProfile() (models.Profile, error)   { return c.profiles.Active() }
func (c *Controller) SetActiveProfile(id string) error         { return c.profiles.SetActive(id) }
func (c *Controller) SaveProfile(p models.Profile) (models.Profile, error) {
	return c.profiles.Upsert(p)
}
func (c *Controller) DeleteProfile(id string) error { return c.profiles.Delete(id) }

// controllerSink folds stream deltas into the trailing assistant message.
type controllerSink struct {
	c *Controller
}

func (s *controllerSink) AppendText(delta string) {
	s.update(func(m models.ChatMessage) models.ChatMessage {
		m.Content += delta
		return m
	})
}

func (s *controllerSink) AppendReasoning(delta string) {
	s.update(func(m models.ChatMessage) models.ChatMessage {
		m.Reasoning += delta
		return m
	})
}

func (s *controllerSink) AddToolEvent(ev models.ToolEvent) {
	s.update(func(m models.ChatMessage) models.ChatMessage {
		events := make([]models.ToolEvent, len(m.ToolEvents), len(m.ToolEvents)+1)
		copy(events, m.ToolEvents)
		m.ToolEvents = append(events, ev)
		return m
	})
}

func (s *controllerSink) Reset() {
	s.update(func(m models.ChatMessage) models.ChatMessage {
		m.Content = ""
		m.Reasoning = ""
		m.ToolEvents = nil
		return m
	})
}

func (s *controllerSink) update(fn func(models.ChatMessage) models.ChatMessage) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.messages = models.UpdateLastAssistant(s.c.messages, fn)
	s.c.notifyLocked()
}
