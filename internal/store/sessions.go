package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ember/internal/models"
)

const (
	sessionsKey       = "chat/sessions"
	messagesKeyPrefix = "chat/messages/"

	maxTitleRunes   = 60
	maxPreviewRunes = 120
)

// Sessions manages the chat session index and per-session transcripts. All
// methods are safe for concurrent use.
type Sessions struct {
	mu sync.Mutex
	kv KV
}

func NewSessions(kv KV) *Sessions {
	return &Sessions{kv: kv}
}

// List returns all sessions, most recently updated first.
func (s *Sessions) List() ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndex()
}

// Create registers a fresh empty session and returns it.
func (s *Sessions) Create() (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadIndex()
	if err != nil {
		return models.Session{}, err
	}

	sess := models.Session{
		ID:            uuid.NewString(),
		Title:         "New chat",
		UpdatedAtUnix: time.Now().Unix(),
	}
	sessions = append(sessions, sess)
	if err := s.saveIndex(sessions); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Messages loads a session's transcript. A session with nothing persisted
// yet yields an empty slice.
func (s *Sessions) Messages(id string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(messagesKeyPrefix + id)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if !ok {
		return []models.ChatMessage{}, nil
	}
	var msgs []models.ChatMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

// SaveMessages replaces a session's transcript and refreshes its index entry:
// title from the first user message, preview from the last, both bounded.
func (s *Sessions) SaveMessages(id string, msgs []models.ChatMessage) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(msgs)
	if err != nil {
		return models.Session{}, fmt.Errorf("encode messages: %w", err)
	}
	if err := s.kv.Set(messagesKeyPrefix+id, raw); err != nil {
		return models.Session{}, fmt.Errorf("save messages: %w", err)
	}

	sessions, err := s.loadIndex()
	if err != nil {
		return models.Session{}, err
	}

	updated := models.Session{
		ID:            id,
		Title:         sessionTitle(msgs),
		Preview:       sessionPreview(msgs),
		UpdatedAtUnix: time.Now().Unix(),
		MessageCount:  len(msgs),
	}

	replaced := false
	for i := range sessions {
		if sessions[i].ID == id {
			sessions[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, updated)
	}
	if err := s.saveIndex(sessions); err != nil {
		return models.Session{}, err
	}
	return updated, nil
}

// Delete removes a session and its transcript.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadIndex()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, sess := range sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	if err := s.saveIndex(kept); err != nil {
		return err
	}
	return s.kv.Delete(messagesKeyPrefix + id)
}

func (s *Sessions) loadIndex() ([]models.Session, error) {
	raw, ok, err := s.kv.Get(sessionsKey)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	if !ok {
		return []models.Session{}, nil
	}
	var sessions []models.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAtUnix > sessions[j].UpdatedAtUnix
	})
	return sessions, nil
}

func (s *Sessions) saveIndex(sessions []models.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return s.kv.Set(sessionsKey, raw)
}

func sessionTitle(msgs []models.ChatMessage) string {
	for _, m := range msgs {
		if m.Role == models.RoleUser {
			return truncateRunes(firstLine(m.Content), maxTitleRunes)
		}
	}
	return "New chat"
}

func sessionPreview(msgs []models.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			return truncateRunes(firstLine(msgs[i].Content), maxPreviewRunes)
		}
	}
	return ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
