package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateLastAssistant(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "he", Streaming: true},
	}

	out := UpdateLastAssistant(msgs, func(m ChatMessage) ChatMessage {
		m.Content += "llo"
		return m
	})

	assert.Equal(t, "hello", out[len(out)-1].Content)
	assert.Equal(t, "he", msgs[1].Content, "input slice must not be mutated")
}

func TestUpdateLastAssistant_LastIsUser(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleAssistant, Content: "done"},
		{Role: RoleUser, Content: "next"},
	}

	out := UpdateLastAssistant(msgs, func(m ChatMessage) ChatMessage {
		m.Content = "clobbered"
		return m
	})

	assert.Equal(t, msgs, out)
}

func TestUpdateLastAssistant_Empty(t *testing.T) {
	assert.Empty(t, UpdateLastAssistant(nil, func(m ChatMessage) ChatMessage { return m }))
}
