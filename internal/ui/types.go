package ui

import (
	"ember/internal/chat"
	"ember/internal/models"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	ModalWidth = 60

	HistoryListLimit = 50
)

// SnapshotMsg carries a conversation snapshot from the controller's change
// callback into the bubbletea loop.
type SnapshotMsg chat.Snapshot

// SendDoneMsg reports a finished send command.
type SendDoneMsg struct {
	Err error
}

type ErrMsg error

type Model struct {
	Ctrl *chat.Controller

	Viewport  viewport.Model
	TextInput textarea.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer

	Snapshot chat.Snapshot
	Err      error

	WindowWidth  int
	WindowHeight int

	HistoryOpen        bool
	HistorySelectedIdx int
	HistorySessions    []models.Session
	HistoryErr         error

	ProfilesOpen       bool
	ProfileSelectedIdx int
	ProfileList        []models.Profile
	ActiveProfileID    string
	ProfileErr         error

	ShortcutsOpen bool

	ModelName string

	Program *tea.Program
}
