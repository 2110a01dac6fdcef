package ui

import (
	"context"

	"ember/internal/chat"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Snapshot.Sending {
			m.UpdateViewport()
		}
		return m, spCmd

	case SnapshotMsg:
		m.Snapshot = chat.Snapshot(msg)
		m.UpdateViewport()
		return m, nil

	case SendDoneMsg:
		if msg.Err != nil {
			m.Err = msg.Err
		}
		m.Snapshot = m.Ctrl.Snapshot()
		m.UpdateViewport()
		return m, nil

	case tea.KeyMsg:
		if m.HistoryOpen {
			return m.updateHistoryModal(msg)
		}
		if m.ProfilesOpen {
			return m.updateProfilesModal(msg)
		}
		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "ctrl+s":
				m.ShortcutsOpen = false
				return m, nil
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			if m.Snapshot.Sending {
				m.Ctrl.PauseGenerating()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyCtrlN:
			if err := m.Ctrl.NewSession(); err != nil {
				m.Err = err
			}
			m.Snapshot = m.Ctrl.Snapshot()
			m.UpdateViewport()
			return m, nil

		case tea.KeyCtrlH:
			m.HistoryOpen = true
			m.ProfilesOpen = false
			m.ShortcutsOpen = false
			m.HistorySelectedIdx = 0
			m.refreshHistory()
			return m, nil

		case tea.KeyCtrlP:
			m.ProfilesOpen = true
			m.HistoryOpen = false
			m.ShortcutsOpen = false
			m.ProfileSelectedIdx = 0
			m.refreshProfiles()
			return m, nil

		case tea.KeyCtrlS:
			m.ShortcutsOpen = true
			m.HistoryOpen = false
			m.ProfilesOpen = false
			return m, nil

		case tea.KeyEnter:
			if m.Snapshot.Sending {
				return m, nil
			}
			input := m.TextInput.Value()
			if input == "" {
				return m, nil
			}
			m.TextInput.Reset()
			return m, tea.Batch(m.sendCmd(input), m.Spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height
		m.Viewport.Width = min(msg.Width-4, 100)
		m.Viewport.Height = msg.Height - 10
		m.TextInput.SetWidth(msg.Width - 8)
		m.Renderer = nil
		m.UpdateViewport()
		return m, nil

	case ErrMsg:
		m.Err = msg
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()
	m.Viewport, vpCmd = m.Viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// updateInputLayout grows the input box with its content, up to its max
// height.
func (m *Model) updateInputLayout() {
	width := m.TextInput.Width()
	if width <= 0 {
		return
	}
	height := WrappedLineCount(m.TextInput.Value(), width)
	if height < 2 {
		height = 2
	}
	if height > 6 {
		height = 6
	}
	m.TextInput.SetHeight(height)
}

// sendCmd runs the blocking send on the command goroutine. Streaming updates
// arrive separately through SnapshotMsg via the controller's change callback.
func (m *Model) sendCmd(input string) tea.Cmd {
	ctrl := m.Ctrl
	return func() tea.Msg {
		return SendDoneMsg{Err: ctrl.SendMessage(context.Background(), input)}
	}
}

func (m *Model) updateHistoryModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+h":
		m.HistoryOpen = false
		m.HistoryErr = nil
		return m, nil
	case "up", "k":
		if len(m.HistorySessions) == 0 {
			return m, nil
		}
		m.HistorySelectedIdx--
		if m.HistorySelectedIdx < 0 {
			m.HistorySelectedIdx = len(m.HistorySessions) - 1
		}
		return m, nil
	case "down", "j":
		if len(m.HistorySessions) == 0 {
			return m, nil
		}
		m.HistorySelectedIdx++
		if m.HistorySelectedIdx >= len(m.HistorySessions) {
			m.HistorySelectedIdx = 0
		}
		return m, nil
	case "enter":
		if len(m.HistorySessions) == 0 {
			return m, nil
		}
		sess := m.HistorySessions[m.HistorySelectedIdx]
		if err := m.Ctrl.LoadSession(sess.ID); err != nil {
			m.HistoryErr = err
			return m, nil
		}
		m.HistoryOpen = false
		m.HistoryErr = nil
		m.Snapshot = m.Ctrl.Snapshot()
		m.UpdateViewport()
		return m, nil
	case "d", "delete":
		if len(m.HistorySessions) == 0 {
			return m, nil
		}
		sess := m.HistorySessions[m.HistorySelectedIdx]
		if err := m.Ctrl.DeleteSession(sess.ID); err != nil {
			m.HistoryErr = err
			return m, nil
		}
		m.refreshHistory()
		if m.HistorySelectedIdx >= len(m.HistorySessions) && m.HistorySelectedIdx > 0 {
			m.HistorySelectedIdx--
		}
		m.Snapshot = m.Ctrl.Snapshot()
		m.UpdateViewport()
		return m, nil
	}
	return m, nil
}

func (m *Model) updateProfilesModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+p":
		m.ProfilesOpen = false
		m.ProfileErr = nil
		return m, nil
	case "up", "k":
		if len(m.ProfileList) == 0 {
			return m, nil
		}
		m.ProfileSelectedIdx--
		if m.ProfileSelectedIdx < 0 {
			m.ProfileSelectedIdx = len(m.ProfileList) - 1
		}
		return m, nil
	case "down", "j":
		if len(m.ProfileList) == 0 {
			return m, nil
		}
		m.ProfileSelectedIdx++
		if m.ProfileSelectedIdx >= len(m.ProfileList) {
			m.ProfileSelectedIdx = 0
		}
		return m, nil
	case "enter":
		if len(m.ProfileList) == 0 {
			return m, nil
		}
		prof := m.ProfileList[m.ProfileSelectedIdx]
		if err := m.Ctrl.SetActiveProfile(prof.ID); err != nil {
			m.ProfileErr = err
			return m, nil
		}
		m.ActiveProfileID = prof.ID
		m.ProfilesOpen = false
		m.ProfileErr = nil
		return m, nil
	case "d", "delete":
		if len(m.ProfileList) == 0 {
			return m, nil
		}
		prof := m.ProfileList[m.ProfileSelectedIdx]
		if err := m.Ctrl.DeleteProfile(prof.ID); err != nil {
			m.ProfileErr = err
			return m, nil
		}
		m.refreshProfiles()
		if m.ProfileSelectedIdx >= len(m.ProfileList) && m.ProfileSelectedIdx > 0 {
			m.ProfileSelectedIdx--
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) refreshHistory() {
	if err := m.Ctrl.RefreshSessions(); err != nil {
		m.HistoryErr = err
		return
	}
	sessions := m.Ctrl.Sessions()
	if len(sessions) > HistoryListLimit {
		sessions = sessions[:HistoryListLimit]
	}
	m.HistorySessions = sessions
	m.HistoryErr = nil
}

func (m *Model) refreshProfiles() {
	profiles, err := m.Ctrl.Profiles()
	if err != nil {
		m.ProfileErr = err
		return
	}
	m.ProfileList = profiles
	if active, err := m.Ctrl.ActiveProfile(); err == nil {
		m.ActiveProfileID = active.ID
	}
	m.ProfileErr = nil
}

func (m *Model) renderer() *glamour.TermRenderer {
	if m.Renderer == nil {
		width := m.Viewport.Width - 4
		if width < 20 {
			width = 20
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			m.Renderer = r
		}
	}
	return m.Renderer
}
