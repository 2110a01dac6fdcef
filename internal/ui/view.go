package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ember/internal/styles"
)

func GetWelcomeScreen(width, height int) string {
	art := `
 ╭─────────────────────────────────────────────╮
 │                                             │
 │   ███████╗███╗   ███╗██████╗ ███████╗██████╗ │
 │   ██╔════╝████╗ ████║██╔══██╗██╔════╝██╔══██╗│
 │   █████╗  ██╔████╔██║██████╔╝█████╗  ██████╔╝│
 │   ██╔══╝  ██║╚██╔╝██║██╔══██╗██╔══╝  ██╔══██╗│
 │   ███████╗██║ ╚═╝ ██║██████╔╝███████╗██║  ██║│
 │   ╚══════╝╚═╝     ╚═╝╚═════╝ ╚══════╝╚═╝  ╚═╝│
 │                                             │
 ╰─────────────────────────────────────────────╯
`
	subtitle := "Streaming chat for Responses-API models"

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// UpdateViewport rebuilds the transcript from the current snapshot.
func (m *Model) UpdateViewport() {
	if len(m.Snapshot.Messages) == 0 && !m.Snapshot.Sending {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	var blocks []string
	for i, msg := range m.Snapshot.Messages {
		blocks = append(blocks, m.formatMessage(msg, i == 0))
	}

	if m.Snapshot.Sending {
		last := m.Snapshot.Messages[len(m.Snapshot.Messages)-1]
		if last.Content == "" && last.Reasoning == "" && len(last.ToolEvents) == 0 {
			blocks = append(blocks, fmt.Sprintf("%s\n%s Thinking...",
				styles.AiLabelStyle.Render("EMBER"), m.Spinner.View()))
		}
	}

	m.Viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.Viewport.GotoBottom()
}

func (m *Model) RenderHistorySelector() string {
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("Sessions (%d)", len(m.HistorySessions)))

	var body string
	if m.HistoryErr != nil {
		body = styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.HistoryErr))
	} else if len(m.HistorySessions) == 0 {
		body = styles.ModalItemStyle.Render(lipgloss.NewStyle().Foreground(styles.HintColor).Render("No sessions yet"))
	} else {
		items := make([]string, 0, len(m.HistorySessions))
		for i, sess := range m.HistorySessions {
			cursor := "  "
			if i == m.HistorySelectedIdx {
				cursor = "> "
			}
			timeStr := RelativeTime(time.Unix(sess.UpdatedAtUnix, 0))
			title := sess.Title
			if title == "" {
				title = "(empty session)"
			}
			availableWidth := styles.ContentWidth - 2 - len(cursor) - 1 - len(timeStr)
			title = TruncateRunes(title, availableWidth)

			item := fmt.Sprintf("%s%s %s", cursor, title,
				lipgloss.NewStyle().Foreground(styles.HintColor).Render(timeStr))
			if i == m.HistorySelectedIdx {
				items = append(items, styles.ModalSelectedStyle.Render(item))
			} else {
				items = append(items, styles.ModalItemStyle.Render(item))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, items...)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Enter: open • d: delete • Esc: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderProfileSelector() string {
	title := styles.ModalTitleStyle.Render("Credential Profiles")

	var body string
	if m.ProfileErr != nil {
		body = styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.ProfileErr))
	} else if len(m.ProfileList) == 0 {
		body = styles.ModalItemStyle.Render(lipgloss.NewStyle().Foreground(styles.HintColor).Render("No profiles configured"))
	} else {
		items := make([]string, 0, len(m.ProfileList))
		for i, prof := range m.ProfileList {
			name := prof.Name
			if prof.ID == m.ActiveProfileID {
				name = "● " + name
			} else {
				name = "  " + name
			}
			detail := TruncateRunes(prof.BaseURL, styles.ContentWidth-len(name)-4)
			item := fmt.Sprintf("%s %s", name,
				lipgloss.NewStyle().Foreground(styles.HintColor).Render(detail))
			if i == m.ProfileSelectedIdx {
				items = append(items, styles.ModalSelectedStyle.Render(item))
			} else {
				items = append(items, styles.ModalItemStyle.Render(item))
			}
		}
		body = lipgloss.JoinVertical(lipgloss.Left, items...)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Enter: activate • d: delete • Esc: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+C", "Quit"},
		{"Esc", "Pause generation / quit when idle"},
		{"Ctrl+N", "New session"},
		{"Ctrl+H", "Session history"},
		{"Ctrl+P", "Credential profiles"},
		{"Ctrl+S", "Shortcuts (this menu)"},
	}

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCC80")).
		Bold(true).
		Width(12)
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E0E0E0"))

	var items []string
	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), descStyle.Render(s.desc))
		items = append(items, styles.ModalItemStyle.Render(line))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title,
		lipgloss.JoinVertical(lipgloss.Left, items...))
	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderBottomBar() string {
	status := "IDLE"
	statusColor := "#81D4FA"
	if m.Snapshot.Sending {
		status = "GENERATING"
		statusColor = "#CE93D8"
	}
	mode := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(statusColor)).
		Padding(0, 1).
		Render(status)

	model := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFB74D")).
		Render(TruncateRunes(m.ModelName, 25))

	var errText string
	if m.Err != nil {
		errText = styles.ErrorStyle.Render(TruncateRunes(m.Err.Error(), 60))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, mode, "  ", model)
	if errText != "" {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Center, leftSide, "  ", errText)
	}

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(help) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)
	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, help)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(bar)
}

func (m *Model) View() string {
	inputWidth := m.WindowWidth - 4
	inputBox := styles.InputBoxStyle.Width(inputWidth).Render(m.TextInput.View())

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("EMBER"),
		"",
		m.Viewport.View(),
		"",
		inputBox,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	content := lipgloss.JoinVertical(lipgloss.Left, chatArea, m.RenderBottomBar())

	var modal string
	switch {
	case m.HistoryOpen:
		modal = m.RenderHistorySelector()
	case m.ProfilesOpen:
		modal = m.RenderProfileSelector()
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	default:
		return content
	}

	modal = styles.ModalStyle.Width(ModalWidth).Render(modal)
	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}
