package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"ember/internal/models"
	"ember/internal/styles"
	"ember/internal/tools"
)

func (m *Model) formatMessage(msg models.ChatMessage, isFirst bool) string {
	if msg.Role == models.RoleUser {
		return FormatUserMessage(msg.Content, m.Viewport.Width, isFirst)
	}
	if msg.IsError {
		return fmt.Sprintf("%s\n%s",
			styles.AiLabelStyle.Render("EMBER"),
			styles.ErrorStyle.Render(msg.Content))
	}

	var parts []string
	parts = append(parts, styles.AiLabelStyle.Render("EMBER"))

	if lines := FormatToolEvents(msg.ToolEvents); lines != "" {
		parts = append(parts, lines)
	}
	if msg.Reasoning != "" {
		parts = append(parts, styles.ReasoningStyle.Render(msg.Reasoning))
	}

	content := msg.Content
	if msg.Streaming {
		// Raw text while streaming; markdown rendering waits for the final
		// message so partial code fences don't glitch.
		if content != "" {
			parts = append(parts, styles.AiMsgStyle.Render(content))
		} else if len(parts) == 1 {
			parts = append(parts, fmt.Sprintf("%s Thinking...", m.Spinner.View()))
		}
	} else if content != "" {
		rendered := content
		if r := m.renderer(); r != nil {
			if out, err := r.Render(content); err == nil {
				rendered = strings.TrimRight(out, "\n")
			}
		}
		parts = append(parts, styles.AiMsgStyle.Render(rendered))
	}

	return strings.Join(parts, "\n")
}

func FormatUserMessage(content string, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(content)
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, msg)
	}
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatToolEvents(events []models.ToolEvent) string {
	var lines []string
	seen := make(map[string]bool)
	for _, ev := range events {
		summary := tools.Summarize(ev)
		if summary == "" || seen[summary] {
			continue
		}
		seen[summary] = true
		icon := styles.ToolIconStyle.Render("→")
		name := styles.ToolNameStyle.Render(summary)
		lines = append(lines, styles.ToolActionStyle.Render(fmt.Sprintf("%s %s", icon, name)))
	}
	return strings.Join(lines, "\n")
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func RelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if d < 24*time.Hour {
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hrs ago", hrs)
	}
	days := int(d.Hours() / 24)
	if days < 14 {
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	weeks := days / 7
	if weeks == 1 {
		return "1 week ago"
	}
	return fmt.Sprintf("%d weeks ago", weeks)
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}
