package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	agentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00BFFF"))

	systemStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#FFB86C"))

	imageStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("#A0A0A0"))

	suggestionStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("#7D56F4"))
)

const timeLayout = "2006-01-02 15:04"

// renderTranscript formats messages for a viewport.
func renderTranscript(messages []models.ChatMessage) string {
	if len(messages) == 0 {
		return helpStyle.Render("No messages yet. Ask for some photos.")
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		renderMessage(&b, msg)
	}
	return b.String()
}

func renderMessage(b *strings.Builder, msg models.ChatMessage) {
	stamp := helpStyle.Render(msg.Timestamp.Local().Format(timeLayout))

	switch msg.Type {
	case models.MessageUser:
		b.WriteString(userStyle.Render("You:") + " " + stamp + "\n")
	case models.MessageSystem:
		b.WriteString(systemStyle.Render("Event:") + " " + stamp + "\n")
	default:
		b.WriteString(agentStyle.Render("Agent:") + " " + stamp + "\n")
	}
	b.WriteString(msg.Content)
	b.WriteString("\n")

	if msg.ViewURL != "" {
		b.WriteString(imageStyle.Render("view: "+msg.ViewURL) + "\n")
	}

	for _, img := range msg.Images {
		name := img.Metadata.Filename
		if name == "" {
			name = img.ID
		}
		line := fmt.Sprintf("[%.2f] %s", img.Score, name)
		if img.PreviewURL != "" {
			line += "  " + img.PreviewURL
		}
		b.WriteString(imageStyle.Render(line) + "\n")
	}

	if len(msg.Suggestions) > 0 {
		b.WriteString(suggestionStyle.Render("Try: "+strings.Join(msg.Suggestions, " · ")) + "\n")
	}
}
