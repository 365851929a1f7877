package genai

import (
	"fmt"
	"strings"

	"raphael-assistant/internal/models"
)

const systemPrompt = `You are Raphael, an intelligent personal AI assistant inspired by Great Sage.
You are helpful, friendly, and knowledgeable. You can:

- Remember personal information and preferences
- Help with calendar management and scheduling
- Assist with budget tracking and calculations
- Manage tasks and homework
- Have natural conversations
- Provide helpful advice and information

Be conversational, empathetic, and proactive in helping the user.`

const (
	promptMemories = 5
	promptTasks    = 3
	promptHistory  = 6
	historyWindow  = 10
)

// BuildPrompt assembles the system prompt, the user's context, the recent
// dialogue and the new message.
func BuildPrompt(pc models.PersonalContext, history []models.HistoryEntry, message string) string {
	parts := []string{systemPrompt + contextSection(pc)}

	if len(history) > promptHistory {
		history = history[len(history)-promptHistory:]
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		if h.Content == "" {
			continue
		}
		role := "Raphael"
		if h.Sender == models.SenderUser {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, h.Content))
	}
	if len(lines) > 0 {
		parts = append(parts, "\nRecent conversation:")
		parts = append(parts, lines...)
	}

	parts = append(parts, "\nUser: "+message, "Raphael:")
	return strings.Join(parts, "\n")
}

func contextSection(pc models.PersonalContext) string {
	var sections []string
	if len(pc.Memories) > 0 {
		sections = append(sections, "Personal memories: "+strings.Join(head(pc.Memories, promptMemories), "; "))
	}
	if pc.Budget != "" {
		sections = append(sections, "Budget status: "+pc.Budget)
	}
	if len(pc.Tasks) > 0 {
		sections = append(sections, "Current tasks: "+strings.Join(head(pc.Tasks, promptTasks), "; "))
	}
	if len(sections) == 0 {
		return ""
	}
	return "\n\nCurrent user context:\n" + strings.Join(sections, "\n")
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// HistoryFromTurns splits stored turns into alternating user and assistant
// entries and keeps the last ten.
func HistoryFromTurns(turns []models.ConversationTurn) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, 2*len(turns))
	for _, t := range turns {
		out = append(out,
			models.HistoryEntry{Sender: models.SenderUser, Content: t.UserMessage},
			models.HistoryEntry{Sender: models.SenderAssistant, Content: t.AIResponse},
		)
	}
	if len(out) > historyWindow {
		out = out[len(out)-historyWindow:]
	}
	return out
}
