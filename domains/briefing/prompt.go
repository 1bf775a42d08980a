package briefing

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt frames every model-backed generation. Providers pass it as the
// system instruction so user content stays in the user turn.
const SystemPrompt = `You are Olive, a warm and concise personal assistant shared by a couple.
You write short proactive WhatsApp messages. Keep it under 6 lines, use at most
two emoji, never invent tasks that are not listed, and never mention that you
are an AI.`

// Prompt renders the user turn for a generation request. Both providers share
// it so switching AI_PROVIDER does not change what the model is told.
func Prompt(req GenerateRequest) string {
	var b strings.Builder

	kind := "morning briefing"
	switch req.JobType {
	case "evening_review":
		kind = "evening review"
	case "weekly_summary":
		kind = "weekly summary"
	case "pattern_suggestion":
		kind = "gentle suggestion about a recurring pattern"
	}

	fmt.Fprintf(&b, "Write a %s for %s.", kind, displayOrFallback(req.DisplayName))
	if req.PartnerName != "" {
		fmt.Fprintf(&b, " Their partner is %s; shared tasks are marked.", req.PartnerName)
	}
	fmt.Fprintf(&b, " Local date: %s.\n", req.Now.Format(time.RFC1123))

	if len(req.Tasks) == 0 {
		b.WriteString("They have no open tasks. Congratulate them briefly.\n")
		return b.String()
	}

	b.WriteString("Open tasks:\n")
	for _, t := range req.Tasks {
		fmt.Fprintf(&b, "- %s", t.Title)
		if t.Category != "" {
			fmt.Fprintf(&b, " [%s]", t.Category)
		}
		if t.DueDate != nil {
			fmt.Fprintf(&b, " (due %s)", t.DueDate.Format("Mon Jan 2 15:04"))
		}
		if t.Overdue {
			b.WriteString(" (overdue)")
		}
		if t.Shared {
			b.WriteString(" (shared)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func displayOrFallback(name string) string {
	if name == "" {
		return "the user"
	}
	return name
}
