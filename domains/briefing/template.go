package briefing

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// TemplateComposer is the deterministic generator. It is the default and the
// fallback when a model-backed generator is unavailable, so proactive sends
// never depend on AI uptime.
type TemplateComposer struct{}

func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

func (c *TemplateComposer) Generate(_ context.Context, req GenerateRequest) (string, error) {
	var b strings.Builder

	name := req.DisplayName
	if name == "" {
		name = "there"
	}

	switch req.JobType {
	case "evening_review":
		fmt.Fprintf(&b, "Good evening, %s! 🌙\n\n", name)
		c.writeTasks(&b, req, "Here's where things stand today:")
		b.WriteString("\nRest well — tomorrow is a fresh start.")
	case "weekly_summary":
		fmt.Fprintf(&b, "Hi %s, here's your week at a glance 📋\n\n", name)
		c.writeTasks(&b, req, "Open items going into next week:")
		if req.PartnerName != "" {
			fmt.Fprintf(&b, "\nShared items are visible to %s too.", req.PartnerName)
		}
	case "pattern_suggestion":
		fmt.Fprintf(&b, "Hi %s, a quick observation 💡\n\n", name)
		c.writeTasks(&b, req, "These keep coming up:")
	default: // morning_briefing and ad-hoc requests
		fmt.Fprintf(&b, "Good morning, %s! ☀️\n\n", name)
		c.writeTasks(&b, req, "On your plate today:")
		b.WriteString("\nHave a great day!")
	}

	return b.String(), nil
}

func (c *TemplateComposer) writeTasks(b *strings.Builder, req GenerateRequest, header string) {
	if len(req.Tasks) == 0 {
		b.WriteString("Nothing pending — you're all caught up! ✨")
		return
	}

	b.WriteString(header)
	b.WriteString("\n")
	for _, t := range req.Tasks {
		line := "• " + t.Title
		if t.DueDate != nil {
			if t.Overdue {
				line += fmt.Sprintf(" (overdue, was due %s)", humanize.RelTime(*t.DueDate, req.Now, "ago", "from now"))
			} else {
				line += fmt.Sprintf(" (due %s)", humanize.RelTime(*t.DueDate, req.Now, "ago", "from now"))
			}
		}
		if t.Shared {
			line += " 👫"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// fallbackGenerator tries a model-backed primary and falls back to the
// template on any error.
type fallbackGenerator struct {
	primary  Generator
	fallback Generator
}

// WithFallback wraps primary so that generation errors degrade to the
// deterministic composer instead of failing the send.
func WithFallback(primary Generator, fallback Generator) Generator {
	return &fallbackGenerator{primary: primary, fallback: fallback}
}

func (g *fallbackGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	content, err := g.primary.Generate(ctx, req)
	if err == nil && strings.TrimSpace(content) != "" {
		return content, nil
	}
	if err != nil {
		logrus.WithError(err).Warnf("[BRIEFING] primary generator failed for user %s, using template", req.UserID)
	}
	return g.fallback.Generate(ctx, req)
}
