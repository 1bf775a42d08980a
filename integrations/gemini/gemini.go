package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Generator produces briefing text through the Gemini API. Construction is
// lazy: the client dials on first use so an unset key only fails generation,
// not startup.
type Generator struct {
	apiKey string
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Generator{apiKey: apiKey, model: model}
}

func (g *Generator) Generate(ctx context.Context, req briefing.GenerateRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(briefing.SystemPrompt, ""),
	}
	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{{Text: briefing.Prompt(req)}}},
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("empty response from gemini")
	}

	logrus.Debugf("[GEMINI] generated %d chars for user %s (%s)", len(out), req.UserID, req.JobType)
	return out, nil
}
