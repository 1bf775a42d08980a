package openai

import (
	"context"
	"fmt"
	"strings"

	openailib "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	"github.com/sirupsen/logrus"
)

// Generator produces briefing text through the OpenAI chat completions API.
type Generator struct {
	apiKey string
	model  string
}

func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{apiKey: apiKey, model: model}
}

func (g *Generator) Generate(ctx context.Context, req briefing.GenerateRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}

	client := openailib.NewClient(option.WithAPIKey(g.apiKey))

	params := openailib.ChatCompletionNewParams{
		Model: openailib.ChatModel(g.model),
		Messages: []openailib.ChatCompletionMessageParamUnion{
			openailib.SystemMessage(briefing.SystemPrompt),
			openailib.UserMessage(briefing.Prompt(req)),
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	out := strings.TrimSpace(completion.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty response from openai")
	}

	logrus.Debugf("[OPENAI] generated %d chars for user %s (%s)", len(out), req.UserID, req.JobType)
	return out, nil
}
