package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	"github.com/stretchr/testify/assert"
)

func TestGenerateWithoutAPIKey(t *testing.T) {
	g := NewGenerator("", "")

	_, err := g.Generate(context.Background(), briefing.GenerateRequest{
		UserID:  "u1",
		JobType: "morning_briefing",
		Now:     time.Now(),
	})
	assert.ErrorContains(t, err, "api key")
}

func TestDefaultModel(t *testing.T) {
	g := NewGenerator("key", "")
	assert.Equal(t, "gemini-2.0-flash", g.model)

	g = NewGenerator("key", "gemini-2.5-pro")
	assert.Equal(t, "gemini-2.5-pro", g.model)
}
