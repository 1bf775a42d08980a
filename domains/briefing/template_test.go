package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() GenerateRequest {
	due := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return GenerateRequest{
		UserID:      "u1",
		DisplayName: "Maya",
		PartnerName: "Sam",
		JobType:     "morning_briefing",
		Now:         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Tasks: []TaskView{
			{Title: "Buy groceries", Category: "errands", DueDate: &due, Shared: true},
			{Title: "Call plumber"},
		},
	}
}

func TestTemplateComposerMorning(t *testing.T) {
	composer := NewTemplateComposer()

	out, err := composer.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Contains(t, out, "Good morning, Maya")
	assert.Contains(t, out, "Buy groceries")
	assert.Contains(t, out, "Call plumber")
}

func TestTemplateComposerEmptyTasks(t *testing.T) {
	composer := NewTemplateComposer()
	req := sampleRequest()
	req.Tasks = nil

	out, err := composer.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out, "all caught up")
}

func TestTemplateComposerEveningAndWeekly(t *testing.T) {
	composer := NewTemplateComposer()

	req := sampleRequest()
	req.JobType = "evening_review"
	out, err := composer.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out, "Good evening")

	req.JobType = "weekly_summary"
	out, err = composer.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out, "week at a glance")
	assert.Contains(t, out, "Sam")
}

func TestPromptListsTasksAndDueDates(t *testing.T) {
	out := Prompt(sampleRequest())

	assert.True(t, strings.HasPrefix(out, "Write a morning briefing for Maya."))
	assert.Contains(t, out, "- Buy groceries [errands]")
	assert.Contains(t, out, "(shared)")
	assert.Contains(t, out, "partner is Sam")
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Generate(context.Context, GenerateRequest) (string, error) {
	return s.out, s.err
}

func TestWithFallback(t *testing.T) {
	req := sampleRequest()

	primary := stubGenerator{out: "model text"}
	out, err := WithFallback(primary, NewTemplateComposer()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "model text", out)

	failing := stubGenerator{err: errors.New("quota exceeded")}
	out, err = WithFallback(failing, NewTemplateComposer()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out, "Good morning, Maya")

	// A blank success also falls through; blank sends are useless.
	blank := stubGenerator{out: "   "}
	out, err = WithFallback(blank, NewTemplateComposer()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, out, "Good morning, Maya")
}
