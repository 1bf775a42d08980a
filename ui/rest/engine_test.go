package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/ganga90/olive-couple-sync-sub002/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	tickReport *domainProactive.TickReport
	scheduled  []domainProactive.ScheduleJobRequest
	reminders  int
}

func (s *stubEngine) Tick(context.Context) (*domainProactive.TickReport, error) {
	return s.tickReport, nil
}

func (s *stubEngine) ScheduleJob(_ context.Context, req domainProactive.ScheduleJobRequest) (string, error) {
	s.scheduled = append(s.scheduled, req)
	return "job-1", nil
}

func (s *stubEngine) GenerateBriefing(_ context.Context, userID string, deliver bool) (*domainProactive.BriefingResult, error) {
	return &domainProactive.BriefingResult{UserID: userID, Content: "hello", Delivered: deliver}, nil
}

func (s *stubEngine) CheckReminders(context.Context) (int, error) {
	return s.reminders, nil
}

func (s *stubEngine) TestBriefing(_ context.Context, phone string) (*domainProactive.TestBriefingResult, error) {
	return &domainProactive.TestBriefingResult{Phone: phone, Delivered: true}, nil
}

func newTestApp(service domainProactive.IEngineUsecase) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Recovery())
	InitRestEngine(app.Group("/api"), service, nil, nil)
	return app
}

func postEngine(t *testing.T, app *fiber.App, body map[string]any) (int, utils.ResponseData) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/engine", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded utils.ResponseData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestDispatchTick(t *testing.T) {
	service := &stubEngine{tickReport: &domainProactive.TickReport{JobsScheduled: 2, RemindersSent: 1}}
	app := newTestApp(service)

	status, res := postEngine(t, app, map[string]any{"action": "tick"})

	assert.Equal(t, 200, status)
	assert.Equal(t, "SUCCESS", res.Code)

	results := res.Results.(map[string]any)
	assert.Equal(t, float64(2), results["jobs_scheduled"])
	assert.Equal(t, float64(1), results["reminders_sent"])
}

func TestDispatchUnknownAction(t *testing.T) {
	app := newTestApp(&stubEngine{})

	status, res := postEngine(t, app, map[string]any{"action": "explode"})

	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_ERROR", res.Code)
}

func TestDispatchScheduleJobValidation(t *testing.T) {
	service := &stubEngine{}
	app := newTestApp(service)

	// Missing user_id must reject before any work happens.
	status, res := postEngine(t, app, map[string]any{
		"action":   "schedule_job",
		"job_type": "task_reminder",
	})
	assert.Equal(t, 400, status)
	assert.Equal(t, "VALIDATION_ERROR", res.Code)
	assert.Empty(t, service.scheduled)

	// Unknown job type is structural too.
	status, _ = postEngine(t, app, map[string]any{
		"action":   "schedule_job",
		"user_id":  "u1",
		"job_type": "carrier_pigeon",
	})
	assert.Equal(t, 400, status)
	assert.Empty(t, service.scheduled)

	status, res = postEngine(t, app, map[string]any{
		"action":   "schedule_job",
		"user_id":  "u1",
		"job_type": "task_reminder",
		"payload":  map[string]any{"message": "don't forget"},
	})
	assert.Equal(t, 200, status)
	require.Len(t, service.scheduled, 1)
	assert.Equal(t, "u1", service.scheduled[0].UserID)
	assert.Equal(t, "job-1", res.Results.(map[string]any)["job_id"])
}

func TestDispatchScheduledForParsing(t *testing.T) {
	service := &stubEngine{}
	app := newTestApp(service)

	status, _ := postEngine(t, app, map[string]any{
		"action":        "schedule_job",
		"user_id":       "u1",
		"job_type":      "task_reminder",
		"scheduled_for": "2026-03-10T09:00:00Z",
	})
	assert.Equal(t, 200, status)
	require.Len(t, service.scheduled, 1)
	require.NotNil(t, service.scheduled[0].ScheduledFor)
	assert.Equal(t, 2026, service.scheduled[0].ScheduledFor.Year())
}

func TestDispatchCheckReminders(t *testing.T) {
	app := newTestApp(&stubEngine{reminders: 3})

	status, res := postEngine(t, app, map[string]any{"action": "check_reminders"})
	assert.Equal(t, 200, status)
	assert.Equal(t, float64(3), res.Results.(map[string]any)["reminders_sent"])
}

func TestDispatchTestBriefingRequiresPhone(t *testing.T) {
	app := newTestApp(&stubEngine{})

	status, _ := postEngine(t, app, map[string]any{"action": "test_briefing"})
	assert.Equal(t, 400, status)

	status, res := postEngine(t, app, map[string]any{"action": "test_briefing", "phone": "+15550100001"})
	assert.Equal(t, 200, status)
	results := res.Results.(map[string]any)
	assert.Equal(t, true, results["delivered"])
}
