package rest

import (
	"time"

	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	pkgError "github.com/ganga90/olive-couple-sync-sub002/pkg/error"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/ganga90/olive-couple-sync-sub002/validations"
	"github.com/gofiber/fiber/v2"
)

type Engine struct {
	Service domainProactive.IEngineUsecase
	Jobs    domainJob.IJobRepository
	Logs    domainNotification.ILogRepository
}

func InitRestEngine(app fiber.Router, service domainProactive.IEngineUsecase,
	jobs domainJob.IJobRepository, logs domainNotification.ILogRepository) Engine {
	rest := Engine{Service: service, Jobs: jobs, Logs: logs}
	app.Post("/engine", rest.Dispatch)
	app.Get("/jobs", rest.ListJobs)
	app.Get("/logs", rest.ListLogs)
	return rest
}

// Dispatch is the action-tagged entrypoint. The action parses into a typed
// value first so the switch below stays exhaustive; an unknown action can
// never fall through silently.
func (controller *Engine) Dispatch(c *fiber.Ctx) error {
	var request domainProactive.EngineRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	action, err := domainProactive.ParseAction(request.Action)
	if err != nil {
		panic(pkgError.ValidationError(err.Error()))
	}

	err = validations.ValidateEngineRequest(c.UserContext(), action, request)
	utils.PanicIfNeeded(err)

	switch action {
	case domainProactive.ActionTick:
		report, err := controller.Service.Tick(c.UserContext())
		utils.PanicIfNeeded(err)
		return success(c, "Tick completed", report)

	case domainProactive.ActionScheduleJob:
		var scheduledFor *time.Time
		if request.ScheduledFor != "" {
			parsed, err := time.Parse(time.RFC3339, request.ScheduledFor)
			utils.PanicIfNeeded(err)
			scheduledFor = &parsed
		}
		jobID, err := controller.Service.ScheduleJob(c.UserContext(), domainProactive.ScheduleJobRequest{
			UserID:       request.UserID,
			JobType:      request.JobType,
			ScheduledFor: scheduledFor,
			Payload:      request.Payload,
		})
		utils.PanicIfNeeded(err)
		return success(c, "Job scheduled", fiber.Map{"job_id": jobID})

	case domainProactive.ActionGenerateBriefing:
		result, err := controller.Service.GenerateBriefing(c.UserContext(), request.UserID, request.Deliver)
		utils.PanicIfNeeded(err)
		return success(c, "Briefing generated", result)

	case domainProactive.ActionCheckReminders:
		sent, err := controller.Service.CheckReminders(c.UserContext())
		utils.PanicIfNeeded(err)
		return success(c, "Reminders checked", fiber.Map{"reminders_sent": sent})

	case domainProactive.ActionTestBriefing:
		result, err := controller.Service.TestBriefing(c.UserContext(), request.Phone)
		utils.PanicIfNeeded(err)
		return success(c, "Test briefing sent", result)
	}

	// Unreachable: ParseAction already rejected unknown values.
	panic(pkgError.ValidationError("unhandled action"))
}

func (controller *Engine) ListJobs(c *fiber.Ctx) error {
	jobs, err := controller.Jobs.List(c.UserContext(), domainJob.Filter{
		UserID: c.Query("user_id"),
		Status: domainJob.Status(c.Query("status")),
		Type:   domainJob.Type(c.Query("job_type")),
		Limit:  c.QueryInt("limit", 100),
	})
	utils.PanicIfNeeded(err)

	return success(c, "Success fetch jobs", jobs)
}

func (controller *Engine) ListLogs(c *fiber.Ctx) error {
	logs, err := controller.Logs.List(c.UserContext(), domainNotification.Filter{
		UserID:  c.Query("user_id"),
		JobType: c.Query("job_type"),
		Status:  domainNotification.LogStatus(c.Query("status")),
		Limit:   c.QueryInt("limit", 100),
	})
	utils.PanicIfNeeded(err)

	return success(c, "Success fetch notification logs", logs)
}

func success(c *fiber.Ctx, message string, results any) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: message,
		Results: results,
	})
}
