package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	settingsApp "github.com/ganga90/olive-couple-sync-sub002/core/settings/application"
	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	domainBriefing "github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	domainConnection "github.com/ganga90/olive-couple-sync-sub002/domains/connection"
	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
	domainUser "github.com/ganga90/olive-couple-sync-sub002/domains/user"
	"github.com/ganga90/olive-couple-sync-sub002/validations"
	"github.com/sirupsen/logrus"
)

// Dedup lookbacks over the notification log. The daily window sits under 24h
// so timezone skew around a user's send time cannot mask the next day's slot;
// the weekly window pairs with a local day-of-week match.
const (
	dailyDedupLookback  = 20 * time.Hour
	weeklyDedupLookback = 7 * 24 * time.Hour
)

// EngineDeps wires the stores and collaborators one engine instance runs
// against. Everything is an interface so tests can swap single pieces.
type EngineDeps struct {
	Jobs        domainJob.IJobRepository
	Logs        domainNotification.ILogRepository
	Preferences domainPreference.IPreferenceRepository
	Tasks       domainTask.ITaskRepository
	Users       domainUser.IUserRepository
	Agents      domainAgent.IAgentRepository
	Connections domainConnection.IConnectionRepository
	Catalog     domainAgent.ICatalog
	Generator   domainBriefing.Generator
	Gateway     domainDelivery.Gateway
	Runner      domainAgent.Runner
	State       *settingsApp.StateService
}

type serviceEngine struct {
	jobs          domainJob.IJobRepository
	logs          domainNotification.ILogRepository
	prefs         domainPreference.IPreferenceRepository
	tasks         domainTask.ITaskRepository
	users         domainUser.IUserRepository
	agents        domainAgent.IAgentRepository
	conns         domainConnection.IConnectionRepository
	catalog       domainAgent.ICatalog
	generator     domainBriefing.Generator
	gateway       domainDelivery.Gateway
	runner        domainAgent.Runner
	state         *settingsApp.StateService
	cadence       int
	batchSize     int
	retentionDays int
}

func NewEngineService(deps EngineDeps, engineCfg config.EngineConfig) domainProactive.IEngineUsecase {
	cadence := engineCfg.TickCadenceMinutes
	if cadence <= 0 {
		cadence = 15
	}
	batchSize := engineCfg.QueueBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &serviceEngine{
		jobs:          deps.Jobs,
		logs:          deps.Logs,
		prefs:         deps.Preferences,
		tasks:         deps.Tasks,
		users:         deps.Users,
		agents:        deps.Agents,
		conns:         deps.Connections,
		catalog:       deps.Catalog,
		generator:     deps.Generator,
		gateway:       deps.Gateway,
		runner:        deps.Runner,
		state:         deps.State,
		cadence:       cadence,
		batchSize:     batchSize,
		retentionDays: engineCfg.LogRetentionDays,
	}
}

// Tick runs the scheduling stages in a fixed order. A stage that fails or
// panics is recorded in the report and the remaining stages still run; the
// engine holds no state between ticks, so the next invocation starts clean.
func (service serviceEngine) Tick(ctx context.Context) (*domainProactive.TickReport, error) {
	started := time.Now()
	now := started.UTC()
	report := &domainProactive.TickReport{}

	service.runStage(report, "recurring", func() error {
		n, err := service.scheduleRecurring(ctx, now)
		report.JobsScheduled = n
		return err
	})
	service.runStage(report, "queue", func() error {
		processed, failed, err := service.processQueue(ctx, now)
		report.JobsProcessed = processed
		report.JobsFailed = failed
		return err
	})
	service.runStage(report, "reminders", func() error {
		n, err := service.checkTaskReminders(ctx, now)
		report.RemindersSent = n
		return err
	})
	service.runStage(report, "nudges", func() error {
		n, err := service.sendOverdueNudges(ctx, now)
		report.NudgesSent = n
		return err
	})
	service.runStage(report, "agents", func() error {
		n, err := service.invokeBackgroundAgents(ctx, now)
		report.AgentsInvoked = n
		return err
	})
	service.runStage(report, "flush", func() error {
		n, err := service.gateway.ProcessQueue(ctx)
		report.QueueFlushed = n
		return err
	})
	service.runStage(report, "retention", func() error {
		return service.sweepLogs(ctx, now)
	})

	report.DurationMillis = time.Since(started).Milliseconds()
	if service.state != nil {
		if err := service.state.RecordTick(ctx, now, report); err != nil {
			logrus.WithError(err).Warn("[TICK] failed to record tick state")
		}
	}

	logrus.Infof("[TICK] done in %dms: scheduled=%d processed=%d failed=%d reminders=%d nudges=%d agents=%d flushed=%d errors=%d",
		report.DurationMillis, report.JobsScheduled, report.JobsProcessed, report.JobsFailed,
		report.RemindersSent, report.NudgesSent, report.AgentsInvoked, report.QueueFlushed, len(report.StageErrors))
	return report, nil
}

// runStage isolates one stage: errors and panics are collected on the report
// instead of aborting the tick.
func (service serviceEngine) runStage(report *domainProactive.TickReport, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[TICK] stage %s panicked: %v", name, r)
			report.StageErrors = append(report.StageErrors, fmt.Sprintf("%s: panic: %v", name, r))
		}
	}()
	if err := fn(); err != nil {
		logrus.WithError(err).Errorf("[TICK] stage %s failed", name)
		report.StageErrors = append(report.StageErrors, fmt.Sprintf("%s: %v", name, err))
	}
}

func (service serviceEngine) ScheduleJob(ctx context.Context, request domainProactive.ScheduleJobRequest) (string, error) {
	if err := validations.ValidateScheduleJob(ctx, request); err != nil {
		return "", err
	}

	scheduledFor := time.Now().UTC()
	if request.ScheduledFor != nil {
		scheduledFor = request.ScheduledFor.UTC()
	}

	newJob := &domainJob.Job{
		UserID:       request.UserID,
		JobType:      domainJob.Type(request.JobType),
		ScheduledFor: scheduledFor,
		Payload:      request.Payload,
		Status:       domainJob.StatusPending,
	}
	if err := service.jobs.Create(ctx, newJob); err != nil {
		return "", err
	}

	logrus.Infof("[QUEUE] scheduled %s job %s for user %s at %s",
		request.JobType, newJob.ID, request.UserID, scheduledFor.Format(time.RFC3339))
	return newJob.ID, nil
}

func (service serviceEngine) CheckReminders(ctx context.Context) (int, error) {
	return service.checkTaskReminders(ctx, time.Now().UTC())
}

// preferenceFor resolves a user's settings, falling back to defaults when no
// row exists yet. Defaults keep proactive sends off but leave reminders on.
func (service serviceEngine) preferenceFor(ctx context.Context, userID string) *domainPreference.Preference {
	pref, err := service.prefs.GetByUser(ctx, userID)
	if err != nil {
		if err != domainPreference.ErrPreferenceNotFound {
			logrus.WithError(err).Warnf("[TICK] preference lookup failed for user %s, using defaults", userID)
		}
		def := domainPreference.Default(userID)
		return &def
	}
	return pref
}

// dailyCapReached counts every message sent to the user in the rolling last
// 24h against max_daily_messages. Recurring schedules and nudges respect the
// cap; reminders the user asked for explicitly do not.
func (service serviceEngine) dailyCapReached(ctx context.Context, pref *domainPreference.Preference, now time.Time) (bool, error) {
	if pref.MaxDailyMessages <= 0 {
		return false, nil
	}
	count, err := service.logs.CountSentSince(ctx, pref.UserID, now.Add(-24*time.Hour))
	if err != nil {
		return false, err
	}
	return count >= int64(pref.MaxDailyMessages), nil
}

// appendLog records one delivery outcome at the tick's logical time, so the
// dedup lookbacks see the same clock the scheduling decisions used.
func (service serviceEngine) appendLog(ctx context.Context, now time.Time, userID string, jobType domainJob.Type, status domainNotification.LogStatus, content string) {
	entry := &domainNotification.Log{
		UserID:         userID,
		JobType:        string(jobType),
		Status:         status,
		MessagePreview: content,
		Channel:        service.gateway.Channel(),
		CreatedAt:      now,
	}
	if err := service.logs.Append(ctx, entry); err != nil {
		logrus.WithError(err).Errorf("[TICK] failed to append %s log for user %s", jobType, userID)
	}
}

// sweepLogs prunes notification logs past retention at most once per day. The
// retention floor stays above the weekly dedup lookback so pruning can never
// re-open a closed period.
func (service serviceEngine) sweepLogs(ctx context.Context, now time.Time) error {
	if service.state == nil || service.retentionDays <= 0 {
		return nil
	}
	last, err := service.state.LastRetentionSweepAt(ctx)
	if err != nil {
		return err
	}
	if !last.IsZero() && now.Sub(last) < 24*time.Hour {
		return nil
	}
	pruned, err := service.logs.PruneOlderThan(ctx, now.AddDate(0, 0, -service.retentionDays))
	if err != nil {
		return err
	}
	if pruned > 0 {
		logrus.Infof("[TICK] pruned %d notification log(s) older than %d days", pruned, service.retentionDays)
	}
	return service.state.RecordRetentionSweep(ctx, now)
}
