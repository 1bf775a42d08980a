package usecase

import (
	"context"
	"fmt"
	"time"

	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	"github.com/sirupsen/logrus"
)

// processQueue drains due pending jobs up to the batch size. Each job ends the
// pass in a terminal state; there is no retry, a failed job stays failed and
// recovery is a new job from a later scheduling pass.
func (service serviceEngine) processQueue(ctx context.Context, now time.Time) (processed, failed int, err error) {
	batch, err := service.jobs.DueBatch(ctx, now, service.batchSize)
	if err != nil {
		return 0, 0, err
	}
	if len(batch) == 0 {
		return 0, 0, nil
	}
	logrus.Debugf("[QUEUE] picked up %d due job(s)", len(batch))

	for _, pending := range batch {
		if err := service.jobs.Transition(ctx, pending.ID, domainJob.StatusPending, domainJob.StatusProcessing); err != nil {
			// Claimed by an overlapping tick, or already terminal.
			logrus.WithError(err).Debugf("[QUEUE] skipping job %s", pending.ID)
			continue
		}
		if service.deliverJob(ctx, now, pending) {
			processed++
		} else {
			failed++
		}
	}
	return processed, failed, nil
}

func (service serviceEngine) deliverJob(ctx context.Context, now time.Time, pending *domainJob.Job) bool {
	content, err := service.jobContent(ctx, now, pending)
	if err == nil && content == "" {
		err = fmt.Errorf("job type %s produced no content", pending.JobType)
	}
	if err == nil {
		err = service.gateway.Send(ctx, pending.UserID, string(pending.JobType), content, jobPriority(pending.JobType))
	}

	if err != nil {
		logrus.WithError(err).Errorf("[QUEUE] job %s (%s) failed for user %s", pending.ID, pending.JobType, pending.UserID)
		service.finishJob(ctx, now, pending, domainJob.StatusFailed, domainNotification.StatusFailed, content)
		return false
	}

	service.finishJob(ctx, now, pending, domainJob.StatusCompleted, domainNotification.StatusSent, content)
	return true
}

func (service serviceEngine) finishJob(ctx context.Context, now time.Time, pending *domainJob.Job, jobStatus domainJob.Status, logStatus domainNotification.LogStatus, content string) {
	if err := service.jobs.Transition(ctx, pending.ID, domainJob.StatusProcessing, jobStatus); err != nil {
		logrus.WithError(err).Errorf("[QUEUE] failed to mark job %s %s", pending.ID, jobStatus)
	}
	service.appendLog(ctx, now, pending.UserID, pending.JobType, logStatus, content)
}

// jobContent resolves the message body: generated types go through the content
// generator, the rest carry their text in the job payload.
func (service serviceEngine) jobContent(ctx context.Context, now time.Time, pending *domainJob.Job) (string, error) {
	if !pending.JobType.Generated() {
		return pending.Message(), nil
	}

	owner, err := service.users.GetByID(ctx, pending.UserID)
	if err != nil {
		return "", err
	}
	return service.generator.Generate(ctx, service.buildGenerateRequest(ctx, owner, pending.JobType, now))
}

func jobPriority(jobType domainJob.Type) domainDelivery.Priority {
	if jobType == domainJob.TypeOverdueNudge {
		return domainDelivery.PriorityLow
	}
	return domainDelivery.PriorityNormal
}
