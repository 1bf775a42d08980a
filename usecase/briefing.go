package usecase

import (
	"context"
	"time"

	domainBriefing "github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	domainUser "github.com/ganga90/olive-couple-sync-sub002/domains/user"
	pkgError "github.com/ganga90/olive-couple-sync-sub002/pkg/error"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/sirupsen/logrus"
)

// briefingTaskLimit bounds how many open tasks feed the content generator.
const briefingTaskLimit = 10

// GenerateBriefing produces a briefing on demand, outside the recurring
// schedule. Delivery is optional; when it fails the caller still gets the
// text, with Delivered false and a failed log entry behind it.
func (service serviceEngine) GenerateBriefing(ctx context.Context, userID string, deliver bool) (*domainProactive.BriefingResult, error) {
	if userID == "" {
		return nil, pkgError.ValidationError("user_id is required")
	}

	owner, err := service.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	content, err := service.generator.Generate(ctx, service.buildGenerateRequest(ctx, owner, domainJob.TypeMorningBriefing, now))
	if err != nil {
		return nil, err
	}

	result := &domainProactive.BriefingResult{UserID: userID, Content: content}
	if deliver {
		if err := service.gateway.Send(ctx, userID, string(domainJob.TypeMorningBriefing), content, domainDelivery.PriorityNormal); err != nil {
			logrus.WithError(err).Errorf("[BRIEFING] delivery failed for user %s", userID)
			service.appendLog(ctx, now, userID, domainJob.TypeMorningBriefing, domainNotification.StatusFailed, content)
		} else {
			result.Delivered = true
			service.appendLog(ctx, now, userID, domainJob.TypeMorningBriefing, domainNotification.StatusSent, content)
		}
	}
	return result, nil
}

// TestBriefing resolves a phone number to a user and force-delivers a
// briefing. Quiet hours and dedup are scheduling concerns, and a test send
// deliberately goes around the schedule.
func (service serviceEngine) TestBriefing(ctx context.Context, phone string) (*domainProactive.TestBriefingResult, error) {
	if phone == "" {
		return nil, pkgError.ValidationError("phone is required")
	}

	owner, err := service.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	content, err := service.generator.Generate(ctx, service.buildGenerateRequest(ctx, owner, domainJob.TypeMorningBriefing, now))
	if err != nil {
		return nil, err
	}

	result := &domainProactive.TestBriefingResult{
		UserID:      owner.ID,
		DisplayName: owner.DisplayName,
		Phone:       owner.Phone,
		Preview:     utils.TruncatePreview(content, domainNotification.PreviewLimit),
	}

	if err := service.gateway.Send(ctx, owner.ID, string(domainJob.TypeMorningBriefing), content, domainDelivery.PriorityHigh); err != nil {
		logrus.WithError(err).Errorf("[BRIEFING] test delivery failed for user %s", owner.ID)
		service.appendLog(ctx, now, owner.ID, domainJob.TypeMorningBriefing, domainNotification.StatusFailed, content)
		return result, nil
	}

	result.Delivered = true
	service.appendLog(ctx, now, owner.ID, domainJob.TypeMorningBriefing, domainNotification.StatusSent, content)
	logrus.Infof("[BRIEFING] test briefing delivered to user %s (%s)", owner.ID, owner.DisplayName)
	return result, nil
}

// buildGenerateRequest assembles the read-only view the content generator
// sees: the user, their partner's name if coupled, and their open tasks.
func (service serviceEngine) buildGenerateRequest(ctx context.Context, owner *domainUser.User, jobType domainJob.Type, now time.Time) domainBriefing.GenerateRequest {
	pref := service.preferenceFor(ctx, owner.ID)

	partner := ""
	if owner.CoupleID != "" {
		members, err := service.users.ListByCouple(ctx, owner.CoupleID)
		if err != nil {
			logrus.WithError(err).Warnf("[BRIEFING] partner lookup failed for user %s", owner.ID)
		}
		for _, member := range members {
			if member.ID != owner.ID {
				partner = member.DisplayName
				break
			}
		}
	}

	var views []domainBriefing.TaskView
	open, err := service.tasks.ListOpenByUser(ctx, owner.ID, briefingTaskLimit)
	if err != nil {
		logrus.WithError(err).Warnf("[BRIEFING] task lookup failed for user %s", owner.ID)
	}
	for _, t := range open {
		views = append(views, domainBriefing.TaskView{
			Title:    t.Title,
			Category: t.Category,
			DueDate:  t.DueDate,
			Overdue:  t.DueDate != nil && t.DueDate.Before(now),
			Shared:   t.CoupleID != "",
		})
	}

	return domainBriefing.GenerateRequest{
		UserID:      owner.ID,
		DisplayName: owner.DisplayName,
		PartnerName: partner,
		JobType:     string(jobType),
		Timezone:    pref.Timezone,
		Now:         now,
		Tasks:       views,
	}
}
