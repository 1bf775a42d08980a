package usecase

import (
	"context"
	"time"

	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/timeutils"
	"github.com/sirupsen/logrus"
)

// recurringFeature binds one schedule-driven job type to its preference
// fields. The weekly flag adds the day-of-week gate on top of the time window.
type recurringFeature struct {
	jobType domainJob.Type
	enabled func(p *domainPreference.Preference) bool
	clock   func(p *domainPreference.Preference) string
	weekly  bool
}

func recurringFeatures() []recurringFeature {
	return []recurringFeature{
		{
			jobType: domainJob.TypeMorningBriefing,
			enabled: func(p *domainPreference.Preference) bool { return p.MorningBriefingOn },
			clock:   func(p *domainPreference.Preference) string { return p.MorningBriefingTime },
		},
		{
			jobType: domainJob.TypeEveningReview,
			enabled: func(p *domainPreference.Preference) bool { return p.EveningReviewOn },
			clock:   func(p *domainPreference.Preference) string { return p.EveningReviewTime },
		},
		{
			jobType: domainJob.TypeWeeklySummary,
			enabled: func(p *domainPreference.Preference) bool { return p.WeeklySummaryOn },
			clock:   func(p *domainPreference.Preference) string { return p.WeeklySummaryTime },
			weekly:  true,
		},
	}
}

// scheduleRecurring walks every proactive-enabled user and queues the
// recurring jobs whose local send window is open and not yet served. One
// user's failure never blocks the rest of the population.
func (service serviceEngine) scheduleRecurring(ctx context.Context, now time.Time) (int, error) {
	prefs, err := service.prefs.ListProactive(ctx)
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, pref := range prefs {
		n, err := service.scheduleUserRecurring(ctx, now, pref)
		if err != nil {
			logrus.WithError(err).Warnf("[RECURRING] scheduling failed for user %s", pref.UserID)
			continue
		}
		scheduled += n
	}
	return scheduled, nil
}

func (service serviceEngine) scheduleUserRecurring(ctx context.Context, now time.Time, pref *domainPreference.Preference) (int, error) {
	local := timeutils.ResolveLocal(now, pref.Timezone)
	if timeutils.InQuietHours(pref.QuietHoursStart, pref.QuietHoursEnd, local.Hour) {
		return 0, nil
	}

	capped, err := service.dailyCapReached(ctx, pref, now)
	if err != nil {
		return 0, err
	}
	if capped {
		logrus.Debugf("[RECURRING] user %s hit max_daily_messages, skipping", pref.UserID)
		return 0, nil
	}

	count := 0
	for _, feature := range recurringFeatures() {
		if !feature.enabled(pref) {
			continue
		}
		if feature.weekly && local.Weekday != pref.WeeklySummaryDay {
			continue
		}

		hour, minute, err := timeutils.ParseClock(feature.clock(pref))
		if err != nil {
			logrus.Debugf("[RECURRING] user %s has unparseable %s time %q", pref.UserID, feature.jobType, feature.clock(pref))
			continue
		}
		if !timeutils.InWindow(local.MinutesOfDay(), hour*60+minute, service.cadence) {
			continue
		}

		sent, err := service.recurringAlreadySent(ctx, pref, feature, now)
		if err != nil {
			logrus.WithError(err).Warnf("[RECURRING] dedup lookup failed for user %s %s", pref.UserID, feature.jobType)
			continue
		}
		if sent {
			continue
		}

		newJob := &domainJob.Job{
			UserID:       pref.UserID,
			JobType:      feature.jobType,
			ScheduledFor: now,
			Status:       domainJob.StatusPending,
		}
		if err := service.jobs.Create(ctx, newJob); err != nil {
			logrus.WithError(err).Warnf("[RECURRING] failed to queue %s for user %s", feature.jobType, pref.UserID)
			continue
		}
		logrus.Infof("[RECURRING] queued %s for user %s (local %02d:%02d)", feature.jobType, pref.UserID, local.Hour, local.Minute)
		count++
	}
	return count, nil
}

// recurringAlreadySent consults the notification log, the sole dedup source.
// Daily features look back 20h; the weekly summary looks back a full week and
// only counts entries sent on the user's configured local weekday.
func (service serviceEngine) recurringAlreadySent(ctx context.Context, pref *domainPreference.Preference, feature recurringFeature, now time.Time) (bool, error) {
	if !feature.weekly {
		return service.logs.HasSentSince(ctx, pref.UserID, string(feature.jobType), now.Add(-dailyDedupLookback))
	}

	entries, err := service.logs.ListSentSince(ctx, pref.UserID, string(feature.jobType), now.Add(-weeklyDedupLookback))
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if timeutils.ResolveLocal(entry.CreatedAt, pref.Timezone).Weekday == pref.WeeklySummaryDay {
			return true, nil
		}
	}
	return false, nil
}
