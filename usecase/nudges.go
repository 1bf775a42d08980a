package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/timeutils"
	"github.com/sirupsen/logrus"
)

// nudgeDigestTasks caps how many overdue tasks a nudge spells out.
const nudgeDigestTasks = 3

// sendOverdueNudges delivers at most one overdue digest per user per rolling
// 24h. Nudges skip the job queue and go straight to the gateway at low
// priority; the log entry alone carries the dedup.
func (service serviceEngine) sendOverdueNudges(ctx context.Context, now time.Time) (int, error) {
	prefs, err := service.prefs.ListProactive(ctx)
	if err != nil {
		return 0, err
	}

	nudged := 0
	for _, pref := range prefs {
		ok, err := service.nudgeUser(ctx, now, pref)
		if err != nil {
			logrus.WithError(err).Warnf("[NUDGE] nudge failed for user %s", pref.UserID)
			continue
		}
		if ok {
			nudged++
		}
	}
	return nudged, nil
}

func (service serviceEngine) nudgeUser(ctx context.Context, now time.Time, pref *domainPreference.Preference) (bool, error) {
	if !pref.OverdueNudgesOn {
		return false, nil
	}

	local := timeutils.ResolveLocal(now, pref.Timezone)
	if timeutils.InQuietHours(pref.QuietHoursStart, pref.QuietHoursEnd, local.Hour) {
		return false, nil
	}

	// Rolling day, not calendar day.
	sent, err := service.logs.HasSentSince(ctx, pref.UserID, string(domainJob.TypeOverdueNudge), now.Add(-24*time.Hour))
	if err != nil {
		return false, err
	}
	if sent {
		return false, nil
	}

	capped, err := service.dailyCapReached(ctx, pref, now)
	if err != nil {
		return false, err
	}
	if capped {
		return false, nil
	}

	overdue, err := service.tasks.ListOverdue(ctx, pref.UserID, now)
	if err != nil {
		return false, err
	}
	if len(overdue) == 0 {
		return false, nil
	}

	content := composeOverdueNudge(now, overdue)
	if err := service.gateway.Send(ctx, pref.UserID, string(domainJob.TypeOverdueNudge), content, domainDelivery.PriorityLow); err != nil {
		service.appendLog(ctx, now, pref.UserID, domainJob.TypeOverdueNudge, domainNotification.StatusFailed, content)
		return false, err
	}

	service.appendLog(ctx, now, pref.UserID, domainJob.TypeOverdueNudge, domainNotification.StatusSent, content)
	logrus.Infof("[NUDGE] nudged user %s about %d overdue task(s)", pref.UserID, len(overdue))
	return true, nil
}

func composeOverdueNudge(now time.Time, overdue []*domainTask.Task) string {
	var b strings.Builder
	if len(overdue) == 1 {
		b.WriteString("👀 One task could use some attention:\n")
	} else {
		fmt.Fprintf(&b, "👀 %d tasks could use some attention:\n", len(overdue))
	}

	for i, t := range overdue {
		if i == nudgeDigestTasks {
			fmt.Fprintf(&b, "...and %d more", len(overdue)-nudgeDigestTasks)
			break
		}
		fmt.Fprintf(&b, "• %s (due %s)\n", t.Title, humanize.RelTime(*t.DueDate, now, "ago", "from now"))
	}
	return strings.TrimRight(b.String(), "\n")
}
