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
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/timeutils"
	"github.com/sirupsen/logrus"
)

// Automatic due-date buckets, in minutes until due. Each window is wider than
// the exact boundary by the tick cadence so a task falling between ticks still
// lands in exactly one bucket.
const (
	dueWindow24hMin = 1425
	dueWindow24hMax = 1455
	dueWindow2hMin  = 105
	dueWindow2hMax  = 135
	dueWindow15mMin = 0
	dueWindow15mMax = 20
)

// dueHorizon covers the farthest automatic bucket.
const dueHorizon = dueWindow24hMax * time.Minute

// reminderBatchLines caps how many task lines one reminder message spells out.
const reminderBatchLines = 5

// reminderMatch ties a task to the marker that selected it this tick.
// Explicit matches come from a user-set reminder_time; the rest from the
// due-date buckets.
type reminderMatch struct {
	task     *domainTask.Task
	marker   string
	explicit bool
}

// checkTaskReminders merges the two reminder sources, batches per user, and
// returns how many reminder messages went out.
func (service serviceEngine) checkTaskReminders(ctx context.Context, now time.Time) (int, error) {
	matches, err := service.collectReminderMatches(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	// Group per owning user, preserving match order inside each batch.
	byUser := make(map[string][]reminderMatch)
	var userOrder []string
	for _, match := range matches {
		if _, seen := byUser[match.task.UserID]; !seen {
			userOrder = append(userOrder, match.task.UserID)
		}
		byUser[match.task.UserID] = append(byUser[match.task.UserID], match)
	}

	sent := 0
	for _, userID := range userOrder {
		if service.sendUserReminders(ctx, now, userID, byUser[userID]) {
			sent++
		}
	}
	return sent, nil
}

func (service serviceEngine) collectReminderMatches(ctx context.Context, now time.Time) ([]reminderMatch, error) {
	var matches []reminderMatch

	// Source 1: explicit reminder timestamps inside the next tick window.
	window := time.Duration(service.cadence) * time.Minute
	explicit, err := service.tasks.ListRemindersBetween(ctx, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	for _, t := range explicit {
		marker := domainTask.HeartbeatMarker(*t.ReminderTime)
		if t.AutoRemindersSent.Has(marker) {
			continue
		}
		matches = append(matches, reminderMatch{task: t, marker: marker, explicit: true})
	}

	// Source 2: automatic windows relative to a future due date.
	due, err := service.tasks.ListDueWithin(ctx, now, dueHorizon)
	if err != nil {
		return nil, err
	}
	for _, t := range due {
		marker := dueWindowMarker(timeutils.MinutesUntil(now, *t.DueDate))
		if marker == "" {
			continue
		}
		if t.AutoRemindersSent.Has(marker) {
			continue
		}
		matches = append(matches, reminderMatch{task: t, marker: marker})
	}

	return matches, nil
}

// dueWindowMarker buckets minutes-until-due, or returns "" when the task sits
// between windows this tick.
func dueWindowMarker(minutes float64) string {
	switch {
	case minutes >= dueWindow24hMin && minutes <= dueWindow24hMax:
		return domainTask.Marker24h
	case minutes >= dueWindow2hMin && minutes <= dueWindow2hMax:
		return domainTask.Marker2h
	case minutes >= dueWindow15mMin && minutes <= dueWindow15mMax:
		return domainTask.Marker15min
	}
	return ""
}

// sendUserReminders delivers one batched message for the user. During quiet
// hours the batch is dropped without setting markers, so a later tick
// reconsiders every task; markers only advance after a confirmed send.
func (service serviceEngine) sendUserReminders(ctx context.Context, now time.Time, userID string, batch []reminderMatch) bool {
	pref := service.preferenceFor(ctx, userID)
	if !pref.TaskRemindersOn {
		return false
	}

	local := timeutils.ResolveLocal(now, pref.Timezone)
	if timeutils.InQuietHours(pref.QuietHoursStart, pref.QuietHoursEnd, local.Hour) {
		logrus.Debugf("[REMINDER] quiet hours, deferring %d reminder(s) for user %s", len(batch), userID)
		return false
	}

	content := composeReminderMessage(now, batch)
	if err := service.gateway.Send(ctx, userID, string(domainJob.TypeTaskReminder), content, domainDelivery.PriorityNormal); err != nil {
		logrus.WithError(err).Errorf("[REMINDER] delivery failed for user %s", userID)
		service.appendLog(ctx, now, userID, domainJob.TypeTaskReminder, domainNotification.StatusFailed, content)
		return false
	}

	for _, match := range batch {
		service.confirmReminder(ctx, now, match)
	}
	service.appendLog(ctx, now, userID, domainJob.TypeTaskReminder, domainNotification.StatusSent, content)
	logrus.Infof("[REMINDER] sent %d reminder(s) to user %s", len(batch), userID)
	return true
}

// confirmReminder persists the at-most-once bookkeeping for one delivered
// match: the marker joins the set, explicit reminders either advance their
// recurrence or are consumed, and last_reminded_at moves forward.
func (service serviceEngine) confirmReminder(ctx context.Context, now time.Time, match reminderMatch) {
	t := match.task
	t.AutoRemindersSent.Add(match.marker)

	if match.explicit {
		if t.Recurs() && t.ReminderTime != nil {
			next, err := timeutils.NextReminderTime(*t.ReminderTime, t.RecurrenceFrequency, t.RecurrenceInterval)
			if err != nil {
				logrus.WithError(err).Warnf("[REMINDER] cannot advance recurrence for task %s", t.ID)
				t.ReminderTime = nil
			} else {
				t.ReminderTime = &next
			}
		} else {
			// One-shot reminder consumed.
			t.ReminderTime = nil
		}
	}

	remindedAt := now
	t.LastRemindedAt = &remindedAt

	if err := service.tasks.SaveReminderState(ctx, t); err != nil {
		logrus.WithError(err).Errorf("[REMINDER] failed to persist reminder state for task %s", t.ID)
	}
}

func composeReminderMessage(now time.Time, batch []reminderMatch) string {
	if len(batch) == 1 {
		return "⏰ Reminder: " + reminderLine(now, batch[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ You have %d reminders:\n", len(batch))
	for i, match := range batch {
		if i == reminderBatchLines {
			fmt.Fprintf(&b, "...and %d more", len(batch)-reminderBatchLines)
			break
		}
		b.WriteString("• " + reminderLine(now, match) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func reminderLine(now time.Time, match reminderMatch) string {
	t := match.task
	if !match.explicit && t.DueDate != nil {
		return fmt.Sprintf("%s (due %s)", t.Title, humanize.RelTime(*t.DueDate, now, "ago", "from now"))
	}
	return t.Title
}
