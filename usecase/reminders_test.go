package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
)

func TestDueWindowMarker(t *testing.T) {
	cases := []struct {
		minutes float64
		want    string
	}{
		{1425, domainTask.Marker24h},
		{1440, domainTask.Marker24h},
		{1455, domainTask.Marker24h},
		{1456, ""},
		{1424, ""},
		{105, domainTask.Marker2h},
		{130, domainTask.Marker2h},
		{135, domainTask.Marker2h},
		{136, ""},
		{104, ""},
		{0, domainTask.Marker15min},
		{10, domainTask.Marker15min},
		{20, domainTask.Marker15min},
		{21, ""},
		{-1, ""},
	}
	for _, c := range cases {
		if got := dueWindowMarker(c.minutes); got != c.want {
			t.Fatalf("dueWindowMarker(%v) = %q, want %q", c.minutes, got, c.want)
		}
	}
}

func TestCheckTaskReminders_DueBucketAtMostOnce(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	due := now.Add(130 * time.Minute)
	reminder := &domainTask.Task{UserID: "user-1", Title: "Submit expenses", DueDate: &due}
	if err := f.tasks.Create(ctx, reminder); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sent, err := f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("checkTaskReminders() = %d, want 1", sent)
	}
	if !strings.Contains(f.gateway.sends[0].Content, "Submit expenses") {
		t.Fatalf("reminder content missing task title: %q", f.gateway.sends[0].Content)
	}

	got, err := f.tasks.GetByID(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.AutoRemindersSent.Has(domainTask.Marker2h) {
		t.Fatalf("2h marker not recorded: %v", got.AutoRemindersSent)
	}
	if got.LastRemindedAt == nil {
		t.Fatalf("last_reminded_at not set")
	}

	// Re-running immediately must not re-select the task.
	sent, err = f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() rerun error: %v", err)
	}
	if sent != 0 {
		t.Fatalf("rerun sent %d message(s), want 0", sent)
	}
	if f.sentCount() != 1 {
		t.Fatalf("gateway saw %d sends, want 1", f.sentCount())
	}
}

func TestCheckTaskReminders_ExplicitRecurrenceAdvances(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	remindAt := now.Add(10 * time.Minute)
	weekly := &domainTask.Task{
		UserID:              "user-1",
		Title:               "Water the plants",
		ReminderTime:        &remindAt,
		RecurrenceFrequency: domainTask.RecurrenceWeekly,
		RecurrenceInterval:  1,
	}
	if err := f.tasks.Create(ctx, weekly); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sent, err := f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("checkTaskReminders() = %d, want 1", sent)
	}

	got, err := f.tasks.GetByID(ctx, weekly.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.AutoRemindersSent.Has(domainTask.HeartbeatMarker(remindAt)) {
		t.Fatalf("heartbeat marker missing: %v", got.AutoRemindersSent)
	}
	if got.ReminderTime == nil {
		t.Fatalf("recurring reminder_time was cleared instead of advanced")
	}
	wantNext := remindAt.AddDate(0, 0, 7)
	if !got.ReminderTime.Equal(wantNext) {
		t.Fatalf("reminder_time = %v, want %v", got.ReminderTime, wantNext)
	}

	// The advanced slot is a week out, so nothing matches now.
	sent, err = f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() rerun error: %v", err)
	}
	if sent != 0 {
		t.Fatalf("rerun sent %d, want 0", sent)
	}
}

func TestCheckTaskReminders_OneShotConsumed(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	remindAt := now.Add(5 * time.Minute)
	oneShot := &domainTask.Task{UserID: "user-1", Title: "Call the vet", ReminderTime: &remindAt}
	if err := f.tasks.Create(ctx, oneShot); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := f.service.checkTaskReminders(ctx, now); err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}

	got, err := f.tasks.GetByID(ctx, oneShot.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.ReminderTime != nil {
		t.Fatalf("one-shot reminder_time not cleared: %v", got.ReminderTime)
	}
}

func TestCheckTaskReminders_QuietHoursDeferWithoutMarkers(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	// Start == end wraps the whole day: always suppressed.
	pref := domainPreference.Default("user-1")
	pref.ProactiveEnabled = true
	pref.QuietHoursStart = "00:00"
	pref.QuietHoursEnd = "00:00"
	if err := f.prefs.Upsert(ctx, &pref); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Minute)
	due := now.Add(10 * time.Minute)
	blocked := &domainTask.Task{UserID: "user-1", Title: "Pick up package", DueDate: &due}
	if err := f.tasks.Create(ctx, blocked); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sent, err := f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}
	if sent != 0 || f.sentCount() != 0 {
		t.Fatalf("quiet hours did not suppress, sent=%d", sent)
	}

	// Markers stay untouched so a later tick reconsiders the task.
	got, err := f.tasks.GetByID(ctx, blocked.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if len(got.AutoRemindersSent) != 0 {
		t.Fatalf("markers were written during quiet hours: %v", got.AutoRemindersSent)
	}
}

func TestCheckTaskReminders_BatchesPerUser(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	dueSoon := now.Add(10 * time.Minute)
	dueLater := now.Add(130 * time.Minute)
	remindAt := now.Add(5 * time.Minute)

	batch := []*domainTask.Task{
		{UserID: "user-1", Title: "Pick up package", DueDate: &dueSoon},
		{UserID: "user-1", Title: "Submit expenses", DueDate: &dueLater},
		{UserID: "user-1", Title: "Call the vet", ReminderTime: &remindAt},
	}
	for _, reminder := range batch {
		if err := f.tasks.Create(ctx, reminder); err != nil {
			t.Fatalf("Create(%q) error: %v", reminder.Title, err)
		}
	}

	sent, err := f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected one batched message, got %d", sent)
	}
	content := f.gateway.sends[0].Content
	if !strings.Contains(content, "3 reminders") {
		t.Fatalf("batched header missing: %q", content)
	}
	for _, title := range []string{"Pick up package", "Submit expenses", "Call the vet"} {
		if !strings.Contains(content, title) {
			t.Fatalf("batched message missing %q: %q", title, content)
		}
	}
}

func TestCheckTaskReminders_DisabledPreference(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	pref := domainPreference.Default("user-1")
	pref.ProactiveEnabled = true
	pref.TaskRemindersOn = false
	if err := f.prefs.Upsert(ctx, &pref); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Minute)
	due := now.Add(10 * time.Minute)
	if err := f.tasks.Create(ctx, &domainTask.Task{UserID: "user-1", Title: "Pick up package", DueDate: &due}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sent, err := f.service.checkTaskReminders(ctx, now)
	if err != nil {
		t.Fatalf("checkTaskReminders() error: %v", err)
	}
	if sent != 0 {
		t.Fatalf("reminders sent despite disabled preference: %d", sent)
	}
}
