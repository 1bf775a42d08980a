package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
)

func TestSendOverdueNudges_RollingDayDedup(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	overdueAt := now.Add(-3 * time.Hour)
	if err := f.tasks.Create(ctx, &domainTask.Task{UserID: "user-1", Title: "Water plants", DueDate: &overdueAt}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	nudged, err := f.service.sendOverdueNudges(ctx, now)
	if err != nil {
		t.Fatalf("sendOverdueNudges() error: %v", err)
	}
	if nudged != 1 {
		t.Fatalf("sendOverdueNudges() = %d, want 1", nudged)
	}
	if f.gateway.sends[0].Priority != domainDelivery.PriorityLow {
		t.Fatalf("nudge priority = %q, want low", f.gateway.sends[0].Priority)
	}

	// The task stays overdue on every later tick, but one nudge per rolling
	// day is the ceiling.
	for _, offset := range []time.Duration{15 * time.Minute, 2 * time.Hour, 23 * time.Hour} {
		nudged, err = f.service.sendOverdueNudges(ctx, now.Add(offset))
		if err != nil {
			t.Fatalf("sendOverdueNudges(+%v) error: %v", offset, err)
		}
		if nudged != 0 {
			t.Fatalf("second nudge went out %v after the first", offset)
		}
	}

	// A tick past the 24h mark nudges again.
	nudged, err = f.service.sendOverdueNudges(ctx, now.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("sendOverdueNudges(+25h) error: %v", err)
	}
	if nudged != 1 {
		t.Fatalf("nudge missing after the rolling day elapsed")
	}
}

func TestSendOverdueNudges_DigestCap(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC().Truncate(time.Minute)
	for i := 0; i < 5; i++ {
		overdueAt := now.Add(-time.Duration(i+1) * time.Hour)
		if err := f.tasks.Create(ctx, &domainTask.Task{
			UserID:  "user-1",
			Title:   fmt.Sprintf("Task %d", i+1),
			DueDate: &overdueAt,
		}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	nudged, err := f.service.sendOverdueNudges(ctx, now)
	if err != nil {
		t.Fatalf("sendOverdueNudges() error: %v", err)
	}
	if nudged != 1 {
		t.Fatalf("sendOverdueNudges() = %d, want 1", nudged)
	}

	content := f.gateway.sends[0].Content
	if !strings.Contains(content, "5 tasks") {
		t.Fatalf("digest header missing: %q", content)
	}
	if !strings.Contains(content, "...and 2 more") {
		t.Fatalf("digest overflow suffix missing: %q", content)
	}
	if strings.Count(content, "•") != 3 {
		t.Fatalf("digest should list 3 tasks, got %q", content)
	}
}

func TestSendOverdueNudges_NoOverdueNoNudge(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	now := time.Now().UTC()
	future := now.Add(2 * time.Hour)
	if err := f.tasks.Create(ctx, &domainTask.Task{UserID: "user-1", Title: "Later task", DueDate: &future}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	nudged, err := f.service.sendOverdueNudges(ctx, now)
	if err != nil {
		t.Fatalf("sendOverdueNudges() error: %v", err)
	}
	if nudged != 0 || f.sentCount() != 0 {
		t.Fatalf("nudge sent without overdue tasks")
	}
}
