package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	settingsApp "github.com/ganga90/olive-couple-sync-sub002/core/settings/application"
	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	domainBriefing "github.com/ganga90/olive-couple-sync-sub002/domains/briefing"
	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainNotification "github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	domainTask "github.com/ganga90/olive-couple-sync-sub002/domains/task"
	domainUser "github.com/ganga90/olive-couple-sync-sub002/domains/user"
	"github.com/ganga90/olive-couple-sync-sub002/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- Test doubles for the external collaborators ---

type recordedSend struct {
	UserID      string
	MessageType string
	Content     string
	Priority    domainDelivery.Priority
}

type fakeGateway struct {
	sends []recordedSend
	fail  bool
}

func (g *fakeGateway) Send(ctx context.Context, userID, messageType, content string, priority domainDelivery.Priority) error {
	if g.fail {
		return errors.New("gateway unavailable")
	}
	g.sends = append(g.sends, recordedSend{UserID: userID, MessageType: messageType, Content: content, Priority: priority})
	return nil
}

func (g *fakeGateway) ProcessQueue(ctx context.Context) (int, error) { return 0, nil }

func (g *fakeGateway) Channel() string { return "test" }

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, req domainBriefing.GenerateRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeRunner struct {
	invocations [][2]string
}

func (r *fakeRunner) Invoke(agentID, userID string) {
	r.invocations = append(r.invocations, [2]string{agentID, userID})
}

type staticCatalog map[string]domainAgent.CatalogEntry

func (c staticCatalog) Entries() []domainAgent.CatalogEntry {
	var entries []domainAgent.CatalogEntry
	for _, entry := range c {
		entries = append(entries, entry)
	}
	return entries
}

func (c staticCatalog) Get(agentID string) (domainAgent.CatalogEntry, bool) {
	entry, ok := c[agentID]
	return entry, ok
}

// --- Fixture ---

type engineFixture struct {
	service   *serviceEngine
	jobs      *repository.JobGormRepository
	logs      *repository.LogGormRepository
	prefs     *repository.PreferenceGormRepository
	tasks     *repository.TaskGormRepository
	users     *repository.UserGormRepository
	agents    *repository.AgentGormRepository
	conns     *repository.ConnectionGormRepository
	gateway   *fakeGateway
	generator *fakeGenerator
	runner    *fakeRunner
	state     *settingsApp.StateService
}

// newTestEngine builds the full engine against a throwaway sqlite database,
// with fake gateway/generator/runner collaborators.
func newTestEngine(t *testing.T) *engineFixture {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "engine_test.db")
	db, err := gorm.Open(sqlite.Open("file:"+dbPath+"?_journal_mode=WAL&_foreign_keys=on"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	ctx := context.Background()
	fixture := &engineFixture{
		jobs:      repository.NewJobGormRepository(db),
		logs:      repository.NewLogGormRepository(db),
		prefs:     repository.NewPreferenceGormRepository(db),
		tasks:     repository.NewTaskGormRepository(db),
		users:     repository.NewUserGormRepository(db),
		agents:    repository.NewAgentGormRepository(db),
		conns:     repository.NewConnectionGormRepository(db),
		gateway:   &fakeGateway{},
		generator: &fakeGenerator{text: "Good morning! Here is your day."},
		runner:    &fakeRunner{},
		state:     settingsApp.NewStateService(db),
	}

	type migrator interface {
		InitSchema(ctx context.Context) error
	}
	for _, m := range []migrator{fixture.jobs, fixture.logs, fixture.prefs, fixture.tasks, fixture.users, fixture.agents, fixture.conns, fixture.state} {
		if err := m.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() error: %v", err)
		}
	}

	svc := NewEngineService(EngineDeps{
		Jobs:        fixture.jobs,
		Logs:        fixture.logs,
		Preferences: fixture.prefs,
		Tasks:       fixture.tasks,
		Users:       fixture.users,
		Agents:      fixture.agents,
		Connections: fixture.conns,
		Catalog:     staticCatalog{},
		Generator:   fixture.generator,
		Gateway:     fixture.gateway,
		Runner:      fixture.runner,
		State:       fixture.state,
	}, config.EngineConfig{
		TickCadenceMinutes: 15,
		QueueBatchSize:     50,
		LogRetentionDays:   30,
	})
	fixture.service = svc.(*serviceEngine)
	return fixture
}

func (f *engineFixture) setCatalog(entries ...domainAgent.CatalogEntry) {
	catalog := staticCatalog{}
	for _, entry := range entries {
		catalog[entry.ID] = entry
	}
	f.service.catalog = catalog
}

// seedUser creates a user and a preference row with proactive enabled and no
// quiet hours, ready to receive anything.
func (f *engineFixture) seedUser(t *testing.T, id, phone, name string) {
	t.Helper()
	if err := f.users.Create(context.Background(), &domainUser.User{ID: id, Phone: phone, DisplayName: name}); err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
	pref := domainPreference.Default(id)
	pref.ProactiveEnabled = true
	if err := f.prefs.Upsert(context.Background(), &pref); err != nil {
		t.Fatalf("failed to seed preference for %s: %v", id, err)
	}
}

func (f *engineFixture) sentCount() int {
	return len(f.gateway.sends)
}

// --- Tests ---

func TestScheduleJob_ValidationAndCreation(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()

	if _, err := f.service.ScheduleJob(ctx, domainProactive.ScheduleJobRequest{JobType: "task_reminder"}); err == nil {
		t.Fatalf("ScheduleJob() without user_id expected validation error")
	}
	if _, err := f.service.ScheduleJob(ctx, domainProactive.ScheduleJobRequest{UserID: "user-1"}); err == nil {
		t.Fatalf("ScheduleJob() without job_type expected validation error")
	}
	if _, err := f.service.ScheduleJob(ctx, domainProactive.ScheduleJobRequest{UserID: "user-1", JobType: "banana"}); err == nil {
		t.Fatalf("ScheduleJob() with unknown job_type expected validation error")
	}

	id, err := f.service.ScheduleJob(ctx, domainProactive.ScheduleJobRequest{UserID: "user-1", JobType: "task_reminder"})
	if err != nil {
		t.Fatalf("ScheduleJob() error: %v", err)
	}
	created, err := f.jobs.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if created.Status != domainJob.StatusPending {
		t.Fatalf("new job status = %q, want pending", created.Status)
	}
}

func TestProcessQueue_PayloadJobDelivered(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()

	pending := &domainJob.Job{
		UserID:       "user-1",
		JobType:      domainJob.TypeTaskReminder,
		ScheduledFor: now.Add(-time.Minute),
		Payload:      map[string]any{"message": "Don't forget the groceries"},
	}
	if err := f.jobs.Create(ctx, pending); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	processed, failed, err := f.service.processQueue(ctx, now)
	if err != nil {
		t.Fatalf("processQueue() error: %v", err)
	}
	if processed != 1 || failed != 0 {
		t.Fatalf("processQueue() = (%d, %d), want (1, 0)", processed, failed)
	}
	if f.sentCount() != 1 || f.gateway.sends[0].Content != "Don't forget the groceries" {
		t.Fatalf("unexpected sends: %+v", f.gateway.sends)
	}

	done, err := f.jobs.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if done.Status != domainJob.StatusCompleted {
		t.Fatalf("job status = %q, want completed", done.Status)
	}

	logs, err := f.logs.List(ctx, domainNotification.Filter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != domainNotification.StatusSent {
		t.Fatalf("expected one sent log entry, got %+v", logs)
	}
}

func TestProcessQueue_DeliveryFailureIsTerminal(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()
	f.gateway.fail = true

	pending := &domainJob.Job{
		UserID:       "user-1",
		JobType:      domainJob.TypeTaskReminder,
		ScheduledFor: now.Add(-time.Minute),
		Payload:      map[string]any{"message": "hello"},
	}
	if err := f.jobs.Create(ctx, pending); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	processed, failed, err := f.service.processQueue(ctx, now)
	if err != nil {
		t.Fatalf("processQueue() error: %v", err)
	}
	if processed != 0 || failed != 1 {
		t.Fatalf("processQueue() = (%d, %d), want (0, 1)", processed, failed)
	}

	terminal, err := f.jobs.GetByID(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if terminal.Status != domainJob.StatusFailed {
		t.Fatalf("job status = %q, want failed", terminal.Status)
	}

	// Failed jobs never come back: a healthy gateway on the next pass picks
	// up nothing.
	f.gateway.fail = false
	processed, failed, err = f.service.processQueue(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("processQueue() second pass error: %v", err)
	}
	if processed != 0 || failed != 0 {
		t.Fatalf("second pass = (%d, %d), want (0, 0)", processed, failed)
	}
}

func TestProcessQueue_GeneratedBriefingUsesGenerator(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	pending := &domainJob.Job{
		UserID:       "user-1",
		JobType:      domainJob.TypeMorningBriefing,
		ScheduledFor: now,
	}
	if err := f.jobs.Create(ctx, pending); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	processed, _, err := f.service.processQueue(ctx, now)
	if err != nil {
		t.Fatalf("processQueue() error: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processQueue() processed = %d, want 1", processed)
	}
	if f.gateway.sends[0].Content != f.generator.text {
		t.Fatalf("briefing content = %q, want generator output", f.gateway.sends[0].Content)
	}
}

func TestTick_EndToEndCountersAndState(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	// A due payload job for the queue stage.
	if err := f.jobs.Create(ctx, &domainJob.Job{
		UserID:       "user-1",
		JobType:      domainJob.TypeTaskReminder,
		ScheduledFor: now.Add(-time.Minute),
		Payload:      map[string]any{"message": "queued reminder"},
	}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	// An overdue task for the nudge stage.
	overdueAt := now.Add(-3 * time.Hour)
	if err := f.tasks.Create(ctx, &domainTask.Task{UserID: "user-1", Title: "Water plants", DueDate: &overdueAt}); err != nil {
		t.Fatalf("Create() task error: %v", err)
	}

	// An every-tick agent for the invoker stage.
	f.setCatalog(domainAgent.CatalogEntry{ID: "daily-planner", Background: true, Class: domainAgent.ClassEveryTick})
	if err := f.agents.SetActivation(ctx, &domainAgent.Activation{UserID: "user-1", AgentID: "daily-planner", Enabled: true}); err != nil {
		t.Fatalf("SetActivation() error: %v", err)
	}

	report, err := f.service.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if len(report.StageErrors) != 0 {
		t.Fatalf("Tick() stage errors: %v", report.StageErrors)
	}
	if report.JobsProcessed != 1 {
		t.Fatalf("JobsProcessed = %d, want 1", report.JobsProcessed)
	}
	if report.NudgesSent != 1 {
		t.Fatalf("NudgesSent = %d, want 1", report.NudgesSent)
	}
	if report.AgentsInvoked != 1 {
		t.Fatalf("AgentsInvoked = %d, want 1", report.AgentsInvoked)
	}

	lastTick, err := f.state.LastTickAt(ctx)
	if err != nil {
		t.Fatalf("LastTickAt() error: %v", err)
	}
	if lastTick.IsZero() {
		t.Fatalf("tick state was not recorded")
	}
	sweep, err := f.state.LastRetentionSweepAt(ctx)
	if err != nil {
		t.Fatalf("LastRetentionSweepAt() error: %v", err)
	}
	if sweep.IsZero() {
		t.Fatalf("retention sweep was not recorded")
	}
}

func TestTick_EmptyDatabaseProducesZeroReport(t *testing.T) {
	f := newTestEngine(t)

	report, err := f.service.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}

	want := &domainProactive.TickReport{}
	ignoreDuration := cmpopts.IgnoreFields(domainProactive.TickReport{}, "DurationMillis")
	if diff := cmp.Diff(want, report, ignoreDuration); diff != "" {
		t.Fatalf("Tick() report mismatch (-want +got):\n%s", diff)
	}
	if len(f.gateway.sends) != 0 {
		t.Fatalf("Tick() on empty database sent %d messages", len(f.gateway.sends))
	}
}

func TestGenerateBriefing_DeliverWritesLog(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "15550001111", "Ana")

	result, err := f.service.GenerateBriefing(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("GenerateBriefing() error: %v", err)
	}
	if result.Delivered {
		t.Fatalf("Delivered = true without deliver flag")
	}
	if f.sentCount() != 0 {
		t.Fatalf("no delivery expected, got %d sends", f.sentCount())
	}

	result, err = f.service.GenerateBriefing(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("GenerateBriefing(deliver) error: %v", err)
	}
	if !result.Delivered || f.sentCount() != 1 {
		t.Fatalf("expected delivered briefing, got %+v with %d sends", result, f.sentCount())
	}

	logs, err := f.logs.List(ctx, domainNotification.Filter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(logs) != 1 || logs[0].JobType != string(domainJob.TypeMorningBriefing) {
		t.Fatalf("expected one briefing log entry, got %+v", logs)
	}
}

func TestTestBriefing_ResolvesPhoneAndForceDelivers(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()
	f.seedUser(t, "user-1", "+34 612 345 678", "Ana")

	// Quiet hours all day; a test send must still go out.
	pref := domainPreference.Default("user-1")
	pref.ProactiveEnabled = true
	pref.QuietHoursStart = "00:00"
	pref.QuietHoursEnd = "00:00"
	if err := f.prefs.Upsert(ctx, &pref); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	result, err := f.service.TestBriefing(ctx, "34612345678")
	if err != nil {
		t.Fatalf("TestBriefing() error: %v", err)
	}
	if !result.Delivered {
		t.Fatalf("test briefing was not delivered")
	}
	if result.UserID != "user-1" || result.DisplayName != "Ana" {
		t.Fatalf("resolved wrong user: %+v", result)
	}
	if !strings.HasPrefix(result.Preview, "Good morning") {
		t.Fatalf("unexpected preview %q", result.Preview)
	}
	if f.gateway.sends[0].Priority != domainDelivery.PriorityHigh {
		t.Fatalf("test send priority = %q, want high", f.gateway.sends[0].Priority)
	}

	if _, err := f.service.TestBriefing(ctx, "0000000"); err != domainUser.ErrUserNotFound {
		t.Fatalf("TestBriefing(unknown) expected ErrUserNotFound, got %v", err)
	}
}
