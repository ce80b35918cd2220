package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/internal/worker"
)

type jobFixture struct {
	users         *memUsers
	plans         *memPlans
	sessions      *memSessions
	reports       *memReports
	emailLogs     *memEmailLogs
	notifications *memNotifications
	assignments   *memAssignments
	activity      *memActivity
	transport     *fakeTransport
	svc           *JobService
}

func newJobFixture(t *testing.T, now time.Time, users ...*model.User) *jobFixture {
	t.Helper()
	f := &jobFixture{
		users:         newMemUsers(users...),
		plans:         &memPlans{},
		sessions:      &memSessions{},
		reports:       newMemReports(),
		emailLogs:     &memEmailLogs{},
		notifications: &memNotifications{},
		assignments:   &memAssignments{},
		activity:      &memActivity{},
		transport:     &fakeTransport{},
	}
	clock := util.FixedClock{T: now}
	courses := newMemCourses(*course("c1", "Math", 4))
	email, err := NewEmailService(f.transport, f.emailLogs, "FocusTrack", "https://app.example.com", clock)
	if err != nil {
		t.Fatalf("NewEmailService: %v", err)
	}
	analytics := NewAnalyticsService(f.sessions, f.plans, courses, clock)
	f.svc = NewJobService(JobDeps{
		Users:         f.users,
		Plans:         f.plans,
		EmailLogs:     f.emailLogs,
		Notifications: f.notifications,
		Assignments:   f.assignments,
		Activity:      f.activity,
		Email:         email,
		Reports:       NewWeeklyReportService(analytics, f.reports, courses, clock),
		Notifier:      NewNotificationService(f.notifications, clock),
		Clock:         clock,
	})
	return f
}

func userJob(t *testing.T, jobType, userID string, payload interface{}) *worker.Job {
	t.Helper()
	job, err := worker.NewJob(jobType, userID, payload)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return job
}

func TestHandleMorningEmail(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-08T08:00:00Z"), testUser("u1", pref(nil)))
	pending := mkPlan("u1", "c1", date("2024-01-08"), 45, model.PlanPending)
	pending.Course = course("c1", "Math", 4)
	pending.StartTime = "09:00"
	f.plans.plans = append(f.plans.plans,
		pending,
		mkPlan("u1", "c1", date("2024-01-08"), 30, model.PlanCompleted),
		mkPlan("u1", "c1", date("2024-01-09"), 30, model.PlanPending),
	)
	ctx := context.Background()

	if err := f.svc.HandleMorningEmail(ctx, userJob(t, JobMorningEmail, "u1", nil)); err != nil {
		t.Fatalf("HandleMorningEmail: %v", err)
	}
	if f.transport.count() != 1 {
		t.Fatalf("expected 1 email, got %d", f.transport.count())
	}
	body := f.transport.sent[0].HTMLBody
	if !contains(body, "Math") || !contains(body, "09:00") || contains(body, "30 minutes") {
		t.Errorf("morning email should list only today's unfinished plans: %s", body)
	}

	// 队列中的重复任务在执行时再次检查，不会重复发送
	if err := f.svc.HandleMorningEmail(ctx, userJob(t, JobMorningEmail, "u1", nil)); err != nil {
		t.Fatalf("HandleMorningEmail again: %v", err)
	}
	if f.transport.count() != 1 {
		t.Errorf("duplicate job must not send again, sent %d", f.transport.count())
	}
}

func TestHandleMorningEmail_FailureIsRetryable(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-08T08:00:00Z"), testUser("u1", pref(nil)))
	f.transport.err = errors.New("sendgrid: 503")
	ctx := context.Background()

	if err := f.svc.HandleMorningEmail(ctx, userJob(t, JobMorningEmail, "u1", nil)); err == nil {
		t.Fatal("expected transport error")
	}
	f.transport.err = nil
	if err := f.svc.HandleMorningEmail(ctx, userJob(t, JobMorningEmail, "u1", nil)); err != nil {
		t.Fatalf("retry: %v", err)
	}

	logs := f.emailLogs.byType(model.EmailTypeMorningPlan)
	if len(logs) != 2 || logs[0].Status != model.EmailFailed || logs[1].Status != model.EmailSent {
		t.Errorf("expected failed then sent logs, got %+v", logs)
	}
}

func TestHandlers_SkipMissingUserOrPreference(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-08T22:00:00Z"), testUser("nopref", nil))
	ctx := context.Background()

	for _, userID := range []string{"nopref", "ghost"} {
		for _, handle := range []worker.Handler{f.svc.HandleMorningEmail, f.svc.HandleReminder, f.svc.HandleWeeklyReport} {
			if err := handle(ctx, userJob(t, "any", userID, nil)); err != nil {
				t.Errorf("expected silent skip for %s, got %v", userID, err)
			}
		}
	}
	if f.transport.count() != 0 || len(f.notifications.items) != 0 {
		t.Error("skipped users must not receive anything")
	}
}

func TestHandleReminder(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-08T21:30:00Z"),
		testUser("both", pref(nil)),
		testUser("push", pref(func(p *model.UserPreference) { p.EmailNotifications = false })),
	)
	ctx := context.Background()

	for _, id := range []string{"both", "push"} {
		if err := f.svc.HandleReminder(ctx, userJob(t, JobReminder, id, nil)); err != nil {
			t.Fatalf("HandleReminder(%s): %v", id, err)
		}
	}
	if f.transport.count() != 1 || f.transport.sent[0].To != "both@example.com" {
		t.Errorf("only the email-enabled user should get an email, got %+v", f.transport.sent)
	}
	if got := len(f.notifications.byType(model.NotificationReminder)); got != 2 {
		t.Errorf("expected 2 reminder notifications, got %d", got)
	}

	for _, id := range []string{"both", "push"} {
		if err := f.svc.HandleReminder(ctx, userJob(t, JobReminder, id, nil)); err != nil {
			t.Fatalf("HandleReminder again(%s): %v", id, err)
		}
	}
	if f.transport.count() != 1 || len(f.notifications.byType(model.NotificationReminder)) != 2 {
		t.Error("reminders must be sent at most once per local day")
	}
}

func TestHandleWeeklyReport(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-07T20:00:00Z"), testUser("u1", pref(nil)))
	f.sessions.sessions = append(f.sessions.sessions, endedSession("u1", "c1", ts("2024-01-02T09:00:00Z"), 120))
	ctx := context.Background()
	payload := WeeklyReportPayload{WeekStart: "2024-01-01"}

	if err := f.svc.HandleWeeklyReport(ctx, userJob(t, JobWeeklyReport, "u1", payload)); err != nil {
		t.Fatalf("HandleWeeklyReport: %v", err)
	}
	report, err := f.reports.FindByWeek(ctx, "u1", date("2024-01-01"))
	if err != nil {
		t.Fatalf("report not stored: %v", err)
	}
	if report.EmailSentAt == nil || !approx(report.TotalStudyHours, 2) {
		t.Errorf("unexpected report %+v", report)
	}
	if f.transport.count() != 1 || len(f.notifications.byType(model.NotificationReport)) != 1 {
		t.Fatalf("expected one email and one notification, got %d/%d",
			f.transport.count(), len(f.notifications.byType(model.NotificationReport)))
	}

	if err := f.svc.HandleWeeklyReport(ctx, userJob(t, JobWeeklyReport, "u1", payload)); err != nil {
		t.Fatalf("HandleWeeklyReport again: %v", err)
	}
	if f.transport.count() != 1 || len(f.notifications.byType(model.NotificationReport)) != 1 {
		t.Error("re-running the weekly job must not notify or email twice")
	}
}

func TestHandleWeeklyReport_RetryAfterEmailFailure(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-07T20:00:00Z"), testUser("u1", pref(nil)))
	f.transport.err = errors.New("smtp down")
	ctx := context.Background()
	job := userJob(t, JobWeeklyReport, "u1", WeeklyReportPayload{WeekStart: "2024-01-01"})

	if err := f.svc.HandleWeeklyReport(ctx, job); err == nil {
		t.Fatal("expected email failure")
	}
	f.transport.err = nil
	if err := f.svc.HandleWeeklyReport(ctx, job); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if got := len(f.notifications.byType(model.NotificationReport)); got != 1 {
		t.Errorf("expected exactly one report notification across retries, got %d", got)
	}
	logs := f.emailLogs.byType(model.EmailTypeWeeklyReport)
	if len(logs) != 2 || logs[1].Status != model.EmailSent {
		t.Errorf("unexpected email logs %+v", logs)
	}
}

func TestHandleWeeklyReport_EmailDisabled(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-07T20:00:00Z"),
		testUser("u1", pref(func(p *model.UserPreference) { p.EmailNotifications = false })))

	if err := f.svc.HandleWeeklyReport(context.Background(), userJob(t, JobWeeklyReport, "u1", nil)); err != nil {
		t.Fatalf("HandleWeeklyReport: %v", err)
	}
	if f.transport.count() != 0 {
		t.Error("email disabled users must not be emailed")
	}
	if _, err := f.reports.FindByWeek(context.Background(), "u1", date("2023-12-25")); err != nil {
		t.Errorf("report for the previous week should exist: %v", err)
	}
}

func TestSweepAssignments(t *testing.T) {
	now := ts("2024-01-08T12:00:00Z")
	f := newJobFixture(t, now)
	mk := func(id string, due time.Time, status model.AssignmentStatus) *model.Assignment {
		a := &model.Assignment{UserID: "u1", CourseID: "c1", Title: "Essay " + id, DueDate: due, Status: status}
		a.ID = id
		return a
	}
	f.assignments.items = []*model.Assignment{
		mk("late", now.Add(-time.Hour), model.AssignmentPending),
		mk("future", now.Add(time.Hour), model.AssignmentPending),
		mk("done", now.Add(-48*time.Hour), model.AssignmentCompleted),
		mk("again", now.Add(-24*time.Hour), model.AssignmentOverdue),
	}
	ctx := context.Background()

	n, err := f.svc.SweepAssignments(ctx)
	if err != nil {
		t.Fatalf("SweepAssignments: %v", err)
	}
	if n != 1 || f.assignments.items[0].Status != model.AssignmentOverdue {
		t.Errorf("expected exactly one transition, got %d", n)
	}
	notes := f.notifications.byType(model.NotificationAssignment)
	if len(notes) != 1 || notes[0].ActionURL != "/assignments/late" || notes[0].Message != "Your assignment 'Essay late' is now overdue." {
		t.Fatalf("unexpected notifications %+v", notes)
	}

	if n, _ := f.svc.SweepAssignments(ctx); n != 0 {
		t.Errorf("second sweep should find nothing, got %d", n)
	}
	if len(f.notifications.byType(model.NotificationAssignment)) != 1 {
		t.Error("no extra notification without a transition")
	}
}

func TestCleanup(t *testing.T) {
	now := ts("2024-06-30T02:00:00Z")
	f := newJobFixture(t, now)

	res, err := f.svc.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if res.Notifications != 3 || res.EmailLogs != 2 || res.ActivityLogs != 5 {
		t.Errorf("unexpected result %+v", res)
	}
	if !f.notifications.deleted.Equal(now.AddDate(0, 0, -90)) {
		t.Errorf("notification cutoff = %v", f.notifications.deleted)
	}
	if !f.emailLogs.deleted.Equal(now.AddDate(0, 0, -180)) {
		t.Errorf("email log cutoff = %v", f.emailLogs.deleted)
	}
	if !f.activity.deleted.Equal(now.AddDate(0, 0, -365)) {
		t.Errorf("activity log cutoff = %v", f.activity.deleted)
	}
}

func TestJobService_PoolRetriesThenFailsPermanently(t *testing.T) {
	f := newJobFixture(t, ts("2024-01-08T08:00:00Z"), testUser("u1", pref(nil)))
	f.transport.err = errors.New("sendgrid: 500")

	queue := worker.NewMemoryQueue(8)
	pool := worker.NewPool(queue, worker.RetryPolicy{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond}}, 1, nil)
	f.svc.Register(pool)

	var mu sync.Mutex
	var failed []*worker.Job
	pool.OnPermanentFailure(func(job *worker.Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, job)
	})

	ctx := context.Background()
	if err := queue.Enqueue(ctx, userJob(t, JobMorningEmail, "u1", nil)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Drain(drainCtx, queue); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	logs := f.emailLogs.byType(model.EmailTypeMorningPlan)
	if len(logs) != 3 {
		t.Errorf("expected 3 attempts each with one failed log, got %d", len(logs))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0].Attempt != 3 {
		t.Errorf("expected one permanent failure after 3 attempts, got %+v", failed)
	}
}
