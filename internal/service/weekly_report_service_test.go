package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

type reportFixture struct {
	sessions *memSessions
	plans    *memPlans
	courses  *memCourses
	reports  *memReports
	svc      *WeeklyReportService
}

func newReportFixture(now time.Time) *reportFixture {
	f := &reportFixture{
		sessions: &memSessions{},
		plans:    &memPlans{},
		courses: newMemCourses(
			*course("c1", "Math", 4),
			*course("c2", "Biology", 3),
		),
		reports: newMemReports(),
	}
	clock := util.FixedClock{T: now}
	analytics := NewAnalyticsService(f.sessions, f.plans, f.courses, clock)
	f.svc = NewWeeklyReportService(analytics, f.reports, f.courses, clock)
	return f
}

func TestInsights(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{100, insightExcellent},
		{80, insightExcellent},
		{79.99, insightGood},
		{60, insightGood},
		{59.9, insightLow},
		{0, insightLow},
	}
	for _, tt := range tests {
		if got := Insights(tt.rate); got != tt.want {
			t.Errorf("Insights(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestWeekBounds(t *testing.T) {
	start, end := WeekBounds(ts("2024-01-04T15:00:00Z"))
	if start.Format(util.DateFormat) != "2024-01-01" || end.Format(util.DateFormat) != "2024-01-07" {
		t.Errorf("bounds = %s..%s", start.Format(util.DateFormat), end.Format(util.DateFormat))
	}

	start, _ = WeekBounds(ts("2024-01-07T23:00:00Z"))
	if start.Format(util.DateFormat) != "2024-01-01" {
		t.Errorf("sunday should belong to the preceding monday, got %s", start.Format(util.DateFormat))
	}

	if got := LastWeekStart(ts("2024-01-10T08:00:00Z")).Format(util.DateFormat); got != "2024-01-01" {
		t.Errorf("LastWeekStart = %s, want 2024-01-01", got)
	}
}

func TestGenerateWeeklyReport_Idempotent(t *testing.T) {
	f := newReportFixture(ts("2024-01-08T10:00:00Z"))
	f.sessions.sessions = []model.StudySession{
		endedSession("u1", "c1", ts("2024-01-01T09:00:00Z"), 120),
		endedSession("u1", "c2", ts("2024-01-03T09:00:00Z"), 60),
	}
	f.plans.plans = []model.StudyPlan{
		mkPlan("u1", "c1", date("2024-01-01"), 120, model.PlanCompleted),
		mkPlan("u1", "c2", date("2024-01-03"), 60, model.PlanCompleted),
		mkPlan("u1", "c2", date("2024-01-05"), 60, model.PlanMissed),
	}
	ctx := context.Background()

	first, created, err := f.svc.GenerateWeeklyReport(ctx, "u1", date("2024-01-03"))
	if err != nil {
		t.Fatalf("GenerateWeeklyReport: %v", err)
	}
	if !created {
		t.Error("first generation should create the report")
	}
	if first.WeekStartDate.Format(util.DateFormat) != "2024-01-01" || first.WeekEndDate.Format(util.DateFormat) != "2024-01-07" {
		t.Errorf("week = %s..%s", first.WeekStartDate, first.WeekEndDate)
	}
	if !approx(first.TotalStudyHours, 3) || !approx(first.PlannedHours, 4) || !approx(first.CompletionRate, 66.67) {
		t.Errorf("unexpected metrics %+v", first)
	}
	if *first.MostStudiedCourseID != "c1" || *first.LeastStudiedCourseID != "c2" {
		t.Errorf("most/least = %s/%s", *first.MostStudiedCourseID, *first.LeastStudiedCourseID)
	}
	if first.PerformanceTrend != model.TrendStable {
		t.Errorf("no prior report should give stable, got %s", first.PerformanceTrend)
	}
	if first.AIInsights != insightGood {
		t.Errorf("unexpected insight %q", first.AIInsights)
	}

	second, created, err := f.svc.GenerateWeeklyReport(ctx, "u1", date("2024-01-01"))
	if err != nil {
		t.Fatalf("GenerateWeeklyReport again: %v", err)
	}
	if created {
		t.Error("second generation should update the existing report")
	}
	if second.ID != first.ID || second.TotalStudyHours != first.TotalStudyHours ||
		second.CompletionRate != first.CompletionRate || second.AIInsights != first.AIInsights ||
		string(second.ReportData) != string(first.ReportData) {
		t.Errorf("regeneration changed the report: %+v vs %+v", second, first)
	}
	if len(f.reports.reports) != 1 {
		t.Errorf("expected 1 stored report, got %d", len(f.reports.reports))
	}
}

func TestGenerateWeeklyReport_Trend(t *testing.T) {
	tests := []struct {
		name      string
		priorRate float64
		want      model.PerformanceTrend
	}{
		{"improving", 40, model.TrendImproving},
		{"declining", 90, model.TrendDeclining},
		{"within band", 47, model.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReportFixture(ts("2024-01-15T10:00:00Z"))
			f.plans.plans = []model.StudyPlan{
				mkPlan("u1", "c1", date("2024-01-08"), 60, model.PlanCompleted),
				mkPlan("u1", "c1", date("2024-01-09"), 60, model.PlanPending),
			}
			f.reports.reports[reportKey("u1", date("2024-01-01"))] = &model.WeeklyReport{
				UserID:         "u1",
				WeekStartDate:  date("2024-01-01"),
				CompletionRate: tt.priorRate,
			}

			report, _, err := f.svc.GenerateWeeklyReport(context.Background(), "u1", date("2024-01-08"))
			if err != nil {
				t.Fatalf("GenerateWeeklyReport: %v", err)
			}
			if report.PerformanceTrend != tt.want {
				t.Errorf("trend = %s, want %s", report.PerformanceTrend, tt.want)
			}
		})
	}
}

func TestGenerateWeeklyReport_InvalidWeek(t *testing.T) {
	f := newReportFixture(ts("2024-01-15T10:00:00Z"))
	if _, _, err := f.svc.GenerateWeeklyReport(context.Background(), "u1", time.Time{}); !errors.Is(err, util.ErrInvalidWeekStart) {
		t.Errorf("expected ErrInvalidWeekStart, got %v", err)
	}
	if f.reports.upserts != 0 {
		t.Error("nothing should be written for an invalid week")
	}
}

func TestGenerateWeeklyReport_PreservesEmailState(t *testing.T) {
	f := newReportFixture(ts("2024-01-08T10:00:00Z"))
	ctx := context.Background()

	report, _, err := f.svc.GenerateWeeklyReport(ctx, "u1", date("2024-01-01"))
	if err != nil {
		t.Fatalf("GenerateWeeklyReport: %v", err)
	}
	sentAt := ts("2024-01-08T10:05:00Z")
	if err := f.svc.MarkEmailed(ctx, report.ID, sentAt); err != nil {
		t.Fatalf("MarkEmailed: %v", err)
	}

	again, _, err := f.svc.GenerateWeeklyReport(ctx, "u1", date("2024-01-01"))
	if err != nil {
		t.Fatalf("GenerateWeeklyReport again: %v", err)
	}
	if again.EmailSentAt == nil || !again.EmailSentAt.Equal(sentAt) {
		t.Errorf("email_sent_at lost on regeneration: %v", again.EmailSentAt)
	}
}

func TestGetWeeklyReport(t *testing.T) {
	f := newReportFixture(ts("2024-01-08T10:00:00Z"))
	f.sessions.sessions = []model.StudySession{
		endedSession("u1", "c1", ts("2024-01-02T09:00:00Z"), 90),
		endedSession("u1", "c2", ts("2024-01-02T11:00:00Z"), 30),
	}

	view, err := f.svc.GetWeeklyReport(context.Background(), "u1", date("2024-01-04"))
	if err != nil {
		t.Fatalf("GetWeeklyReport: %v", err)
	}
	if view.WeekStartDate != "2024-01-01" || view.WeekEndDate != "2024-01-07" {
		t.Errorf("week = %s..%s", view.WeekStartDate, view.WeekEndDate)
	}
	if len(view.DailyBreakdown) != 7 || !approx(view.DailyBreakdown[1].ActualHours, 2) {
		t.Errorf("unexpected breakdown %+v", view.DailyBreakdown)
	}
	if view.MostStudiedCourse == nil || view.MostStudiedCourse.Name != "Math" || !approx(view.MostStudiedCourse.Hours, 1.5) {
		t.Errorf("unexpected most studied %+v", view.MostStudiedCourse)
	}
	if view.LeastStudiedCourse == nil || view.LeastStudiedCourse.Name != "Biology" {
		t.Errorf("unexpected least studied %+v", view.LeastStudiedCourse)
	}
	if f.reports.upserts != 1 {
		t.Errorf("missing report should be generated once, got %d upserts", f.reports.upserts)
	}

	if _, err := f.svc.GetWeeklyReport(context.Background(), "u1", date("2024-01-01")); err != nil {
		t.Fatalf("GetWeeklyReport stored: %v", err)
	}
	if f.reports.upserts != 1 {
		t.Error("stored report should not be regenerated")
	}
}
