package service

import (
	"context"
	"errors"
	"testing"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

func TestCourseService(t *testing.T) {
	courses := newMemCourses()
	svc := NewCourseService(courses, NewActivityService(&memActivity{}))
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", CreateCourseInput{Name: "Math", Code: "M101", Semester: "Fall 2023"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Credits != model.DefaultCredits || c.Color != "blue" || !c.IsActive {
		t.Errorf("unexpected defaults %+v", c)
	}

	for _, credits := range []int{-1, 7} {
		if _, err := svc.Create(ctx, "u1", CreateCourseInput{Name: "X", Credits: credits}); !errors.Is(err, util.ErrInvalidCredits) {
			t.Errorf("credits %d: expected ErrInvalidCredits, got %v", credits, err)
		}
	}

	list, err := svc.List(ctx, "u1", true)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := svc.Delete(ctx, "u2", c.ID); !errors.Is(err, util.ErrCourseNotFound) {
		t.Errorf("deleting another user's course: expected ErrCourseNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(courses.deleted) != 1 {
		t.Error("course should be removed through the cascade delete")
	}
}

func TestPlanService(t *testing.T) {
	plans := &memPlans{}
	clock := util.FixedClock{T: ts("2024-01-08T18:00:00Z")}
	svc := NewPlanService(plans, newMemCourses(*course("c1", "Math", 4)), NewActivityService(&memActivity{}), clock)
	ctx := context.Background()

	p, err := svc.Create(ctx, "u1", CreatePlanInput{CourseID: "c1", Topic: "Limits", Date: ts("2024-01-09T15:00:00Z"), StartTime: "09:30", PlannedDuration: 60})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != model.PlanPending || p.Date.Format(util.DateFormat) != "2024-01-09" || p.Course == nil || p.Priority != "medium" {
		t.Errorf("unexpected plan %+v", p)
	}

	if _, err := svc.Create(ctx, "u1", CreatePlanInput{CourseID: "c1", StartTime: "9.30"}); !errors.Is(err, util.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreatePlanInput{CourseID: "missing", StartTime: "09:30"}); !errors.Is(err, util.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}

	list, err := svc.List(ctx, "u1", date("2024-01-08"), date("2024-01-14"))
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if _, err := svc.List(ctx, "u1", date("2024-01-14"), date("2024-01-08")); !errors.Is(err, util.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}

	done, err := svc.Complete(ctx, "u1", p.ID, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != model.PlanCompleted || done.ActualDuration == nil || *done.ActualDuration != 60 || done.CompletedAt == nil {
		t.Errorf("unexpected completed plan %+v", done)
	}

	done, err = svc.Complete(ctx, "u1", p.ID, intPtr(75))
	if err != nil || *done.ActualDuration != 75 {
		t.Errorf("explicit actual duration not kept: %v %v", done, err)
	}
	if _, err := svc.Complete(ctx, "u2", p.ID, nil); !errors.Is(err, util.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestSessionService(t *testing.T) {
	sessions := &memSessions{}
	plans := &memPlans{}
	pl := mkPlan("u1", "c1", date("2024-01-08"), 60, model.PlanPending)
	plans.plans = append(plans.plans, pl)
	ctx := context.Background()

	start := NewSessionService(sessions, plans, newMemCourses(*course("c1", "Math", 4)), nil, util.FixedClock{T: ts("2024-01-08T09:00:00Z")})
	s, err := start.Start(ctx, "u1", StartSessionInput{StudyPlanID: &pl.ID})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.CourseID == nil || *s.CourseID != "c1" || s.Duration != nil {
		t.Errorf("unexpected session %+v", s)
	}
	if stored, _ := plans.FindByID(ctx, "u1", pl.ID); stored.Status != model.PlanInProgress {
		t.Errorf("plan status = %s, want in-progress", stored.Status)
	}

	end := NewSessionService(sessions, plans, newMemCourses(), nil, util.FixedClock{T: ts("2024-01-08T09:47:30Z")})
	ended, err := end.End(ctx, "u1", s.ID, "chapter 3")
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.Duration == nil || *ended.Duration != 47 || ended.Notes != "chapter 3" {
		t.Errorf("unexpected ended session %+v", ended)
	}

	if _, err := end.End(ctx, "u1", s.ID, ""); !errors.Is(err, util.ErrSessionAlreadyEnded) {
		t.Errorf("expected ErrSessionAlreadyEnded, got %v", err)
	}
	if _, err := end.End(ctx, "u1", "missing", ""); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := start.Start(ctx, "u1", StartSessionInput{CourseID: strPtr("nope")}); !errors.Is(err, util.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestNotificationService(t *testing.T) {
	repo := &memNotifications{}
	svc := NewNotificationService(repo, util.FixedClock{T: ts("2024-01-08T10:00:00Z")})
	ctx := context.Background()

	if err := svc.NotifyReportReady(ctx, "u1"); err != nil {
		t.Fatalf("NotifyReportReady: %v", err)
	}
	if err := svc.NotifyReminder(ctx, "u1"); err != nil {
		t.Fatalf("NotifyReminder: %v", err)
	}
	if err := svc.NotifyReminder(ctx, "u2"); err != nil {
		t.Fatalf("NotifyReminder: %v", err)
	}

	list, err := svc.List(ctx, "u1", false, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Notifications) != 2 || list.UnreadCount != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Notifications[0].Title != "Weekly Report Ready" || list.Notifications[0].ActionURL != "/progress" {
		t.Errorf("unexpected report notification %+v", list.Notifications[0])
	}

	if err := svc.MarkRead(ctx, "u1", list.Notifications[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := svc.MarkRead(ctx, "u2", list.Notifications[1].ID); !errors.Is(err, util.ErrNotificationMissing) {
		t.Errorf("expected ErrNotificationMissing for another user, got %v", err)
	}
	unread, _ := svc.List(ctx, "u1", true, 10)
	if len(unread.Notifications) != 1 || unread.UnreadCount != 1 {
		t.Errorf("unexpected unread list %+v", unread)
	}

	n, err := svc.MarkAllRead(ctx, "u1")
	if err != nil || n != 1 {
		t.Errorf("MarkAllRead = %d, %v", n, err)
	}
}
