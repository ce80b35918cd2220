package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/internal/worker"
	"focustrack_backend/pkg/logger"

	"go.uber.org/zap"
)

// 后台任务类型
const (
	JobMorningEmail    = "morning-email"
	JobReminder        = "reminder"
	JobWeeklyReport    = "weekly-report"
	JobAssignmentSweep = "assignment-sweep"
	JobCleanup         = "cleanup"
)

// 数据保留期限
const (
	NotificationRetention = 90 * 24 * time.Hour
	EmailLogRetention     = 180 * 24 * time.Hour
	ActivityLogRetention  = 365 * 24 * time.Hour
)

// WeeklyReportPayload weekly-report 任务参数
type WeeklyReportPayload struct {
	WeekStart string `json:"week_start"`
}

// CleanupResult 清理任务删除的行数
type CleanupResult struct {
	Notifications int64
	EmailLogs     int64
	ActivityLogs  int64
}

type JobService struct {
	gates
	users         UserRepository
	assignments   AssignmentRepository
	activity      ActivityLogRepository
	email         *EmailService
	reports       *WeeklyReportService
	notifications *NotificationService
	clock         util.Clock
}

type JobDeps struct {
	Users         UserRepository
	Plans         StudyPlanRepository
	EmailLogs     EmailLogRepository
	Notifications NotificationRepository
	Assignments   AssignmentRepository
	Activity      ActivityLogRepository
	Email         *EmailService
	Reports       *WeeklyReportService
	Notifier      *NotificationService
	Clock         util.Clock
}

func NewJobService(d JobDeps) *JobService {
	clock := d.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &JobService{
		gates: gates{
			plans:         d.Plans,
			emailLogs:     d.EmailLogs,
			notifications: d.Notifications,
		},
		users:         d.Users,
		assignments:   d.Assignments,
		activity:      d.Activity,
		email:         d.Email,
		reports:       d.Reports,
		notifications: d.Notifier,
		clock:         clock,
	}
}

// Register 将处理函数注册到任务池
func (s *JobService) Register(pool *worker.Pool) {
	pool.Register(JobMorningEmail, s.HandleMorningEmail)
	pool.Register(JobReminder, s.HandleReminder)
	pool.Register(JobWeeklyReport, s.HandleWeeklyReport)
	pool.Register(JobAssignmentSweep, func(ctx context.Context, job *worker.Job) error {
		_, err := s.SweepAssignments(ctx)
		return err
	})
	pool.Register(JobCleanup, func(ctx context.Context, job *worker.Job) error {
		_, err := s.Cleanup(ctx)
		return err
	})
}

// loadUser 用户或偏好不存在时返回 nil，任务直接跳过
func (s *JobService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, util.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Preference == nil {
		return nil, nil
	}
	return user, nil
}

func (s *JobService) HandleMorningEmail(ctx context.Context, job *worker.Job) error {
	user, err := s.loadUser(ctx, job.UserID)
	if err != nil || user == nil {
		return err
	}
	pref := user.Preference
	now := s.clock.Now()

	due, err := s.morningDue(ctx, user.ID, pref, now)
	if err != nil || !due {
		return err
	}

	today := localDate(localNow(pref, now))
	plans, err := s.plans.ListByDateRange(ctx, user.ID, today, today)
	if err != nil {
		return fmt.Errorf("load today's plans: %w", err)
	}

	lines := make([]PlanLine, 0, len(plans))
	for _, p := range plans {
		if p.Status == model.PlanCompleted {
			continue
		}
		line := PlanLine{Topic: p.Topic, StartTime: p.StartTime, PlannedDuration: p.PlannedDuration}
		if p.Course != nil {
			line.CourseName = p.Course.Name
		}
		lines = append(lines, line)
	}

	_, err = s.email.Send(ctx, user, model.EmailTypeMorningPlan, TemplateMorningPlan, EmailData{Plans: lines})
	return err
}

func (s *JobService) HandleReminder(ctx context.Context, job *worker.Job) error {
	user, err := s.loadUser(ctx, job.UserID)
	if err != nil || user == nil {
		return err
	}
	pref := user.Preference

	due, err := s.reminderDue(ctx, user.ID, pref, s.clock.Now())
	if err != nil || !due {
		return err
	}

	if pref.EmailNotifications {
		if _, err := s.email.Send(ctx, user, model.EmailTypeReminder, TemplateStudyReminder, EmailData{}); err != nil {
			return err
		}
	}
	return s.notifications.NotifyReminder(ctx, user.ID)
}

func (s *JobService) HandleWeeklyReport(ctx context.Context, job *worker.Job) error {
	user, err := s.loadUser(ctx, job.UserID)
	if err != nil || user == nil {
		return err
	}
	pref := user.Preference
	if !pref.WeeklyReportEnabled {
		return nil
	}

	var payload WeeklyReportPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}
	weekStart := LastWeekStart(localNow(pref, s.clock.Now()))
	if payload.WeekStart != "" {
		if weekStart, err = util.ParseDate(payload.WeekStart); err != nil {
			return fmt.Errorf("%w: %s", util.ErrInvalidWeekStart, payload.WeekStart)
		}
	}

	report, created, err := s.reports.GenerateWeeklyReport(ctx, user.ID, weekStart)
	if err != nil {
		return err
	}

	// 重试时报告已存在，created 为 false，不会重复通知
	if created {
		if err := s.notifications.NotifyReportReady(ctx, user.ID); err != nil {
			logger.Log.Warn("Failed to create report notification", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	if !pref.EmailNotifications || report.EmailSentAt != nil {
		return nil
	}
	if _, err := s.email.Send(ctx, user, model.EmailTypeWeeklyReport, TemplateWeeklyReport, EmailData{Report: report}); err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	report.EmailSentAt = &now
	return s.reports.MarkEmailed(ctx, report.ID, now)
}

// SweepAssignments 把已过截止时间的 pending 作业改为 overdue，每次成功转换发送一条通知
func (s *JobService) SweepAssignments(ctx context.Context) (int, error) {
	candidates, err := s.assignments.ListOverdueCandidates(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list overdue assignments: %w", err)
	}

	transitioned := 0
	for i := range candidates {
		a := &candidates[i]
		ok, err := s.assignments.MarkOverdue(ctx, a.ID)
		if err != nil {
			return transitioned, fmt.Errorf("mark assignment %s overdue: %w", a.ID, err)
		}
		if !ok {
			continue
		}
		transitioned++
		if err := s.notifications.NotifyAssignmentOverdue(ctx, a); err != nil {
			logger.Log.Warn("Failed to create overdue notification", zap.String("assignment_id", a.ID), zap.Error(err))
		}
	}

	logger.Log.Info("Assignment sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("overdue", transitioned))
	return transitioned, nil
}

// Cleanup 物理删除过期的通知、邮件日志和操作日志
func (s *JobService) Cleanup(ctx context.Context) (*CleanupResult, error) {
	now := s.clock.Now().UTC()
	res := &CleanupResult{}
	var err error

	if res.Notifications, err = s.gates.notifications.DeleteOlderThan(ctx, now.Add(-NotificationRetention)); err != nil {
		return res, fmt.Errorf("cleanup notifications: %w", err)
	}
	if res.EmailLogs, err = s.emailLogs.DeleteOlderThan(ctx, now.Add(-EmailLogRetention)); err != nil {
		return res, fmt.Errorf("cleanup email logs: %w", err)
	}
	if res.ActivityLogs, err = s.activity.DeleteOlderThan(ctx, now.Add(-ActivityLogRetention)); err != nil {
		return res, fmt.Errorf("cleanup activity logs: %w", err)
	}

	logger.Log.Info("Cleanup finished",
		zap.Int64("notifications", res.Notifications),
		zap.Int64("email_logs", res.EmailLogs),
		zap.Int64("activity_logs", res.ActivityLogs))
	return res, nil
}
