package service

import (
	"context"
	"time"

	"focustrack_backend/internal/model"
)

// 以下接口由 internal/repository 中的 gorm 实现满足，测试中使用内存实现

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	ListWithPreferences(ctx context.Context) ([]model.User, error)
}

type PreferenceRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserPreference, error)
	Save(ctx context.Context, pref *model.UserPreference) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, userID, id string) (*model.Course, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]model.Course, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Course, error)
	DeleteCascade(ctx context.Context, userID, id string) error
}

type StudySessionRepository interface {
	Create(ctx context.Context, s *model.StudySession) error
	Update(ctx context.Context, s *model.StudySession) error
	FindByID(ctx context.Context, userID, id string) (*model.StudySession, error)
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudySession, error)
	ListByUser(ctx context.Context, userID string) ([]model.StudySession, error)
}

type StudyPlanRepository interface {
	Create(ctx context.Context, p *model.StudyPlan) error
	Update(ctx context.Context, p *model.StudyPlan) error
	FindByID(ctx context.Context, userID, id string) (*model.StudyPlan, error)
	ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]model.StudyPlan, error)
	CountByDate(ctx context.Context, userID string, date time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.StudyPlan, error)
}

type AcademicResultRepository interface {
	Create(ctx context.Context, r *model.AcademicResult) error
	FindByID(ctx context.Context, userID, id string) (*model.AcademicResult, error)
	ListByUser(ctx context.Context, userID, semester string) ([]model.AcademicResult, error)
	Delete(ctx context.Context, userID, id string) error
}

type WeeklyReportRepository interface {
	FindByWeek(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyReport, error)
	Upsert(ctx context.Context, report *model.WeeklyReport) (bool, error)
	MarkEmailed(ctx context.Context, id string, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.WeeklyReport, error)
}

type EmailLogRepository interface {
	Create(ctx context.Context, log *model.EmailLog) error
	UpdateStatus(ctx context.Context, log *model.EmailLog) error
	ExistsSentSince(ctx context.Context, userID, emailType string, since time.Time) (bool, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	ExistsSince(ctx context.Context, userID, notificationType string, since time.Time) (bool, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type AssignmentRepository interface {
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]model.Assignment, error)
	MarkOverdue(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Assignment, error)
}

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
