package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

// UpdatePreferencesInput 为空的字段保持不变
type UpdatePreferencesInput struct {
	MorningEmailTime    *string
	ReminderTime        *string
	EmailNotifications  *bool
	PushNotifications   *bool
	WeeklyReportEnabled *bool
	WeeklyReportDay     *string
	Timezone            *string
}

// ExportResult 数据导出结果
type ExportResult struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int       `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// exportArchive 导出文件的 JSON 结构
type exportArchive struct {
	ExportedAt      time.Time              `json:"exported_at"`
	User            *model.User            `json:"user"`
	Preferences     *model.UserPreference  `json:"preferences"`
	Courses         []model.Course         `json:"courses"`
	StudySessions   []model.StudySession   `json:"study_sessions"`
	StudyPlans      []model.StudyPlan      `json:"study_plans"`
	AcademicResults []model.AcademicResult `json:"academic_results"`
	Assignments     []model.Assignment     `json:"assignments"`
	WeeklyReports   []model.WeeklyReport   `json:"weekly_reports"`
}

type SettingsService struct {
	users       UserRepository
	preferences PreferenceRepository
	courses     CourseRepository
	sessions    StudySessionRepository
	plans       StudyPlanRepository
	results     AcademicResultRepository
	assignments AssignmentRepository
	reports     WeeklyReportRepository
	storage     *StorageService
	activity    *ActivityService
	clock       util.Clock
}

type SettingsDeps struct {
	Users       UserRepository
	Preferences PreferenceRepository
	Courses     CourseRepository
	Sessions    StudySessionRepository
	Plans       StudyPlanRepository
	Results     AcademicResultRepository
	Assignments AssignmentRepository
	Reports     WeeklyReportRepository
	Storage     *StorageService
	Activity    *ActivityService
	Clock       util.Clock
}

func NewSettingsService(d SettingsDeps) *SettingsService {
	clock := d.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &SettingsService{
		users:       d.Users,
		preferences: d.Preferences,
		courses:     d.Courses,
		sessions:    d.Sessions,
		plans:       d.Plans,
		results:     d.Results,
		assignments: d.Assignments,
		reports:     d.Reports,
		storage:     d.Storage,
		activity:    d.Activity,
		clock:       clock,
	}
}

// GetPreferences 没有偏好记录时返回默认值（不落库）
func (s *SettingsService) GetPreferences(ctx context.Context, userID string) (*model.UserPreference, error) {
	pref, err := s.preferences.FindByUserID(ctx, userID)
	if errors.Is(err, util.ErrPreferenceNotFound) {
		return model.NewDefaultPreference(userID), nil
	}
	return pref, err
}

func normalizeWeekday(day string) (string, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(day)) {
			return d.String(), nil
		}
	}
	return "", util.ErrInvalidWeekday
}

// UpdatePreferences 校验后保存，首次更新时创建偏好记录
func (s *SettingsService) UpdatePreferences(ctx context.Context, userID string, in UpdatePreferencesInput) (*model.UserPreference, error) {
	pref, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.MorningEmailTime != nil {
		if _, err := util.ParseClock(*in.MorningEmailTime); err != nil {
			return nil, err
		}
		pref.MorningEmailTime = *in.MorningEmailTime
	}
	if in.ReminderTime != nil {
		if _, err := util.ParseClock(*in.ReminderTime); err != nil {
			return nil, err
		}
		pref.ReminderTime = *in.ReminderTime
	}
	if in.WeeklyReportDay != nil {
		day, err := normalizeWeekday(*in.WeeklyReportDay)
		if err != nil {
			return nil, err
		}
		pref.WeeklyReportDay = day
	}
	if in.Timezone != nil {
		if _, err := time.LoadLocation(*in.Timezone); err != nil || *in.Timezone == "" {
			return nil, util.ErrInvalidTimezone
		}
		pref.Timezone = *in.Timezone
	}
	if in.EmailNotifications != nil {
		pref.EmailNotifications = *in.EmailNotifications
	}
	if in.PushNotifications != nil {
		pref.PushNotifications = *in.PushNotifications
	}
	if in.WeeklyReportEnabled != nil {
		pref.WeeklyReportEnabled = *in.WeeklyReportEnabled
	}

	if err := s.preferences.Save(ctx, pref); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "updated",
		SubjectType: "user_preference",
		SubjectID:   pref.ID,
		Description: "Preferences updated",
	})
	return pref, nil
}

// ExportData 汇总用户全部数据写入存储，返回文件地址
func (s *SettingsService) ExportData(ctx context.Context, userID string) (*ExportResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	archive := exportArchive{ExportedAt: now, User: user, Preferences: user.Preference}

	if archive.Courses, err = s.courses.ListByUser(ctx, userID, false); err != nil {
		return nil, fmt.Errorf("export courses: %w", err)
	}
	if archive.StudySessions, err = s.sessions.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("export sessions: %w", err)
	}
	if archive.StudyPlans, err = s.plans.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("export plans: %w", err)
	}
	if archive.AcademicResults, err = s.results.ListByUser(ctx, userID, ""); err != nil {
		return nil, fmt.Errorf("export results: %w", err)
	}
	if archive.Assignments, err = s.assignments.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("export assignments: %w", err)
	}
	if archive.WeeklyReports, err = s.reports.ListByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("export reports: %w", err)
	}

	body, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("exports/%s/%s.json", userID, now.Format("20060102-150405"))
	url, err := s.storage.Put(ctx, key, body, util.MimeJSON)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		UserID:      userID,
		Event:       "exported",
		SubjectType: "user",
		SubjectID:   userID,
		Description: "User data exported",
		Properties:  map[string]interface{}{"key": key},
	})
	return &ExportResult{Key: key, URL: url, Size: len(body), GeneratedAt: now}, nil
}
