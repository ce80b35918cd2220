package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// WeeklyTrendThreshold 周完成率变化阈值（百分点），与 GPA 阈值相互独立
const WeeklyTrendThreshold = 5.0

const (
	insightExcellent = "Great progress this week! You've maintained excellent consistency."
	insightGood      = "Good effort this week. Try to increase your study time for better results."
	insightLow       = "This week's completion rate is below target. Focus on creating a more consistent study schedule."
)

// Insights 按完成率给出固定建议
func Insights(completionRate float64) string {
	switch {
	case completionRate >= 80:
		return insightExcellent
	case completionRate >= 60:
		return insightGood
	default:
		return insightLow
	}
}

// WeekBounds 将任意日期归一到所在周的周一至周日（UTC 日期）
func WeekBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := util.StartOfWeek(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return start, start.AddDate(0, 0, 6)
}

type reportData struct {
	DailyBreakdown []model.DailyBreakdown `json:"daily_breakdown"`
	CourseHours    []model.CourseHours    `json:"course_hours"`
	TotalPlans     int                    `json:"total_plans"`
	CompletedPlans int                    `json:"completed_plans"`
}

type WeeklyReportService struct {
	analytics *AnalyticsService
	reports   WeeklyReportRepository
	courses   CourseRepository
	clock     util.Clock
}

func NewWeeklyReportService(analytics *AnalyticsService, reports WeeklyReportRepository, courses CourseRepository, clock util.Clock) *WeeklyReportService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &WeeklyReportService{analytics: analytics, reports: reports, courses: courses, clock: clock}
}

// GenerateWeeklyReport 计算并写入周报，返回值 created 表示是否为新建
// 数据不变时重复执行得到相同的统计结果
func (s *WeeklyReportService) GenerateWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyReport, bool, error) {
	if weekStart.IsZero() {
		return nil, false, util.ErrInvalidWeekStart
	}
	start, end := WeekBounds(weekStart)

	metrics, err := s.analytics.Metrics(ctx, userID, start, end)
	if err != nil {
		return nil, false, err
	}

	trend, err := s.performanceTrend(ctx, userID, start, metrics.CompletionRate)
	if err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(reportData{
		DailyBreakdown: metrics.DailyBreakdown,
		CourseHours:    metrics.CourseHours,
		TotalPlans:     metrics.TotalPlans,
		CompletedPlans: metrics.CompletedPlans,
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal report data: %w", err)
	}

	report := &model.WeeklyReport{
		UserID:               userID,
		WeekStartDate:        start,
		WeekEndDate:          end,
		TotalStudyHours:      metrics.TotalStudyHours,
		PlannedHours:         metrics.PlannedHours,
		CompletionRate:       metrics.CompletionRate,
		MostStudiedCourseID:  metrics.MostStudiedCourseID,
		LeastStudiedCourseID: metrics.LeastStudiedCourseID,
		PerformanceTrend:     trend,
		AIInsights:           Insights(metrics.CompletionRate),
		ReportData:           datatypes.JSON(data),
		GeneratedAt:          s.clock.Now().UTC(),
	}

	created, err := s.reports.Upsert(ctx, report)
	if err != nil {
		return nil, false, fmt.Errorf("upsert weekly report: %w", err)
	}

	logger.Log.Debug("weekly report generated",
		zap.String("user_id", userID),
		zap.String("week_start", start.Format(util.DateFormat)),
		zap.Bool("created", created))
	return report, created, nil
}

// performanceTrend 与上一周已保存的报告比较完成率
func (s *WeeklyReportService) performanceTrend(ctx context.Context, userID string, weekStart time.Time, rate float64) (model.PerformanceTrend, error) {
	prior, err := s.reports.FindByWeek(ctx, userID, weekStart.AddDate(0, 0, -7))
	if errors.Is(err, util.ErrReportNotFound) {
		return model.TrendStable, nil
	}
	if err != nil {
		return "", fmt.Errorf("load prior report: %w", err)
	}
	return trendWithin(rate-prior.CompletionRate, WeeklyTrendThreshold), nil
}

// GetWeeklyReport 读取周报，不存在时先生成；每日明细实时计算
func (s *WeeklyReportService) GetWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyReportView, error) {
	if weekStart.IsZero() {
		return nil, util.ErrInvalidWeekStart
	}
	start, end := WeekBounds(weekStart)

	report, err := s.reports.FindByWeek(ctx, userID, start)
	if errors.Is(err, util.ErrReportNotFound) {
		report, _, err = s.GenerateWeeklyReport(ctx, userID, start)
	}
	if err != nil {
		return nil, err
	}

	metrics, err := s.analytics.Metrics(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	view := &model.WeeklyReportView{
		ID:               report.ID,
		WeekStartDate:    start.Format(util.DateFormat),
		WeekEndDate:      end.Format(util.DateFormat),
		TotalStudyHours:  report.TotalStudyHours,
		PlannedHours:     report.PlannedHours,
		CompletionRate:   report.CompletionRate,
		PerformanceTrend: report.PerformanceTrend,
		DailyBreakdown:   metrics.DailyBreakdown,
		AIInsights:       report.AIInsights,
		GeneratedAt:      report.GeneratedAt.UTC().Format(time.RFC3339),
		EmailSentAt:      report.EmailSentAt,
	}

	ids := []string{}
	if report.MostStudiedCourseID != nil {
		ids = append(ids, *report.MostStudiedCourseID)
	}
	if report.LeastStudiedCourseID != nil {
		ids = append(ids, *report.LeastStudiedCourseID)
	}
	if len(ids) == 0 {
		return view, nil
	}

	courses, err := s.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	hours := make(map[string]float64, len(metrics.CourseHours))
	for _, ch := range metrics.CourseHours {
		hours[ch.CourseID] = ch.Hours
	}
	ref := func(id *string) *model.CourseRef {
		if id == nil {
			return nil
		}
		c, ok := courses[*id]
		if !ok {
			return nil
		}
		return &model.CourseRef{ID: c.ID, Name: c.Name, Hours: hours[c.ID]}
	}
	view.MostStudiedCourse = ref(report.MostStudiedCourseID)
	view.LeastStudiedCourse = ref(report.LeastStudiedCourseID)
	return view, nil
}

func (s *WeeklyReportService) MarkEmailed(ctx context.Context, reportID string, at time.Time) error {
	return s.reports.MarkEmailed(ctx, reportID, at)
}

// LastWeekStart 返回 now 所在时区上一个完整周的周一
func LastWeekStart(now time.Time) time.Time {
	start, _ := WeekBounds(now)
	return start.AddDate(0, 0, -7)
}
