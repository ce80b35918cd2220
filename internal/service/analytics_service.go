package service

import (
	"context"
	"fmt"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

// DefaultAnalyticsDays 未指定区间时统计最近 60 天
const DefaultAnalyticsDays = 60

type AnalyticsService struct {
	sessions StudySessionRepository
	plans    StudyPlanRepository
	courses  CourseRepository
	clock    util.Clock
}

func NewAnalyticsService(sessions StudySessionRepository, plans StudyPlanRepository, courses CourseRepository, clock util.Clock) *AnalyticsService {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &AnalyticsService{sessions: sessions, plans: plans, courses: courses, clock: clock}
}

// Metrics 加载区间内数据后聚合，区间非法时不访问存储
func (s *AnalyticsService) Metrics(ctx context.Context, userID string, from, to time.Time) (*model.StudyMetrics, error) {
	if to.Before(from) {
		return nil, util.ErrInvalidDateRange
	}

	metrics, _, err := s.load(ctx, userID, from, to)
	return metrics, err
}

func (s *AnalyticsService) load(ctx context.Context, userID string, from, to time.Time) (*model.StudyMetrics, []model.StudySession, error) {
	start := util.StartOfDay(from)
	end := util.EndOfDay(to)

	sessions, err := s.sessions.ListByRange(ctx, userID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load sessions: %w", err)
	}
	plans, err := s.plans.ListByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load plans: %w", err)
	}

	return Aggregate(start, end, sessions, plans), sessions, nil
}

// GetAnalytics 学习连续性与课程时间分布，from/to 为空时取最近 60 天
func (s *AnalyticsService) GetAnalytics(ctx context.Context, userID string, from, to *time.Time) (*model.Analytics, error) {
	today := util.StartOfDay(s.clock.Now().UTC())
	end := today
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -DefaultAnalyticsDays)
	if from != nil {
		start = *from
	}

	if end.Before(start) {
		return nil, util.ErrInvalidDateRange
	}
	metrics, sessions, err := s.load(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	studied := make(map[string]struct{})
	for _, sess := range sessions {
		if sess.Duration == nil {
			continue
		}
		studied[sess.StartTime.In(start.Location()).Format(util.DateFormat)] = struct{}{}
	}

	analytics := &model.Analytics{
		Metrics: metrics,
		Consistency: model.StudyConsistency{
			DaysStudied: len(studied),
			TotalDays:   len(metrics.DailyBreakdown),
		},
		TimeDistribution: []model.TimeDistribution{},
	}
	if analytics.Consistency.TotalDays > 0 {
		analytics.Consistency.ConsistencyRate = util.Round(
			float64(analytics.Consistency.DaysStudied)/float64(analytics.Consistency.TotalDays)*100, 1)
	}

	if len(metrics.CourseHours) == 0 {
		return analytics, nil
	}

	ids := make([]string, 0, len(metrics.CourseHours))
	total := 0.0
	for _, ch := range metrics.CourseHours {
		ids = append(ids, ch.CourseID)
		total += ch.Hours
	}
	courses, err := s.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}

	for _, ch := range metrics.CourseHours {
		name := "Unknown"
		if c, ok := courses[ch.CourseID]; ok {
			name = c.Name
		}
		dist := model.TimeDistribution{
			CourseID:   ch.CourseID,
			CourseName: name,
			Hours:      util.Round(ch.Hours, 1),
		}
		if total > 0 {
			dist.Percentage = util.Round(ch.Hours/total*100, 1)
		}
		analytics.TimeDistribution = append(analytics.TimeDistribution, dist)
	}
	return analytics, nil
}
