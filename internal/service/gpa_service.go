package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

const (
	// MaxGPA 4.0 制上限
	MaxGPA = 4.0
	// GPATrendThreshold GPA 变化超过该值才视为上升或下降
	GPATrendThreshold = 0.1
	// SubjectTrendThreshold 单科百分比变化阈值
	SubjectTrendThreshold = 5.0
)

const (
	PeriodSemester = "semester"
	PeriodYear     = "year"
	PeriodAll      = "all"
)

// PercentageToGPA 线性换算：百分比 / 20
func PercentageToGPA(pct float64) float64 {
	return pct / 20
}

func clampGPA(gpa float64) float64 {
	if gpa < 0 {
		return 0
	}
	if gpa > MaxGPA {
		return MaxGPA
	}
	return gpa
}

// CumulativeGPA 按学分加权，忽略没有百分比的成绩
func CumulativeGPA(results []model.GradedResult) float64 {
	points := 0.0
	credits := 0
	for _, r := range results {
		if r.Percentage == nil {
			continue
		}
		c := r.Credits
		if c <= 0 {
			c = model.DefaultCredits
		}
		points += PercentageToGPA(*r.Percentage) * float64(c)
		credits += c
	}
	if credits == 0 {
		return 0
	}
	return util.Round(clampGPA(points/float64(credits)), 2)
}

// TrendDirection 比较前后两个 GPA
func TrendDirection(prior, current float64) model.PerformanceTrend {
	return trendWithin(current-prior, GPATrendThreshold)
}

func trendWithin(delta, threshold float64) model.PerformanceTrend {
	switch {
	case delta > threshold:
		return model.TrendImproving
	case delta < -threshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// SubjectPerformance 按课程分组统计，semester 非空时只统计该学期
func SubjectPerformance(results []model.AcademicResult, semester string) []model.SubjectPerformance {
	type bucket struct {
		perf   model.SubjectPerformance
		sum    float64
		graded []model.AcademicResult
	}

	index := make(map[string]*bucket)
	order := []string{}
	for _, r := range results {
		if semester != "" && r.Semester != semester {
			continue
		}
		b, ok := index[r.CourseID]
		if !ok {
			b = &bucket{perf: model.SubjectPerformance{CourseID: r.CourseID, CourseName: "Unknown"}}
			if r.Course != nil {
				b.perf.CourseName = r.Course.Name
			}
			index[r.CourseID] = b
			order = append(order, r.CourseID)
		}
		b.perf.TotalAssessments++
		if r.Percentage != nil {
			b.sum += *r.Percentage
			b.graded = append(b.graded, r)
		}
	}

	out := make([]model.SubjectPerformance, 0, len(order))
	for _, id := range order {
		b := index[id]
		b.perf.Trend = model.TrendStable
		if n := len(b.graded); n > 0 {
			b.perf.AveragePercentage = util.Round(b.sum/float64(n), 1)
		}
		if len(b.graded) >= 2 {
			sort.SliceStable(b.graded, func(i, j int) bool { return b.graded[i].Date.Before(b.graded[j].Date) })
			first := *b.graded[0].Percentage
			last := *b.graded[len(b.graded)-1].Percentage
			b.perf.Trend = trendWithin(last-first, SubjectTrendThreshold)
		}
		out = append(out, b.perf)
	}
	return out
}

// CreateResultInput 新增成绩参数
type CreateResultInput struct {
	CourseID       string
	AssessmentType string
	AssessmentName string
	Score          float64
	MaxScore       float64
	Grade          string
	Weight         *float64
	Semester       string
	Date           time.Time
	Notes          string
}

type PerformanceService struct {
	results AcademicResultRepository
	courses CourseRepository
}

func NewPerformanceService(results AcademicResultRepository, courses CourseRepository) *PerformanceService {
	return &PerformanceService{results: results, courses: courses}
}

// GetGpaTrend period 为 semester/year/all，year 取学期名称末 4 位分组
func (s *PerformanceService) GetGpaTrend(ctx context.Context, userID, period string) (*model.GpaTrend, error) {
	if period == "" {
		period = PeriodAll
	}
	if period != PeriodSemester && period != PeriodYear && period != PeriodAll {
		return nil, util.ErrInvalidPeriod
	}

	results, err := s.results.ListByUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Date.Before(results[j].Date) })

	type group struct {
		sum     float64
		count   int
		credits int
	}
	groups := make(map[string]*group)
	order := []string{}
	graded := make([]model.GradedResult, 0, len(results))

	for i := range results {
		r := &results[i]
		if r.Percentage == nil {
			continue
		}
		graded = append(graded, r.Graded())

		key := r.Semester
		if period == PeriodYear && len(key) > 4 {
			key = key[len(key)-4:]
		}
		key = strings.TrimSpace(key)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.sum += *r.Percentage
		g.count++
		g.credits += r.Course.EffectiveCredits()
	}

	trend := &model.GpaTrend{
		Trend:          make([]model.GpaPoint, 0, len(order)),
		CumulativeGPA:  CumulativeGPA(graded),
		TrendDirection: model.TrendStable,
	}
	for _, key := range order {
		g := groups[key]
		trend.Trend = append(trend.Trend, model.GpaPoint{
			Period:  key,
			GPA:     util.Round(PercentageToGPA(g.sum/float64(g.count)), 2),
			Credits: g.credits,
		})
	}
	if n := len(trend.Trend); n > 0 {
		trend.CurrentGPA = trend.Trend[n-1].GPA
		if n >= 2 {
			trend.TrendDirection = TrendDirection(trend.Trend[n-2].GPA, trend.Trend[n-1].GPA)
		}
	}
	return trend, nil
}

func (s *PerformanceService) GetSubjectPerformance(ctx context.Context, userID, semester string) ([]model.SubjectPerformance, error) {
	results, err := s.results.ListByUser(ctx, userID, semester)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	return SubjectPerformance(results, semester), nil
}

func (s *PerformanceService) CreateResult(ctx context.Context, userID string, in CreateResultInput) (*model.AcademicResult, error) {
	course, err := s.courses.FindByID(ctx, userID, in.CourseID)
	if err != nil {
		return nil, err
	}

	maxScore := in.MaxScore
	if maxScore == 0 {
		maxScore = 100
	}
	result := &model.AcademicResult{
		UserID:         userID,
		CourseID:       course.ID,
		AssessmentType: in.AssessmentType,
		AssessmentName: in.AssessmentName,
		Score:          in.Score,
		MaxScore:       maxScore,
		Grade:          in.Grade,
		Weight:         in.Weight,
		Semester:       in.Semester,
		Date:           in.Date,
		Notes:          in.Notes,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	result.DerivePercentage()

	if err := s.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("create result: %w", err)
	}
	result.Course = course
	return result, nil
}

func (s *PerformanceService) ListResults(ctx context.Context, userID, semester string) ([]model.AcademicResult, error) {
	return s.results.ListByUser(ctx, userID, semester)
}

func (s *PerformanceService) DeleteResult(ctx context.Context, userID, id string) error {
	return s.results.Delete(ctx, userID, id)
}
