package service

import (
	"context"
	"errors"
	"testing"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

func course(id, name string, credits int) *model.Course {
	c := &model.Course{UserID: "u1", Name: name, Credits: credits, IsActive: true}
	c.ID = id
	return c
}

func result(c *model.Course, semester string, when string, score float64) model.AcademicResult {
	r := model.AcademicResult{
		UserID:         "u1",
		CourseID:       c.ID,
		Course:         c,
		AssessmentType: "exam",
		Score:          score,
		MaxScore:       100,
		Semester:       semester,
		Date:           date(when),
	}
	r.ID = model.GenerateUUID()
	r.DerivePercentage()
	return r
}

func TestPercentageToGPA(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 0},
		{50, 2.5},
		{80, 4},
		{100, 5},
	}
	for _, tt := range tests {
		if got := PercentageToGPA(tt.pct); !approx(got, tt.want) {
			t.Errorf("PercentageToGPA(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestCumulativeGPA(t *testing.T) {
	tests := []struct {
		name    string
		results []model.GradedResult
		want    float64
	}{
		{"empty", nil, 0},
		{"no percentages", []model.GradedResult{{Credits: 3}}, 0},
		{
			"credit weighted",
			[]model.GradedResult{
				{Percentage: floatPtr(70), Credits: 3},
				{Percentage: floatPtr(60), Credits: 4},
			},
			3.21,
		},
		{
			"zero credits default to three",
			[]model.GradedResult{
				{Percentage: floatPtr(60), Credits: 0},
				{Percentage: floatPtr(70), Credits: 3},
			},
			3.25,
		},
		{"capped at four", []model.GradedResult{{Percentage: floatPtr(95), Credits: 3}}, MaxGPA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CumulativeGPA(tt.results); !approx(got, tt.want) {
				t.Errorf("CumulativeGPA = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		prior, current float64
		want           model.PerformanceTrend
	}{
		{3.0, 3.2, model.TrendImproving},
		{3.2, 3.0, model.TrendDeclining},
		{3.0, 3.05, model.TrendStable},
		{3.0, 3.0, model.TrendStable},
	}
	for _, tt := range tests {
		if got := TrendDirection(tt.prior, tt.current); got != tt.want {
			t.Errorf("TrendDirection(%v, %v) = %s, want %s", tt.prior, tt.current, got, tt.want)
		}
	}
}

func TestSubjectPerformance(t *testing.T) {
	math := course("c1", "Math", 4)
	bio := course("c2", "Biology", 3)
	results := []model.AcademicResult{
		result(math, "Fall 2023", "2023-09-10", 60),
		result(bio, "Fall 2023", "2023-09-12", 80),
		result(math, "Fall 2023", "2023-10-10", 70),
		result(bio, "Fall 2023", "2023-10-12", 78),
		result(math, "Spring 2024", "2024-02-10", 90),
	}

	perf := SubjectPerformance(results, "Fall 2023")
	if len(perf) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(perf))
	}
	if perf[0].CourseName != "Math" || !approx(perf[0].AveragePercentage, 65) ||
		perf[0].TotalAssessments != 2 || perf[0].Trend != model.TrendImproving {
		t.Errorf("unexpected math performance %+v", perf[0])
	}
	if perf[1].CourseName != "Biology" || !approx(perf[1].AveragePercentage, 79) || perf[1].Trend != model.TrendStable {
		t.Errorf("unexpected biology performance %+v", perf[1])
	}

	all := SubjectPerformance(results, "")
	if all[0].TotalAssessments != 3 || !approx(all[0].AveragePercentage, 73.3) {
		t.Errorf("unexpected unfiltered math performance %+v", all[0])
	}
}

func TestPerformanceService_GetGpaTrend(t *testing.T) {
	math := course("c1", "Math", 4)
	bio := course("c2", "Biology", 0)
	repo := &memResults{results: []model.AcademicResult{
		result(math, "Spring 2024", "2024-02-10", 70),
		result(math, "Fall 2023", "2023-09-10", 60),
		result(bio, "Fall 2023", "2023-09-12", 70),
	}}
	svc := NewPerformanceService(repo, newMemCourses())

	trend, err := svc.GetGpaTrend(context.Background(), "u1", PeriodSemester)
	if err != nil {
		t.Fatalf("GetGpaTrend: %v", err)
	}
	if len(trend.Trend) != 2 {
		t.Fatalf("expected 2 points, got %+v", trend.Trend)
	}
	if trend.Trend[0].Period != "Fall 2023" || !approx(trend.Trend[0].GPA, 3.25) || trend.Trend[0].Credits != 7 {
		t.Errorf("unexpected first point %+v", trend.Trend[0])
	}
	if trend.Trend[1].Period != "Spring 2024" || !approx(trend.Trend[1].GPA, 3.5) {
		t.Errorf("unexpected second point %+v", trend.Trend[1])
	}
	if !approx(trend.CurrentGPA, 3.5) || trend.TrendDirection != model.TrendImproving {
		t.Errorf("current = %v direction = %s", trend.CurrentGPA, trend.TrendDirection)
	}
	// (3.0*4 + 3.5*3 + 3.5*4) / 11
	if !approx(trend.CumulativeGPA, 3.32) {
		t.Errorf("cumulative = %v, want 3.32", trend.CumulativeGPA)
	}

	yearly, err := svc.GetGpaTrend(context.Background(), "u1", PeriodYear)
	if err != nil {
		t.Fatalf("GetGpaTrend year: %v", err)
	}
	if yearly.Trend[0].Period != "2023" || yearly.Trend[1].Period != "2024" {
		t.Errorf("unexpected year grouping %+v", yearly.Trend)
	}

	if _, err := svc.GetGpaTrend(context.Background(), "u1", "decade"); !errors.Is(err, util.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPerformanceService_GetGpaTrendHighScores(t *testing.T) {
	math := course("c1", "Math", 4)
	repo := &memResults{results: []model.AcademicResult{
		result(math, "Fall 2023", "2023-09-10", 82),
		result(math, "Spring 2024", "2024-02-10", 98),
	}}
	svc := NewPerformanceService(repo, newMemCourses())

	trend, err := svc.GetGpaTrend(context.Background(), "u1", PeriodSemester)
	if err != nil {
		t.Fatalf("GetGpaTrend: %v", err)
	}
	if len(trend.Trend) != 2 || !approx(trend.Trend[0].GPA, 4.1) || !approx(trend.Trend[1].GPA, 4.9) {
		t.Fatalf("unexpected points %+v", trend.Trend)
	}
	if trend.TrendDirection != model.TrendImproving || !approx(trend.CurrentGPA, 4.9) {
		t.Errorf("current = %v direction = %s", trend.CurrentGPA, trend.TrendDirection)
	}
	// 累计 GPA 仍封顶
	if !approx(trend.CumulativeGPA, MaxGPA) {
		t.Errorf("cumulative = %v, want %v", trend.CumulativeGPA, MaxGPA)
	}
}

func TestPerformanceService_GetGpaTrendEmpty(t *testing.T) {
	svc := NewPerformanceService(&memResults{}, newMemCourses())
	trend, err := svc.GetGpaTrend(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("GetGpaTrend: %v", err)
	}
	if len(trend.Trend) != 0 || trend.CumulativeGPA != 0 || trend.TrendDirection != model.TrendStable {
		t.Errorf("unexpected empty trend %+v", trend)
	}
}

func TestPerformanceService_CreateResult(t *testing.T) {
	courses := newMemCourses(*course("c1", "Math", 4))
	repo := &memResults{}
	svc := NewPerformanceService(repo, courses)
	ctx := context.Background()

	r, err := svc.CreateResult(ctx, "u1", CreateResultInput{CourseID: "c1", AssessmentType: "quiz", Score: 45, MaxScore: 60, Semester: "Fall 2023", Date: date("2023-10-01")})
	if err != nil {
		t.Fatalf("CreateResult: %v", err)
	}
	if r.Percentage == nil || !approx(*r.Percentage, 75) {
		t.Errorf("percentage = %v, want 75", r.Percentage)
	}

	r, err = svc.CreateResult(ctx, "u1", CreateResultInput{CourseID: "c1", AssessmentType: "quiz", Score: 88, Semester: "Fall 2023", Date: date("2023-10-02")})
	if err != nil {
		t.Fatalf("CreateResult default max: %v", err)
	}
	if r.MaxScore != 100 || !approx(*r.Percentage, 88) {
		t.Errorf("expected default max 100, got %v (%v)", r.MaxScore, *r.Percentage)
	}

	if _, err := svc.CreateResult(ctx, "u1", CreateResultInput{CourseID: "c1", Score: 70, MaxScore: 60}); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}
	if _, err := svc.CreateResult(ctx, "u1", CreateResultInput{CourseID: "c1", Score: -1}); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore for negative score, got %v", err)
	}
	if _, err := svc.CreateResult(ctx, "u2", CreateResultInput{CourseID: "c1", Score: 10}); !errors.Is(err, util.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound for another user's course, got %v", err)
	}
	if len(repo.results) != 2 {
		t.Errorf("expected 2 stored results, got %d", len(repo.results))
	}

	if err := svc.DeleteResult(ctx, "u1", repo.results[0].ID); err != nil {
		t.Errorf("DeleteResult: %v", err)
	}
	if err := svc.DeleteResult(ctx, "u1", "missing"); !errors.Is(err, util.ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}
}
