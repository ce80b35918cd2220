package service

import (
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
)

// Aggregate 汇总 [from, to] 闭区间内的学习记录与计划
// 区间按 from 所在时区的自然日计算，未结束的学习记录不计入
func Aggregate(from, to time.Time, sessions []model.StudySession, plans []model.StudyPlan) *model.StudyMetrics {
	loc := from.Location()
	start := util.StartOfDay(from)
	end := util.EndOfDay(to.In(loc))
	days := util.DaysBetween(start, end) + 1
	if days < 1 {
		days = 1
	}

	metrics := &model.StudyMetrics{
		From:           start.Format(util.DateFormat),
		To:             end.Format(util.DateFormat),
		DailyBreakdown: make([]model.DailyBreakdown, 0, days),
		CourseHours:    []model.CourseHours{},
	}

	actualByDay := make(map[string]int, days)
	plannedByDay := make(map[string]int, days)
	courseIndex := make(map[string]int)
	courseMinutes := []int{}

	totalMinutes := 0
	for i := range sessions {
		s := &sessions[i]
		if s.Duration == nil {
			continue
		}
		st := s.StartTime.In(loc)
		if st.Before(start) || st.After(end) {
			continue
		}
		minutes := *s.Duration
		totalMinutes += minutes
		actualByDay[st.Format(util.DateFormat)] += minutes

		if s.CourseID == nil || *s.CourseID == "" {
			continue
		}
		idx, ok := courseIndex[*s.CourseID]
		if !ok {
			idx = len(metrics.CourseHours)
			courseIndex[*s.CourseID] = idx
			metrics.CourseHours = append(metrics.CourseHours, model.CourseHours{CourseID: *s.CourseID})
			courseMinutes = append(courseMinutes, 0)
		}
		courseMinutes[idx] += minutes
	}

	plannedMinutes := 0
	startDay := start.Format(util.DateFormat)
	endDay := end.Format(util.DateFormat)
	for i := range plans {
		p := &plans[i]
		day := p.Date.Format(util.DateFormat)
		if day < startDay || day > endDay {
			continue
		}
		metrics.TotalPlans++
		if p.Status == model.PlanCompleted {
			metrics.CompletedPlans++
		}
		plannedMinutes += p.PlannedDuration
		plannedByDay[day] += p.PlannedDuration
	}

	metrics.TotalStudyHours = util.Round(float64(totalMinutes)/60, 2)
	metrics.PlannedHours = util.Round(float64(plannedMinutes)/60, 2)
	if metrics.TotalPlans > 0 {
		metrics.CompletionRate = util.Round(float64(metrics.CompletedPlans)/float64(metrics.TotalPlans)*100, 2)
	}

	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d).Format(util.DateFormat)
		planned := float64(plannedByDay[day]) / 60
		actual := float64(actualByDay[day]) / 60
		entry := model.DailyBreakdown{
			Date:         day,
			PlannedHours: util.Round(planned, 1),
			ActualHours:  util.Round(actual, 1),
		}
		if planned > 0 {
			entry.CompletionRate = util.Round(actual/planned*100, 1)
		}
		metrics.DailyBreakdown = append(metrics.DailyBreakdown, entry)
	}

	for i := range metrics.CourseHours {
		metrics.CourseHours[i].Hours = util.Round(float64(courseMinutes[i])/60, 2)
	}
	if len(courseMinutes) > 0 {
		most, least := 0, 0
		for i := 1; i < len(courseMinutes); i++ {
			if courseMinutes[i] > courseMinutes[most] {
				most = i
			}
			if courseMinutes[i] < courseMinutes[least] {
				least = i
			}
		}
		metrics.MostStudiedCourseID = util.StringPtr(metrics.CourseHours[most].CourseID)
		metrics.LeastStudiedCourseID = util.StringPtr(metrics.CourseHours[least].CourseID)
	}

	return metrics
}
