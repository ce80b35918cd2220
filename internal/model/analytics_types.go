package model

// DailyBreakdown 单日计划与实际学习时长
type DailyBreakdown struct {
	Date           string  `json:"date"`
	PlannedHours   float64 `json:"planned_hours"`
	ActualHours    float64 `json:"actual_hours"`
	CompletionRate float64 `json:"completion_rate"`
}

// CourseHours 课程学习时长，按首次出现的顺序排列
type CourseHours struct {
	CourseID string  `json:"course_id"`
	Hours    float64 `json:"hours"`
}

// StudyMetrics 时间窗口内的聚合结果
type StudyMetrics struct {
	From                 string           `json:"from"`
	To                   string           `json:"to"`
	TotalStudyHours      float64          `json:"total_study_hours"`
	PlannedHours         float64          `json:"planned_hours"`
	CompletionRate       float64          `json:"completion_rate"`
	TotalPlans           int              `json:"total_plans"`
	CompletedPlans       int              `json:"completed_plans"`
	DailyBreakdown       []DailyBreakdown `json:"daily_breakdown"`
	CourseHours          []CourseHours    `json:"course_hours"`
	MostStudiedCourseID  *string          `json:"most_studied_course_id"`
	LeastStudiedCourseID *string          `json:"least_studied_course_id"`
}

// StudyConsistency 学习连续性
type StudyConsistency struct {
	DaysStudied     int     `json:"days_studied"`
	TotalDays       int     `json:"total_days"`
	ConsistencyRate float64 `json:"consistency_rate"`
}

// TimeDistribution 各课程学习时间占比
type TimeDistribution struct {
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"course_name"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

type Analytics struct {
	Metrics          *StudyMetrics      `json:"metrics"`
	Consistency      StudyConsistency   `json:"study_consistency"`
	TimeDistribution []TimeDistribution `json:"time_distribution"`
}

// GpaPoint GPA 趋势中的一个分组
type GpaPoint struct {
	Period  string  `json:"period"`
	GPA     float64 `json:"gpa"`
	Credits int     `json:"credits"`
}

type GpaTrend struct {
	Trend          []GpaPoint       `json:"trend"`
	CurrentGPA     float64          `json:"current_gpa"`
	CumulativeGPA  float64          `json:"cumulative_gpa"`
	TrendDirection PerformanceTrend `json:"trend_direction"`
}

type SubjectPerformance struct {
	CourseID          string           `json:"course_id"`
	CourseName        string           `json:"course_name"`
	AveragePercentage float64          `json:"average_percentage"`
	TotalAssessments  int              `json:"total_assessments"`
	Trend             PerformanceTrend `json:"trend"`
}
