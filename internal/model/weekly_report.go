package model

import (
	"time"

	"gorm.io/datatypes"
)

type PerformanceTrend string

const (
	TrendImproving PerformanceTrend = "improving"
	TrendDeclining PerformanceTrend = "declining"
	TrendStable    PerformanceTrend = "stable"
)

// WeeklyReport 每个用户每周一份，(user_id, week_start_date) 唯一
type WeeklyReport struct {
	UUIDBase
	UserID               string           `gorm:"type:varchar(36);uniqueIndex:uk_weekly_reports_user_week,priority:1;not null" json:"user_id"`
	WeekStartDate        time.Time        `gorm:"type:date;uniqueIndex:uk_weekly_reports_user_week,priority:2;not null" json:"week_start_date"`
	WeekEndDate          time.Time        `gorm:"type:date;not null" json:"week_end_date"`
	TotalStudyHours      float64          `gorm:"type:decimal(6,2);default:0" json:"total_study_hours"`
	PlannedHours         float64          `gorm:"type:decimal(6,2);default:0" json:"planned_hours"`
	CompletionRate       float64          `gorm:"type:decimal(5,2);default:0" json:"completion_rate"`
	MostStudiedCourseID  *string          `gorm:"type:varchar(36)" json:"most_studied_course_id"`
	LeastStudiedCourseID *string          `gorm:"type:varchar(36)" json:"least_studied_course_id"`
	PerformanceTrend     PerformanceTrend `gorm:"size:20" json:"performance_trend"`
	AIInsights           string           `gorm:"type:text" json:"ai_insights"`
	ReportData           datatypes.JSON   `json:"report_data,omitempty"`
	GeneratedAt          time.Time        `gorm:"index" json:"generated_at"`
	EmailSentAt          *time.Time       `json:"email_sent_at"`
}

func (WeeklyReport) TableName() string {
	return "weekly_reports"
}

// CourseRef 报告中引用的课程
type CourseRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// WeeklyReportView 周报接口返回结构
type WeeklyReportView struct {
	ID                 string           `json:"id"`
	WeekStartDate      string           `json:"week_start_date"`
	WeekEndDate        string           `json:"week_end_date"`
	TotalStudyHours    float64          `json:"total_study_hours"`
	PlannedHours       float64          `json:"planned_hours"`
	CompletionRate     float64          `json:"completion_rate"`
	MostStudiedCourse  *CourseRef       `json:"most_studied_course"`
	LeastStudiedCourse *CourseRef       `json:"least_studied_course"`
	PerformanceTrend   PerformanceTrend `json:"performance_trend"`
	DailyBreakdown     []DailyBreakdown `json:"daily_breakdown"`
	AIInsights         string           `json:"ai_insights"`
	GeneratedAt        string           `json:"generated_at"`
	EmailSentAt        *time.Time       `json:"email_sent_at"`
}
