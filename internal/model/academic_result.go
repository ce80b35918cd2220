package model

import (
	"time"

	"focustrack_backend/internal/util"

	"gorm.io/gorm"
)

type AcademicResult struct {
	SoftDeleteUUIDBase
	UserID         string    `gorm:"type:varchar(36);index:idx_results_user_course,priority:1;not null" json:"user_id"`
	CourseID       string    `gorm:"type:varchar(36);index:idx_results_user_course,priority:2;not null" json:"course_id"`
	Course         *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	AssessmentType string    `gorm:"size:100;not null" json:"assessment_type"`
	AssessmentName string    `gorm:"size:255" json:"assessment_name"`
	Score          float64   `gorm:"type:decimal(6,2);not null" json:"score"`
	MaxScore       float64   `gorm:"type:decimal(6,2);default:100" json:"max_score"`
	Percentage     *float64  `gorm:"type:decimal(5,2)" json:"percentage"`
	Grade          string    `gorm:"size:5" json:"grade"`
	Weight         *float64  `gorm:"type:decimal(5,2)" json:"weight"`
	Semester       string    `gorm:"size:100;index;not null" json:"semester"`
	Date           time.Time `gorm:"type:date;index;not null" json:"date"`
	Notes          string    `gorm:"type:text" json:"notes"`
}

func (AcademicResult) TableName() string {
	return "academic_results"
}

// Validate 分数必须满足 0 <= score <= max_score 且 max_score > 0
func (r *AcademicResult) Validate() error {
	if r.MaxScore <= 0 || r.Score < 0 || r.Score > r.MaxScore {
		return util.ErrInvalidScore
	}
	return nil
}

// DerivePercentage 由 score / max_score 重新计算百分比
func (r *AcademicResult) DerivePercentage() {
	if r.MaxScore <= 0 {
		r.Percentage = nil
		return
	}
	pct := util.Round(r.Score/r.MaxScore*100, 2)
	r.Percentage = &pct
}

func (r *AcademicResult) BeforeSave(tx *gorm.DB) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.DerivePercentage()
	return nil
}

// GradedResult GPA 计算使用的扁平结构
type GradedResult struct {
	CourseID   string
	CourseName string
	Percentage *float64
	Credits    int
	Semester   string
	Date       time.Time
}

// Graded 将成绩记录展开为 GPA 计算输入，需预加载 Course
func (r *AcademicResult) Graded() GradedResult {
	g := GradedResult{
		CourseID:   r.CourseID,
		Percentage: r.Percentage,
		Credits:    r.Course.EffectiveCredits(),
		Semester:   r.Semester,
		Date:       r.Date,
	}
	if r.Course != nil {
		g.CourseName = r.Course.Name
	}
	return g
}
