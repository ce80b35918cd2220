package model

const (
	DefaultCredits = 3
	MinCredits     = 1
	MaxCredits     = 6
)

type Course struct {
	SoftDeleteUUIDBase
	UserID       string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Code         string `gorm:"size:50;not null" json:"code"`
	Credits      int    `gorm:"default:3" json:"credits"`
	Instructor   string `gorm:"size:255" json:"instructor"`
	Color        string `gorm:"size:50;default:'blue'" json:"color"`
	Semester     string `gorm:"size:100;index;not null" json:"semester"`
	AcademicYear string `gorm:"size:20" json:"academic_year"`
	Description  string `gorm:"type:text" json:"description"`
	IsActive     bool   `gorm:"default:true;index" json:"is_active"`
}

func (Course) TableName() string {
	return "courses"
}

// EffectiveCredits GPA 加权时使用的学分，未设置时按 3 学分计
func (c *Course) EffectiveCredits() int {
	if c == nil || c.Credits <= 0 {
		return DefaultCredits
	}
	return c.Credits
}
