package model

// 默认偏好设置，与数据库默认值保持一致
const (
	DefaultMorningEmailTime = "07:00"
	DefaultReminderTime     = "21:00"
	DefaultWeeklyReportDay  = "Sunday"
	DefaultTimezone         = "UTC"
)

// UserPreference 用户通知偏好，驱动所有定时任务的开关
type UserPreference struct {
	UUIDBase
	UserID              string `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	MorningEmailTime    string `gorm:"size:5;default:'07:00'" json:"morning_email_time"`
	ReminderTime        string `gorm:"size:5;default:'21:00'" json:"reminder_time"`
	EmailNotifications  bool   `json:"email_notifications"`
	PushNotifications   bool   `json:"push_notifications"`
	WeeklyReportEnabled bool   `json:"weekly_report_enabled"`
	WeeklyReportDay     string `gorm:"size:20;default:'Sunday'" json:"weekly_report_day"`
	Timezone            string `gorm:"size:50;default:'UTC'" json:"timezone"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

// NewDefaultPreference 返回尚未持久化的默认偏好
func NewDefaultPreference(userID string) *UserPreference {
	return &UserPreference{
		UserID:              userID,
		MorningEmailTime:    DefaultMorningEmailTime,
		ReminderTime:        DefaultReminderTime,
		EmailNotifications:  true,
		PushNotifications:   true,
		WeeklyReportEnabled: true,
		WeeklyReportDay:     DefaultWeeklyReportDay,
		Timezone:            DefaultTimezone,
	}
}
