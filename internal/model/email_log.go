package model

import (
	"time"

	"gorm.io/datatypes"
)

type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
	EmailBounced EmailStatus = "bounced"
)

// 邮件类型
const (
	EmailTypeMorningPlan  = "morning-plan"
	EmailTypeWeeklyReport = "weekly-report"
	EmailTypeReminder     = "reminder"
)

// EmailLog 每次发送尝试一条记录，创建后仅允许 pending -> sent|failed
type EmailLog struct {
	UUIDBase
	UserID         *string        `gorm:"type:varchar(36);index" json:"user_id"`
	EmailType      string         `gorm:"size:50;index;not null" json:"email_type"`
	RecipientEmail string         `gorm:"size:255;not null" json:"recipient_email"`
	Subject        string         `gorm:"size:500;not null" json:"subject"`
	Status         EmailStatus    `gorm:"size:20;default:'pending';index" json:"status"`
	SentAt         *time.Time     `gorm:"index" json:"sent_at"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
}

func (EmailLog) TableName() string {
	return "email_logs"
}
