// Package mailer 邮件发送通道，按配置选择 sendgrid / smtp / log 实现
package mailer

import (
	"context"
	"fmt"

	"focustrack_backend/internal/config"

	"go.uber.org/zap"
)

const (
	DriverSendgrid = "sendgrid"
	DriverSMTP     = "smtp"
	DriverLog      = "log"
)

// Message 一封已渲染完成的邮件
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Transport 邮件发送通道
type Transport interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// Sender 邮件发件人信息
type Sender struct {
	Address string
	Name    string
}

// New 根据 mail.driver 创建发送通道
func New(cfg config.MailConfig, log *zap.Logger) (Transport, error) {
	from := Sender{Address: cfg.FromAddress, Name: cfg.FromName}
	switch cfg.Driver {
	case DriverSendgrid:
		return NewSendgridTransport(cfg.SendgridAPIKey, from), nil
	case DriverSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail driver smtp requires mail.smtp_host")
		}
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, from), nil
	case DriverLog, "":
		return NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}
