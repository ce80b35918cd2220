package service

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"focustrack_backend/internal/model"
	"focustrack_backend/internal/util"
	"focustrack_backend/pkg/logger"
	"focustrack_backend/pkg/mailer"
	"focustrack_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 邮件模板名称
const (
	TemplateMorningPlan   = "morning-plan"
	TemplateWeeklyReport  = "weekly-report"
	TemplateStudyReminder = "study-reminder"
)

var templateSubjects = map[string]string{
	TemplateMorningPlan:   "Your Daily Study Plan",
	TemplateWeeklyReport:  "Your Weekly Study Report",
	TemplateStudyReminder: "Don't forget to set your study plan!",
}

//go:embed templates/*.html
var templateFS embed.FS

// PlanLine 晨间邮件中的一条计划
type PlanLine struct {
	CourseName      string
	Topic           string
	StartTime       string
	PlannedDuration int
}

// EmailData 模板渲染参数，按模板使用其中的字段
type EmailData struct {
	Plans  []PlanLine
	Report *model.WeeklyReport
}

type templateView struct {
	Subject string
	AppName string
	AppURL  string
	User    *model.User
	Plans   []PlanLine
	Report  *model.WeeklyReport
}

var templateFuncs = template.FuncMap{
	"button": func(appURL, path, label string) map[string]string {
		return map[string]string{"URL": strings.TrimRight(appURL, "/") + path, "Label": label}
	},
	"footer": func(appName, closing string) map[string]string {
		return map[string]string{"AppName": appName, "Closing": closing}
	},
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(templateSubjects))
	for name := range templateSubjects {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

type EmailService struct {
	transport mailer.Transport
	logs      EmailLogRepository
	templates map[string]*template.Template
	appName   string
	appURL    string
	clock     util.Clock
}

func NewEmailService(transport mailer.Transport, logs EmailLogRepository, appName, appURL string, clock util.Clock) (*EmailService, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &EmailService{
		transport: transport,
		logs:      logs,
		templates: templates,
		appName:   appName,
		appURL:    appURL,
		clock:     clock,
	}, nil
}

// Render 渲染模板，返回主题与 HTML 正文
func (s *EmailService) Render(templateName string, user *model.User, data EmailData) (string, string, error) {
	t, ok := s.templates[templateName]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", util.ErrUnknownTemplate, templateName)
	}
	subject := templateSubjects[templateName]

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, templateName+".html", templateView{
		Subject: subject,
		AppName: s.appName,
		AppURL:  s.appURL,
		User:    user,
		Plans:   data.Plans,
		Report:  data.Report,
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", templateName, err)
	}
	return subject, buf.String(), nil
}

// Send 每次调用恰好写入一条 EmailLog：先 pending，再转为 sent 或 failed
// 渲染或发送失败时记录后把错误返回给调用方
func (s *EmailService) Send(ctx context.Context, user *model.User, emailType, templateName string, data EmailData) (*model.EmailLog, error) {
	subject, ok := templateSubjects[templateName]
	if !ok {
		subject = "Notification"
	}

	meta, _ := json.Marshal(map[string]string{"template": templateName, "transport": s.transport.Name()})
	entry := &model.EmailLog{
		UserID:         util.StringPtr(user.ID),
		EmailType:      emailType,
		RecipientEmail: user.Email,
		Subject:        subject,
		Status:         model.EmailPending,
		Metadata:       datatypes.JSON(meta),
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create email log: %w", err)
	}

	sendErr := s.deliver(ctx, user, templateName, data)

	if sendErr != nil {
		entry.Status = model.EmailFailed
		entry.ErrorMessage = util.StringPtr(sendErr.Error())
	} else {
		now := s.clock.Now().UTC()
		entry.Status = model.EmailSent
		entry.SentAt = &now
	}
	monitoring.EmailsSent.WithLabelValues(emailType, string(entry.Status)).Inc()

	if err := s.logs.UpdateStatus(ctx, entry); err != nil {
		logger.Log.Error("Failed to update email log",
			zap.String("email_log_id", entry.ID),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
		if sendErr == nil {
			return entry, fmt.Errorf("update email log: %w", err)
		}
	}

	if sendErr != nil {
		logger.Log.Warn("Email delivery failed",
			zap.String("user_id", user.ID),
			zap.String("email_type", emailType),
			zap.Error(sendErr))
		return entry, sendErr
	}

	logger.Log.Info("Email sent",
		zap.String("user_id", user.ID),
		zap.String("email_type", emailType))
	return entry, nil
}

func (s *EmailService) deliver(ctx context.Context, user *model.User, templateName string, data EmailData) error {
	subject, body, err := s.Render(templateName, user, data)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.transport.Send(sendCtx, &mailer.Message{
		To:       user.Email,
		ToName:   user.Name,
		Subject:  subject,
		HTMLBody: body,
	})
}
