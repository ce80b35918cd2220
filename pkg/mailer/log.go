package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport 开发模式下只记录日志，不真正发送
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogTransport{log: log.Named("mailer")}
}

func (t *LogTransport) Name() string { return DriverLog }

func (t *LogTransport) Send(ctx context.Context, msg *Message) error {
	t.log.Info("dev email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)))
	t.log.Debug("dev email body", zap.String("body", msg.HTMLBody))
	return nil
}
