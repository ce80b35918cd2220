package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
)

type SMTPTransport struct {
	host string
	port int
	user string
	pass string
	from Sender
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPTransport(host string, port int, user, pass string, from Sender) *SMTPTransport {
	return &SMTPTransport{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
		send: smtp.SendMail,
	}
}

func (t *SMTPTransport) Name() string { return DriverSMTP }

func (t *SMTPTransport) buildMessage(msg *Message) []byte {
	from := mail.Address{Name: t.from.Name, Address: t.from.Address}
	to := mail.Address{Name: msg.ToName, Address: msg.To}
	headers := []string{
		fmt.Sprintf("From: %s", from.String()),
		fmt.Sprintf("To: %s", to.String()),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.HTMLBody)
}

func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if t.user != "" {
		auth = smtp.PlainAuth("", t.user, t.pass, t.host)
	}
	addr := fmt.Sprintf("%s:%d", t.host, t.port)

	if err := t.send(addr, auth, t.from.Address, []string{msg.To}, t.buildMessage(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}
