package mailer

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// JSONPublisher is the part of helpers.RabbitPublisher the queue transport needs.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueMailer hands messages to the email worker through RabbitMQ.
// A nil error means the broker accepted the job, not that the mail was delivered.
type QueueMailer struct {
	pub JSONPublisher
}

func NewQueueMailer(pub JSONPublisher) *QueueMailer {
	return &QueueMailer{pub: pub}
}

func (q *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	if q.pub == nil {
		return errors.New("mail queue not configured")
	}
	return q.pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, HTML: body})
}

// MailgunMailer sends synchronously through Mailgun; the body is sent as HTML.
type MailgunMailer struct {
	mg *Mailgun
}

func NewMailgunMailer(m *Mailgun) *MailgunMailer {
	return &MailgunMailer{mg: m}
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.mg.Send(ctx, to, subject, "", body)
}

// LogMailer only logs outgoing mail. Used when MAIL_SEND_ENABLED=false or MAIL_TRANSPORT=log.
type LogMailer struct {
	log *logrus.Logger
}

func NewLogMailer(log *logrus.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(_ context.Context, to, subject, body string) error {
	l.log.WithFields(logrus.Fields{
		"to":       to,
		"subject":  subject,
		"body_len": len(body),
	}).Info("mail send disabled, message logged")
	return nil
}
