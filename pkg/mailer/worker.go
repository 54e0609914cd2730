package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-event-api/pkg/mailer/templates"
)

// Disposition tells the queue consumer what to do with a delivery.
type Disposition int

const (
	Ack   Disposition = iota // sent
	Drop                     // malformed, never retry
	Retry                    // transient failure, requeue
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	default:
		return "retry"
	}
}

// Sender delivers a rendered message. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Worker turns queued EmailJobs into sends.
type Worker struct {
	sender  Sender
	logger  *logrus.Logger
	timeout time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Worker{sender: sender, logger: logger, timeout: timeout}
}

// Process handles one raw queue message.
func (w *Worker) Process(ctx context.Context, body []byte) Disposition {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad email job")
		return Drop
	}
	subject, text, html, err := renderJob(job)
	if err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Warn("email job not renderable")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("to", job.To).Error("email send failed")
		return Retry
	}
	w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return Ack
}

func renderJob(job EmailJob) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", errors.New("job has no recipient")
	}
	if job.Template == "" {
		if job.Text == "" && job.HTML == "" {
			return "", "", "", errors.New("job has no body")
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	data, err := templateData(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	subject, text, html, err = mailtpl.Render(job.Template, data)
	if err != nil {
		return "", "", "", err
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	return subject, text, html, nil
}

// templateData converts the loose JSON map into the typed data a template expects.
func templateData(name string, raw map[string]any) (any, error) {
	switch name {
	case mailtpl.VerifyCode:
		var d mailtpl.VerifyCodeData
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &d); err != nil {
			return nil, fmt.Errorf("verify_code data: %w", err)
		}
		if d.Code == "" {
			return nil, errors.New("verify_code data: missing Code")
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown template %q", name)
	}
}
