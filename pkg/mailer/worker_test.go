package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-api/pkg/helpers"
	mailtpl "github.com/oksasatya/go-event-api/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sent{to, subject, text, html})
	return nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestWorker_SendsPlainJob(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, helpers.NewNopLogger(), time.Second)

	d := w.Process(context.Background(), mustJSON(t, EmailJob{To: "a@x.com", Subject: "hi", HTML: "<p>1234</p>"}))
	assert.Equal(t, Ack, d)
	require.Len(t, s.got, 1)
	assert.Equal(t, sent{"a@x.com", "hi", "", "<p>1234</p>"}, s.got[0])
}

func TestWorker_RendersVerifyCodeTemplate(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, helpers.NewNopLogger(), time.Second)

	job := EmailJob{
		To:       "a@x.com",
		Template: mailtpl.VerifyCode,
		Data: map[string]any{
			"Email":     "a@x.com",
			"Code":      "4821",
			"AppName":   "event-api",
			"ExpiresAt": time.Date(2024, 7, 15, 10, 5, 0, 0, time.UTC),
		},
	}
	require.Equal(t, Ack, w.Process(context.Background(), mustJSON(t, job)))
	require.Len(t, s.got, 1)
	assert.Contains(t, s.got[0].text, "4821")
	assert.Contains(t, s.got[0].html, "4821")
	assert.NotEmpty(t, s.got[0].subject)
}

func TestWorker_DropsUnprocessable(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, helpers.NewNopLogger(), time.Second)

	assert.Equal(t, Drop, w.Process(context.Background(), []byte("{not json")))
	assert.Equal(t, Drop, w.Process(context.Background(), mustJSON(t, EmailJob{Subject: "no recipient", HTML: "x"})))
	assert.Equal(t, Drop, w.Process(context.Background(), mustJSON(t, EmailJob{To: "a@x.com"})))
	assert.Equal(t, Drop, w.Process(context.Background(), mustJSON(t, EmailJob{To: "a@x.com", Template: "nope"})))
	assert.Equal(t, Drop, w.Process(context.Background(), mustJSON(t, EmailJob{To: "a@x.com", Template: mailtpl.VerifyCode})))
	assert.Empty(t, s.got)
}

func TestWorker_RetriesSendFailure(t *testing.T) {
	w := NewWorker(&fakeSender{err: errors.New("mailgun 503")}, helpers.NewNopLogger(), time.Second)
	assert.Equal(t, Retry, w.Process(context.Background(), mustJSON(t, EmailJob{To: "a@x.com", HTML: "x"})))
	assert.Equal(t, "retry", Retry.String())
}
