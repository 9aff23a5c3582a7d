package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []SendEmailPayload
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return m.err
}

func emailTask(t *testing.T, payload SendEmailPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TaskTypeSendEmail, data)
}

func TestSendEmailJobDelivers(t *testing.T) {
	mailer := &recordingMailer{}
	job := &SendEmailJob{Mailer: mailer}

	err := job.Handle(context.Background(), emailTask(t, SendEmailPayload{
		To:      "analyst@meridian.local",
		Subject: "Task due soon",
		Body:    "PDP-2026: review control mapping",
	}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "analyst@meridian.local", mailer.sent[0].To)
	assert.Equal(t, "Task due soon", mailer.sent[0].Subject)
}

func TestSendEmailJobSkipsMalformedPayload(t *testing.T) {
	mailer := &recordingMailer{}
	job := &SendEmailJob{Mailer: mailer}

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, mailer.sent)
}

func TestSendEmailJobSkipsEmptyRecipient(t *testing.T) {
	mailer := &recordingMailer{}
	job := &SendEmailJob{Mailer: mailer}

	err := job.Handle(context.Background(), emailTask(t, SendEmailPayload{Subject: "no recipient"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, mailer.sent)
}

func TestSendEmailJobWrapsMailerFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("relay down")}
	job := &SendEmailJob{Mailer: mailer}

	err := job.Handle(context.Background(), emailTask(t, SendEmailPayload{To: "a@b.c"}))
	assert.ErrorContains(t, err, "relay down")
}

func TestSMTPMailerRejectsMissingConfig(t *testing.T) {
	var mailer *SMTPMailer
	assert.Error(t, mailer.Send(context.Background(), "a@b.c", "s", "b"))

	empty := &SMTPMailer{From: "no-reply@meridian.local"}
	assert.Error(t, empty.Send(context.Background(), "a@b.c", "s", "b"))
}
