package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/mother-community/pkg/mailer"
	mailtpl "github.com/oksasatya/mother-community/pkg/mailer/templates"
)

type recordingSender struct {
	to, subject, text, html string
	err                     error
}

func (r *recordingSender) Send(_ context.Context, to, subject, text, html string) error {
	r.to, r.subject, r.text, r.html = to, subject, text, html
	return r.err
}

func TestHandle_RendersTemplate(t *testing.T) {
	body, err := json.Marshal(mailer.EmailJob{
		To:       "anna@example.com",
		Template: mailtpl.Welcome,
		Data:     map[string]any{"Name": "Anna", "AppName": "Mütter-Community", "AppURL": "https://example.com"},
	})
	require.NoError(t, err)

	s := &recordingSender{}
	require.NoError(t, handle(context.Background(), s, body))
	assert.Equal(t, "anna@example.com", s.to)
	assert.NotEmpty(t, s.subject)
	assert.Contains(t, s.html, "Anna")
}

func TestHandle_PlainJob(t *testing.T) {
	body, _ := json.Marshal(mailer.EmailJob{To: "a@example.com", Subject: "Hallo", Text: "Text"})
	s := &recordingSender{}
	require.NoError(t, handle(context.Background(), s, body))
	assert.Equal(t, "Hallo", s.subject)
	assert.Equal(t, "Text", s.text)
}

func TestHandle_PermanentFailures(t *testing.T) {
	s := &recordingSender{}
	assert.ErrorIs(t, handle(context.Background(), s, []byte("{not json")), errBadJob)

	body, _ := json.Marshal(mailer.EmailJob{Subject: "no recipient"})
	assert.ErrorIs(t, handle(context.Background(), s, body), errBadJob)

	body, _ = json.Marshal(mailer.EmailJob{To: "a@example.com", Template: "does_not_exist"})
	assert.ErrorIs(t, handle(context.Background(), s, body), errBadJob)
	assert.Empty(t, s.to)
}

func TestHandle_SendErrorIsRetryable(t *testing.T) {
	body, _ := json.Marshal(mailer.EmailJob{To: "a@example.com", Subject: "x", Text: "y"})
	s := &recordingSender{err: errors.New("mailgun 503")}
	err := handle(context.Background(), s, body)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBadJob)
}
