package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/mother-community/config"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/mailer"
)

type messageFixture struct {
	svc      *MessageService
	messages *fakeMessages
	feed     *fakeFeed
	jobs     *fakeJobs
}

func newMessageFixture() messageFixture {
	f := messageFixture{messages: &fakeMessages{}, feed: &fakeFeed{}, jobs: &fakeJobs{}}
	users := newFakeUsers(
		&entity.User{ID: "anna", Email: "anna@example.com"},
		&entity.User{ID: "bea", Email: "bea@example.com"},
	)
	profiles := newFakeProfiles(
		entity.Profile{ID: "anna", FullName: strp("Anna")},
		entity.Profile{ID: "bea", FullName: strp("Bea")},
	)
	n := NewNotifier(f.jobs, &config.Config{MailSendEnabled: true, AppURL: "https://app.test"}, nil)
	f.svc = NewMessageService(f.messages, users, profiles, f.feed, n, nil)
	f.svc.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestSend_RejectsEmptyContent(t *testing.T) {
	f := newMessageFixture()
	_, err := f.svc.Send(context.Background(), "anna", "bea", "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, f.messages.msgs)
	assert.Empty(t, f.feed.Published())
}

func TestSend_RejectsUnknownReceiverAndSelf(t *testing.T) {
	f := newMessageFixture()
	_, err := f.svc.Send(context.Background(), "anna", "ghost", "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.Send(context.Background(), "anna", "anna", "hi")
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestSend_PublishesAndNotifies(t *testing.T) {
	f := newMessageFixture()
	m, err := f.svc.Send(context.Background(), "anna", "bea", "  Hallo Bea  ")
	require.NoError(t, err)
	assert.Equal(t, "Hallo Bea", m.Content)
	assert.Equal(t, "Anna", m.SenderName)
	assert.Nil(t, m.ReadAt)

	pub := f.feed.Published()
	require.Len(t, pub, 2)
	assert.Equal(t, repo.ConversationTopic("bea", "anna"), pub[0].Topic)
	assert.Equal(t, repo.InboxTopic("bea"), pub[1].Topic)
	assert.Equal(t, entity.MessageInserted, pub[0].Event.Type)
	assert.Equal(t, m.ID, pub[0].Event.Message.ID)

	require.Len(t, f.jobs.jobs, 1)
	job := f.jobs.jobs[0].(mailer.EmailJob)
	assert.Equal(t, "bea@example.com", job.To)
	assert.Equal(t, "new_message", job.Template)
	assert.Equal(t, "https://app.test/messages/anna", job.Data["ThreadURL"])
}

func TestMarkRead_IsMonotonic(t *testing.T) {
	f := newMessageFixture()
	m, err := f.svc.Send(context.Background(), "anna", "bea", "hi")
	require.NoError(t, err)

	changed, err := f.svc.MarkRead(context.Background(), "bea", []string{m.ID})
	require.NoError(t, err)
	require.Len(t, changed, 1)
	first := *changed[0].ReadAt

	f.svc.Now = func() time.Time { return first.Add(time.Hour) }
	changed, err = f.svc.MarkRead(context.Background(), "bea", []string{m.ID})
	require.NoError(t, err)
	assert.Empty(t, changed)

	msgs, _ := f.svc.Conversation(context.Background(), "anna", "bea")
	assert.True(t, msgs[0].ReadAt.Equal(first))
}

func TestMarkRead_OnlyForReceiver(t *testing.T) {
	f := newMessageFixture()
	m, _ := f.svc.Send(context.Background(), "anna", "bea", "hi")
	changed, err := f.svc.MarkRead(context.Background(), "anna", []string{m.ID})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestMarkConversationRead_PublishesUpdates(t *testing.T) {
	f := newMessageFixture()
	_, _ = f.svc.Send(context.Background(), "anna", "bea", "one")
	_, _ = f.svc.Send(context.Background(), "anna", "bea", "two")
	_, _ = f.svc.Send(context.Background(), "bea", "anna", "reply")

	n, err := f.svc.UnreadCount(context.Background(), "bea")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	changed, err := f.svc.MarkConversationRead(context.Background(), "bea", "anna")
	require.NoError(t, err)
	assert.Len(t, changed, 2)

	updates := 0
	for _, p := range f.feed.Published() {
		if p.Event.Type == entity.MessageUpdated {
			updates++
		}
	}
	assert.Equal(t, 4, updates, "two messages on two topics each")

	n, _ = f.svc.UnreadCount(context.Background(), "bea")
	assert.Zero(t, n)
}

func TestInbox_AnonymousSender(t *testing.T) {
	f := newMessageFixture()
	f.messages.msgs = append(f.messages.msgs, entity.Message{ID: "x", SenderID: "gone", ReceiverID: "bea", Content: "hi"})
	msgs, err := f.svc.Inbox(context.Background(), "bea")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, AnonymousSender, msgs[0].SenderName)
}
