package application

import (
	"context"
	"errors"
	"expvar"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

var messagesSentTotal = expvar.NewInt("messages_sent_total")

// AnonymousSender labels inbox messages whose sender has no name.
const AnonymousSender = "Anonymer Absender"

type MessageService struct {
	Messages  repo.MessageRepository
	Users     repo.UserRepository
	Profiles  repo.ProfileStore
	Publisher repo.RealtimePublisher
	Notifier  *Notifier
	Logger    *logrus.Logger
	Now       func() time.Time
}

func NewMessageService(messages repo.MessageRepository, users repo.UserRepository, profiles repo.ProfileStore, publisher repo.RealtimePublisher, notifier *Notifier, logger *logrus.Logger) *MessageService {
	return &MessageService{
		Messages:  messages,
		Users:     users,
		Profiles:  profiles,
		Publisher: publisher,
		Notifier:  notifier,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Send stores a message and announces it on the conversation and on the
// receiver's inbox topic.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	receiver, err := s.Users.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	m := &entity.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	messagesSentTotal.Add(1)

	m.SenderName = s.nameOf(ctx, senderID)
	s.publish(ctx, entity.MessageInserted, *m)

	s.Notifier.NewMessage(ctx, receiver.Email, s.nameOf(ctx, receiverID), m.SenderName, m.Content, senderID)
	return m, nil
}

func (s *MessageService) Conversation(ctx context.Context, viewerID, peerID string) ([]entity.Message, error) {
	return s.Messages.ListConversation(ctx, viewerID, peerID)
}

// Inbox lists received messages, newest first.
func (s *MessageService) Inbox(ctx context.Context, viewerID string) ([]entity.Message, error) {
	msgs, err := s.Messages.ListInbox(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if strings.TrimSpace(msgs[i].SenderName) == "" {
			msgs[i].SenderName = AnonymousSender
		}
	}
	return msgs, nil
}

// MarkRead sets the read timestamp on the given messages addressed to the
// viewer that are still unread. Already read messages are left alone.
func (s *MessageService) MarkRead(ctx context.Context, viewerID string, ids []string) ([]entity.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	changed, err := s.Messages.MarkRead(ctx, viewerID, ids, s.now().UTC())
	if err != nil {
		return nil, err
	}
	for _, m := range changed {
		s.publish(ctx, entity.MessageUpdated, m)
	}
	return changed, nil
}

// MarkConversationRead marks every unread message from peerID to the viewer.
func (s *MessageService) MarkConversationRead(ctx context.Context, viewerID, peerID string) ([]entity.Message, error) {
	msgs, err := s.Messages.ListConversation(ctx, viewerID, peerID)
	if err != nil {
		return nil, err
	}
	return s.MarkRead(ctx, viewerID, UnreadIDs(msgs, viewerID))
}

func (s *MessageService) UnreadCount(ctx context.Context, viewerID string) (int, error) {
	return s.Messages.CountUnread(ctx, viewerID)
}

func (s *MessageService) publish(ctx context.Context, kind string, m entity.Message) {
	if s.Publisher == nil {
		return
	}
	evt := entity.MessageEvent{Type: kind, Message: m}
	for _, topic := range []string{repo.ConversationTopic(m.SenderID, m.ReceiverID), repo.InboxTopic(m.ReceiverID)} {
		if err := s.Publisher.Publish(ctx, topic, evt); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"topic": topic, "message_id": m.ID}).Warn("publish message event failed")
		}
	}
}

func (s *MessageService) nameOf(ctx context.Context, userID string) string {
	if s.Profiles == nil {
		return ""
	}
	p, err := s.Profiles.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return entity.Deref(p.FullName)
}

func (s *MessageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// UnreadIDs returns the ids of messages addressed to viewerID without a read
// timestamp, in list order.
func UnreadIDs(msgs []entity.Message, viewerID string) []string {
	var ids []string
	for _, m := range msgs {
		if m.IsUnreadFor(viewerID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// CountUnread counts messages addressed to viewerID without a read timestamp.
func CountUnread(msgs []entity.Message, viewerID string) int {
	n := 0
	for _, m := range msgs {
		if m.IsUnreadFor(viewerID) {
			n++
		}
	}
	return n
}
