package repository

import (
	"context"
	"time"

	"github.com/oksasatya/mother-community/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, m *entity.Message) error
	// ListConversation returns messages between a and b in both directions,
	// oldest first.
	ListConversation(ctx context.Context, a, b string) ([]entity.Message, error)
	// ListInbox returns messages received by receiverID, newest first, with
	// SenderName filled in.
	ListInbox(ctx context.Context, receiverID string) ([]entity.Message, error)
	// MarkRead sets read_at on the given messages addressed to receiverID that
	// are still unread and returns the rows it changed.
	MarkRead(ctx context.Context, receiverID string, ids []string, at time.Time) ([]entity.Message, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
}
