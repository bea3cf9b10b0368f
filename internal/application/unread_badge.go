package application

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

// UnreadCounter is satisfied by *MessageService.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, viewerID string) (int, error)
}

// UnreadBadge tracks how many messages addressed to the viewer are unread.
type UnreadBadge struct {
	viewerID string
	counter  UnreadCounter
	feed     repo.Feed
	logger   *logrus.Logger

	mu    sync.Mutex
	count int
}

func NewUnreadBadge(counter UnreadCounter, feed repo.Feed, viewerID string, logger *logrus.Logger) *UnreadBadge {
	return &UnreadBadge{viewerID: viewerID, counter: counter, feed: feed, logger: logger}
}

func (b *UnreadBadge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Refresh recomputes the count from the store.
func (b *UnreadBadge) Refresh(ctx context.Context) (int, error) {
	n, err := b.counter.UnreadCount(ctx, b.viewerID)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	b.count = n
	b.mu.Unlock()
	return n, nil
}

// Watch recomputes the count once and again after every event on the
// viewer's inbox topic, passing each value to onChange. It blocks until ctx
// ends or the feed closes and always unsubscribes before returning.
func (b *UnreadBadge) Watch(ctx context.Context, onChange func(int)) error {
	sub, err := b.feed.Subscribe(ctx, repo.InboxTopic(b.viewerID))
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	n, err := b.Refresh(ctx)
	if err != nil {
		return err
	}
	onChange(n)

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			n, err := b.Refresh(ctx)
			if err != nil {
				if b.logger != nil && ctx.Err() == nil {
					b.logger.WithError(err).WithField("user_id", b.viewerID).Warn("refresh unread count failed")
				}
				continue
			}
			onChange(n)
		}
	}
}
