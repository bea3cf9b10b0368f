package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
)

var ErrConversationClosed = errors.New("conversation closed")

// ConversationStore is what a conversation view needs from messaging.
// *MessageService implements it.
type ConversationStore interface {
	Conversation(ctx context.Context, viewerID, peerID string) ([]entity.Message, error)
	Send(ctx context.Context, senderID, receiverID, content string) (*entity.Message, error)
	MarkRead(ctx context.Context, viewerID string, ids []string) ([]entity.Message, error)
}

// Conversation holds the visible state of a two-party conversation for one
// viewer. Messages keep the order of the initial load followed by arrival
// order; an id is shown at most once.
type Conversation struct {
	viewerID string
	peerID   string
	store    ConversationStore
	feed     repo.Feed
	logger   *logrus.Logger

	// ReadTimeout bounds each background read-marking call.
	ReadTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	order    []string
	byID     map[string]entity.Message
	marking  map[string]struct{}
	onChange func([]entity.Message)
	sub      repo.Subscription
	closed   bool
}

func NewConversation(store ConversationStore, feed repo.Feed, viewerID, peerID string, logger *logrus.Logger) *Conversation {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conversation{
		viewerID:    viewerID,
		peerID:      peerID,
		store:       store,
		feed:        feed,
		logger:      logger,
		ReadTimeout: 10 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		byID:        make(map[string]entity.Message),
		marking:     make(map[string]struct{}),
	}
}

// OnChange registers fn to receive a snapshot after every visible change.
func (c *Conversation) OnChange(fn func([]entity.Message)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Load replaces the state with the stored conversation, oldest first.
func (c *Conversation) Load(ctx context.Context) error {
	msgs, err := c.store.Conversation(ctx, c.viewerID, c.peerID)
	if err != nil {
		return err
	}
	sorted := make([]entity.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	c.mu.Lock()
	c.order = c.order[:0]
	c.byID = make(map[string]entity.Message, len(sorted))
	for _, m := range sorted {
		c.upsertLocked(m)
	}
	c.mu.Unlock()

	c.changed()
	return nil
}

// Subscribe starts applying feed events for this pair until Close.
func (c *Conversation) Subscribe(ctx context.Context) error {
	sub, err := c.feed.Subscribe(ctx, repo.ConversationTopic(c.viewerID, c.peerID))
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sub.Close()
		return ErrConversationClosed
	}
	c.sub = sub
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		for evt := range sub.Events() {
			c.Upsert(evt.Message)
		}
	}()
	return nil
}

// Send creates a message from the viewer to the peer. The stored copy is
// shown immediately; the feed copy arriving later replaces it in place.
func (c *Conversation) Send(ctx context.Context, content string) (*entity.Message, error) {
	m, err := c.store.Send(ctx, c.viewerID, c.peerID, content)
	if err != nil {
		return nil, err
	}
	c.Upsert(*m)
	return m, nil
}

// Upsert replaces the message with the same id or appends it. A read
// timestamp already known is kept even if m carries none. It reports
// whether anything visible changed.
func (c *Conversation) Upsert(m entity.Message) bool {
	c.mu.Lock()
	changed := c.upsertLocked(m)
	c.mu.Unlock()
	if changed {
		c.changed()
	}
	return changed
}

func (c *Conversation) upsertLocked(m entity.Message) bool {
	if !c.inPair(m) || m.ID == "" {
		return false
	}
	prev, ok := c.byID[m.ID]
	if ok {
		if prev.ReadAt != nil {
			m.ReadAt = prev.ReadAt
		}
		if m.SenderName == "" {
			m.SenderName = prev.SenderName
		}
		if sameMessage(prev, m) {
			return false
		}
		c.byID[m.ID] = m
		return true
	}
	c.order = append(c.order, m.ID)
	c.byID[m.ID] = m
	return true
}

func (c *Conversation) inPair(m entity.Message) bool {
	return (m.SenderID == c.viewerID && m.ReceiverID == c.peerID) ||
		(m.SenderID == c.peerID && m.ReceiverID == c.viewerID)
}

// Messages returns a copy of the visible list.
func (c *Conversation) Messages() []entity.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() []entity.Message {
	out := make([]entity.Message, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// UnreadCount counts visible messages addressed to the viewer that are unread.
func (c *Conversation) UnreadCount() int {
	return CountUnread(c.Messages(), c.viewerID)
}

func (c *Conversation) changed() {
	c.mu.Lock()
	fn := c.onChange
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
	c.markRead()
}

// markRead sends one background request for the visible unread messages
// addressed to the viewer that are not already being marked.
func (c *Conversation) markRead() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var ids []string
	for _, id := range c.order {
		if _, busy := c.marking[id]; busy {
			continue
		}
		if c.byID[id].IsUnreadFor(c.viewerID) {
			ids = append(ids, id)
			c.marking[id] = struct{}{}
		}
	}
	if len(ids) == 0 {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.ReadTimeout)
		defer cancel()

		read, err := c.store.MarkRead(ctx, c.viewerID, ids)

		c.mu.Lock()
		for _, id := range ids {
			delete(c.marking, id)
		}
		c.mu.Unlock()

		if err != nil {
			if c.logger != nil && !errors.Is(err, context.Canceled) {
				c.logger.WithError(err).WithField("count", len(ids)).Warn("mark messages read failed")
			}
			return
		}
		for _, m := range read {
			c.Upsert(m)
		}
	}()
}

// Close unsubscribes from the feed and waits for background work.
func (c *Conversation) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.mu.Unlock()

	c.cancel()
	var err error
	if sub != nil {
		err = sub.Close()
	}
	c.wg.Wait()
	return err
}

func sameMessage(a, b entity.Message) bool {
	if a.ID != b.ID || a.SenderID != b.SenderID || a.ReceiverID != b.ReceiverID ||
		a.Content != b.Content || a.SenderName != b.SenderName || !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	if (a.ReadAt == nil) != (b.ReadAt == nil) {
		return false
	}
	return a.ReadAt == nil || a.ReadAt.Equal(*b.ReadAt)
}
