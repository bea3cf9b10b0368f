package redis

import (
	"context"
	"encoding/json"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

// MessageFeed publishes message changes on Redis channels and lets
// connections subscribe to them. Every API instance sees every event.
type MessageFeed struct {
	rdb    *goredis.Client
	logger *logrus.Logger
}

func NewMessageFeed(rdb *goredis.Client, logger *logrus.Logger) *MessageFeed {
	return &MessageFeed{rdb: rdb, logger: logger}
}

func (f *MessageFeed) Publish(ctx context.Context, topic string, evt entity.MessageEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, topic, data).Err()
}

func (f *MessageFeed) Subscribe(ctx context.Context, topics ...string) (repository.Subscription, error) {
	ps := f.rdb.Subscribe(ctx, topics...)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		ps:     ps,
		cancel: cancel,
		events: make(chan entity.MessageEvent, 16),
		logger: f.logger,
	}
	s.wg.Add(1)
	go s.run(ctx)
	return s, nil
}

type subscription struct {
	ps     *goredis.PubSub
	cancel context.CancelFunc
	events chan entity.MessageEvent
	logger *logrus.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *subscription) Events() <-chan entity.MessageEvent { return s.events }

func (s *subscription) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt entity.MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				if s.logger != nil {
					s.logger.WithError(err).WithField("channel", msg.Channel).Warn("drop malformed message event")
				}
				continue
			}
			select {
			case s.events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close unsubscribes and waits for the delivery goroutine to finish.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		s.wg.Wait()
	})
	return err
}

var (
	_ repository.RealtimePublisher = (*MessageFeed)(nil)
	_ repository.Feed              = (*MessageFeed)(nil)
)
