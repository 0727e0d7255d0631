package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"shoptracker/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "shoptracker:tenant:"

// Channel names the Redis pub/sub channel carrying a tenant's changes.
func Channel(tenantID string) string {
	return channelPrefix + tenantID + ":changes"
}

// Feed publishes and subscribes to tenant change events over Redis pub/sub.
type Feed struct {
	client *redis.Client
	logger *zap.Logger
}

func NewFeed(client *redis.Client, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{client: client, logger: logger}
}

func (f *Feed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	if f == nil || f.client == nil {
		return nil
	}
	if event.TenantID == "" {
		return errors.New("publish change: tenant id is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, Channel(event.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscription delivers decoded change events until Close is called.
type Subscription struct {
	pubsub    *redis.PubSub
	events    chan domain.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are delivered.
func (f *Feed) Subscribe(ctx context.Context, tenantID string) (*Subscription, error) {
	if f == nil || f.client == nil {
		return nil, errors.New("subscribe: feed is not configured")
	}
	if tenantID == "" {
		return nil, errors.New("subscribe: tenant id is required")
	}

	channel := Channel(tenantID)
	pubsub := f.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan domain.ChangeEvent, 64),
		done:   make(chan struct{}),
	}
	go f.pump(sub, tenantID)
	return sub, nil
}

func (f *Feed) pump(sub *Subscription, tenantID string) {
	defer close(sub.events)
	ch := sub.pubsub.Channel()
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.logger.Warn("dropping malformed change event",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				continue
			}
			if event.TenantID != tenantID {
				continue
			}
			select {
			case sub.events <- event:
			case <-sub.done:
				return
			}
		}
	}
}

// Stream subscribes and closes the subscription when ctx is done.
func (f *Feed) Stream(ctx context.Context, tenantID string) (<-chan domain.ChangeEvent, error) {
	sub, err := f.Subscribe(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	return sub.Events(), nil
}
