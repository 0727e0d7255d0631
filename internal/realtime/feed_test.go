package realtime

import (
	"context"
	"testing"
	"time"

	"shoptracker/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T) (*Feed, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFeed(client, nil), mr, client
}

func receive(t *testing.T, ch <-chan domain.ChangeEvent) domain.ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return domain.ChangeEvent{}
}

func TestChannel(t *testing.T) {
	require.Equal(t, "shoptracker:tenant:abc:changes", Channel("abc"))
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	feed, _, _ := newTestFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "t1")
	require.NoError(t, err)
	defer sub.Close()

	product := domain.Product{ID: "p1", Name: "Tea", Quantity: 2, Price: decimal.NewFromInt(20)}
	require.NoError(t, feed.Publish(ctx, domain.ProductUpsertedEvent("t1", product, time.Now())))

	event := receive(t, sub.Events())
	require.Equal(t, domain.ProductUpserted, event.Kind)
	require.Equal(t, "p1", event.Product.ID)
	require.True(t, event.Product.Price.Equal(decimal.NewFromInt(20)))
}

func TestSubscriptionIsTenantScoped(t *testing.T) {
	feed, _, _ := newTestFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "t1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, feed.Publish(ctx, domain.ProductDeletedEvent("t2", "other", time.Now())))
	require.NoError(t, feed.Publish(ctx, domain.ProductDeletedEvent("t1", "mine", time.Now())))

	event := receive(t, sub.Events())
	require.Equal(t, "mine", event.ProductID)
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	feed, _, client := newTestFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "t1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, Channel("t1"), "{not json").Err())
	require.NoError(t, feed.Publish(ctx, domain.ProductDeletedEvent("t1", "p9", time.Now())))

	event := receive(t, sub.Events())
	require.Equal(t, "p9", event.ProductID)
}

func TestStreamClosesOnCancel(t *testing.T) {
	feed, _, _ := newTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := feed.Stream(ctx, "t1")
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublishRequiresTenant(t *testing.T) {
	feed, _, _ := newTestFeed(t)
	err := feed.Publish(context.Background(), domain.ChangeEvent{Kind: domain.ProductDeleted})
	require.Error(t, err)
}
