package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestChangeFeedDeliversPublishedNotifications(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewChangeFeedRepo(client)
	ctx := context.Background()
	topic := MatchesTopic(42)

	notifications, stop, err := repo.Subscribe(ctx, topic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	if err := repo.Publish(ctx, topic); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case _, ok := <-notifications:
		if !ok {
			t.Fatalf("notification channel closed unexpectedly")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change notification")
	}
}

func TestChangeFeedStopClosesChannel(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewChangeFeedRepo(client)

	notifications, stop, err := repo.Subscribe(context.Background(), MessagesTopic(7))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	stop()

	select {
	case _, ok := <-notifications:
		if ok {
			t.Fatalf("expected closed channel after stop, got a notification")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel was not closed after stop")
	}
}

func TestChangeFeedRejectsEmptyTopic(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewChangeFeedRepo(client)

	if err := repo.Publish(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty publish topic")
	}
	if _, _, err := repo.Subscribe(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty subscribe topic")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
