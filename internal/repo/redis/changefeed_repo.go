package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

const (
	matchesTopicPrefix  = "feed:matches:"
	messagesTopicPrefix = "feed:messages:"
)

func MatchesTopic(userID int64) string {
	return matchesTopicPrefix + strconv.FormatInt(userID, 10)
}

func MessagesTopic(matchID int64) string {
	return messagesTopicPrefix + strconv.FormatInt(matchID, 10)
}

// ChangeFeedRepo fans out commit notifications over redis pub/sub. A
// notification carries no payload; subscribers re-read the full snapshot
// from the store.
type ChangeFeedRepo struct {
	client *goredis.Client
}

func NewChangeFeedRepo(client *goredis.Client) *ChangeFeedRepo {
	return &ChangeFeedRepo{client: client}
}

func (r *ChangeFeedRepo) Publish(ctx context.Context, topic string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if topic == "" {
		return fmt.Errorf("change feed topic is required")
	}

	if err := r.client.Publish(ctx, topic, "1").Err(); err != nil {
		return fmt.Errorf("publish change notification: %w", err)
	}
	return nil
}

// Subscribe returns a coalescing notification channel and a stop function.
// After stop returns, the channel is closed and no further notifications
// are delivered. Pending notifications collapse into one.
func (r *ChangeFeedRepo) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	if r.client == nil {
		return nil, nil, fmt.Errorf("redis client is nil")
	}
	if topic == "" {
		return nil, nil, fmt.Errorf("change feed topic is required")
	}

	pubsub := r.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to change feed: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range pubsub.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		_ = pubsub.Close()
	}
	return out, stop, nil
}
