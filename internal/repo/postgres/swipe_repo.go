package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// Create records a swipe decision. Repeated swipes on the same target keep
// the first decision.
func (r *SwipeRepo) Create(ctx context.Context, actorID, targetID int64, action string, now time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return fmt.Errorf("invalid swipe payload")
	}
	if action == "" {
		return fmt.Errorf("swipe action is required")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO swipes (
	actor_user_id,
	target_user_id,
	action,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (actor_user_id, target_user_id) DO NOTHING
`, actorID, targetID, action, now.UTC())
	if err != nil {
		return fmt.Errorf("create swipe: %w", err)
	}
	return nil
}
