package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchRecord is the insert payload for a new match. Timestamps are
// assigned by the caller from a single clock reading so the expiry
// invariant holds exactly.
type MatchRecord struct {
	OwnerUserID     int64
	TargetUserID    int64
	TargetName      string
	TargetAge       int
	TargetBio       string
	TargetPhotoKey  string
	TargetInterests []string
	IceBreaker      string
	MatchedAt       time.Time
	ExpiresAt       time.Time
}

const matchColumns = `
	id,
	owner_user_id,
	target_user_id,
	COALESCE(target_name, ''),
	COALESCE(target_age, 0),
	COALESCE(target_bio, ''),
	COALESCE(target_photo_key, ''),
	COALESCE(target_interests, '{}'::text[]),
	COALESCE(ice_breaker, ''),
	matched_at,
	expires_at,
	message_count,
	status`

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func (r *MatchRepo) Create(ctx context.Context, record MatchRecord) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}
	if record.OwnerUserID <= 0 || record.TargetUserID <= 0 || record.OwnerUserID == record.TargetUserID {
		return model.Match{}, fmt.Errorf("invalid match payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO matches (
	owner_user_id,
	target_user_id,
	target_name,
	target_age,
	target_bio,
	target_photo_key,
	target_interests,
	ice_breaker,
	matched_at,
	expires_at,
	message_count,
	status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 'active')
RETURNING `+matchColumns,
		record.OwnerUserID,
		record.TargetUserID,
		record.TargetName,
		record.TargetAge,
		record.TargetBio,
		record.TargetPhotoKey,
		record.TargetInterests,
		record.IceBreaker,
		record.MatchedAt.UTC(),
		record.ExpiresAt.UTC(),
	)

	match, err := scanMatch(row)
	if err != nil {
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}
	return match, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, ErrMatchNotFound
	}
	if matchID <= 0 {
		return model.Match{}, fmt.Errorf("invalid match id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE id = $1
LIMIT 1
`, matchID)

	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	return match, nil
}

// ListActiveForOwner orders by matched_at descending; the serial id breaks
// ties in insertion order.
func (r *MatchRepo) ListActiveForOwner(ctx context.Context, ownerID int64, limit int) ([]model.Match, error) {
	if r.pool == nil {
		return []model.Match{}, nil
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("invalid owner id")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE owner_user_id = $1 AND status = 'active'
ORDER BY matched_at DESC, id DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}
	defer rows.Close()

	matches := make([]model.Match, 0, limit)
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active match: %w", err)
		}
		matches = append(matches, match)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate active matches: %w", rows.Err())
	}

	return matches, nil
}

// IncrementMessageCount bumps the activity counter atomically in a single
// UPDATE. Concurrent increments are never lost. Returns the owner id so
// the caller can notify the owner's live view.
func (r *MatchRepo) IncrementMessageCount(ctx context.Context, matchID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if matchID <= 0 {
		return 0, fmt.Errorf("invalid match id")
	}

	var ownerID int64
	err := r.pool.QueryRow(ctx, `
UPDATE matches
SET message_count = message_count + 1
WHERE id = $1
RETURNING owner_user_id
`, matchID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMatchNotFound
		}
		return 0, fmt.Errorf("increment message count: %w", err)
	}
	return ownerID, nil
}

// SweepExpiredForOwner deletes one owner's expired zero-activity matches.
// Naturally idempotent: a second run with no intervening writes matches
// nothing.
func (r *MatchRepo) SweepExpiredForOwner(ctx context.Context, ownerID int64, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 {
		return 0, fmt.Errorf("invalid owner id")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM matches
WHERE owner_user_id = $1
	AND expires_at <= $2
	AND message_count = 0
`, ownerID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired matches for owner: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired is the global sweep across all owners. It returns the
// owner id of every deleted row so callers can notify the affected live
// views.
func (r *MatchRepo) DeleteExpired(ctx context.Context, now time.Time) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
DELETE FROM matches
WHERE expires_at <= $1
	AND message_count = 0
RETURNING owner_user_id
`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("delete expired matches: %w", err)
	}
	defer rows.Close()

	owners := make([]int64, 0)
	for rows.Next() {
		var ownerID int64
		if err := rows.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("scan deleted match owner: %w", err)
		}
		owners = append(owners, ownerID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate deleted matches: %w", rows.Err())
	}

	return owners, nil
}

func (r *MatchRepo) DeleteByID(ctx context.Context, tx pgx.Tx, ownerID, matchID int64) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if ownerID <= 0 || matchID <= 0 {
		return false, fmt.Errorf("invalid match delete payload")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM matches
WHERE id = $1 AND owner_user_id = $2
`, matchID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var match model.Match
	err := row.Scan(
		&match.ID,
		&match.OwnerUserID,
		&match.TargetUserID,
		&match.TargetName,
		&match.TargetAge,
		&match.TargetBio,
		&match.TargetPhotoKey,
		&match.TargetInterests,
		&match.IceBreaker,
		&match.MatchedAt,
		&match.ExpiresAt,
		&match.MessageCount,
		&match.Status,
	)
	if err != nil {
		return model.Match{}, err
	}
	return match, nil
}
