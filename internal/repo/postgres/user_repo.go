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

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id,
	provider,
	provider_subject,
	COALESCE(email, ''),
	COALESCE(display_name, ''),
	COALESCE(age, 0),
	COALESCE(bio, ''),
	COALESCE(interests, '{}'::text[]),
	COALESCE(photo_key, ''),
	profile_completed,
	verified,
	verification_confidence,
	created_at,
	last_login_at,
	verified_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertOnSignIn creates the user record on first sign-in and bumps the
// last-login timestamp on every subsequent one. Profile fields are never
// overwritten here.
func (r *UserRepo) UpsertOnSignIn(ctx context.Context, provider, subject, email, displayName string, now time.Time) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if provider == "" || subject == "" {
		return model.User{}, fmt.Errorf("invalid sign-in payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (
	provider,
	provider_subject,
	email,
	display_name,
	profile_completed,
	verified,
	created_at,
	last_login_at
) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), FALSE, FALSE, $5, $5)
ON CONFLICT (provider, provider_subject) DO UPDATE SET
	last_login_at = EXCLUDED.last_login_at
RETURNING `+userColumns, provider, subject, email, displayName, now.UTC())

	user, err := scanUser(row)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert user on sign-in: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, ErrUserNotFound
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
LIMIT 1
`, userID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// SaveOnboarding stores the onboarding submission and marks the profile
// complete in one statement, so a failed write leaves no partial state.
func (r *UserRepo) SaveOnboarding(ctx context.Context, userID int64, displayName string, age int, bio string, interests []string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET
	display_name = $2,
	age = $3,
	bio = $4,
	interests = $5,
	profile_completed = TRUE
WHERE id = $1
`, userID, displayName, age, bio, interests)
	if err != nil {
		return fmt.Errorf("save onboarding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SetProfilePhoto(ctx context.Context, userID int64, photoKey string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || photoKey == "" {
		return fmt.Errorf("invalid profile photo payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET photo_key = $2
WHERE id = $1
`, userID, photoKey)
	if err != nil {
		return fmt.Errorf("set profile photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetVerified records a passed verification. It is only called on pass;
// failed verifications leave the record untouched.
func (r *UserRepo) SetVerified(ctx context.Context, userID int64, confidence float64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET
	verified = TRUE,
	verification_confidence = $2,
	verified_at = $3
WHERE id = $1
`, userID, confidence, at.UTC())
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListCandidates returns completed profiles the user has not swiped on or
// matched with yet, excluding the user themselves.
func (r *UserRepo) ListCandidates(ctx context.Context, userID int64, limit int) ([]model.User, error) {
	if r.pool == nil {
		return []model.User{}, nil
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE
	u.id <> $1
	AND u.profile_completed
	AND NOT EXISTS (
		SELECT 1 FROM swipes s
		WHERE s.actor_user_id = $1 AND s.target_user_id = u.id
	)
	AND NOT EXISTS (
		SELECT 1 FROM matches m
		WHERE m.owner_user_id = $1 AND m.target_user_id = u.id
	)
ORDER BY u.last_login_at DESC, u.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return users, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Provider,
		&user.ProviderSubject,
		&user.Email,
		&user.DisplayName,
		&user.Age,
		&user.Bio,
		&user.Interests,
		&user.PhotoKey,
		&user.ProfileCompleted,
		&user.Verified,
		&user.VerificationConfidence,
		&user.CreatedAt,
		&user.LastLoginAt,
		&user.VerifiedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}
