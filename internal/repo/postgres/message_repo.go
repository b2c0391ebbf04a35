package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID, receiverID int64, text string, now time.Time) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}
	if matchID <= 0 || senderID <= 0 || receiverID <= 0 {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}

	var message model.Message
	err := r.pool.QueryRow(ctx, `
INSERT INTO messages (
	match_id,
	sender_id,
	receiver_id,
	text,
	sent_at,
	read
) VALUES ($1, $2, $3, $4, $5, FALSE)
RETURNING id, match_id, sender_id, receiver_id, text, sent_at, read
`, matchID, senderID, receiverID, text, now.UTC()).Scan(
		&message.ID,
		&message.MatchID,
		&message.SenderID,
		&message.ReceiverID,
		&message.Text,
		&message.SentAt,
		&message.Read,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}
	return message, nil
}

func (r *MessageRepo) ListForMatch(ctx context.Context, matchID int64, limit int) ([]model.Message, error) {
	if r.pool == nil {
		return []model.Message{}, nil
	}
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, match_id, sender_id, receiver_id, text, sent_at, read
FROM messages
WHERE match_id = $1
ORDER BY sent_at ASC, id ASC
LIMIT $2
`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var message model.Message
		if err := rows.Scan(
			&message.ID,
			&message.MatchID,
			&message.SenderID,
			&message.ReceiverID,
			&message.Text,
			&message.SentAt,
			&message.Read,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return messages, nil
}

// MarkRead flips every unread message addressed to the user within the
// match. Zero affected rows is a valid outcome, not an error.
func (r *MessageRepo) MarkRead(ctx context.Context, matchID, userID int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if matchID <= 0 || userID <= 0 {
		return 0, fmt.Errorf("invalid mark-read payload")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE messages
SET read = TRUE
WHERE match_id = $1
	AND receiver_id = $2
	AND read = FALSE
`, matchID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *MessageRepo) DeleteByMatch(ctx context.Context, tx pgx.Tx, matchID int64) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}
	if matchID <= 0 {
		return 0, fmt.Errorf("invalid match id")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM messages
WHERE match_id = $1
`, matchID)
	if err != nil {
		return 0, fmt.Errorf("delete messages by match: %w", err)
	}
	return result.RowsAffected(), nil
}
