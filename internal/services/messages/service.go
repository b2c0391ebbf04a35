package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/sparkmatch/internal/repo/redis"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("match not found")
	ErrForbidden  = errors.New("not a participant of this match")
)

const (
	maxTextLen       = 2000
	defaultListLimit = 200
)

type MessageStore interface {
	Create(ctx context.Context, matchID, senderID, receiverID int64, text string, now time.Time) (model.Message, error)
	ListForMatch(ctx context.Context, matchID int64, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, matchID, userID int64) (int64, error)
}

type MatchReader interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
}

// ActivityRecorder bumps the match's message counter. Send treats its
// failure as non-fatal: the message is already persisted.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, matchID int64) (int64, error)
}

type ChangeFeed interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

// Service relays messages inside a match conversation. Every operation
// checks the caller against the match participants before touching the
// conversation.
type Service struct {
	messages MessageStore
	matches  MatchReader
	activity ActivityRecorder
	feed     ChangeFeed
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	MessageStore     MessageStore
	MatchReader      MatchReader
	ActivityRecorder ActivityRecorder
	ChangeFeed       ChangeFeed
	Logger           *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		messages: deps.MessageStore,
		matches:  deps.MatchReader,
		activity: deps.ActivityRecorder,
		feed:     deps.ChangeFeed,
		logger:   logger,
		now:      time.Now,
	}
}

// Send persists the message first, then records activity on the match.
// The activity update is best-effort: if it fails, the message stays and
// the counter catches up on the next send.
func (s *Service) Send(ctx context.Context, senderID, matchID int64, text string) (model.Message, error) {
	if senderID <= 0 || matchID <= 0 {
		return model.Message{}, ErrValidation
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, fmt.Errorf("message text is required: %w", ErrValidation)
	}
	if len(text) > maxTextLen {
		return model.Message{}, fmt.Errorf("message text is too long: %w", ErrValidation)
	}
	if s.messages == nil || s.matches == nil {
		return model.Message{}, fmt.Errorf("send dependencies are not configured")
	}

	match, receiverID, err := s.loadAsParticipant(ctx, senderID, matchID)
	if err != nil {
		return model.Message{}, err
	}

	message, err := s.messages.Create(ctx, match.ID, senderID, receiverID, text, s.now().UTC())
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	if s.activity != nil {
		if _, err := s.activity.RecordActivity(ctx, match.ID); err != nil {
			s.logger.Warn("failed to record match activity after send",
				zap.Error(err), zap.Int64("match_id", match.ID), zap.Int64("message_id", message.ID))
		}
	}
	s.notifyConversation(ctx, match.ID)

	return message, nil
}

func (s *Service) ListForMatch(ctx context.Context, userID, matchID int64, limit int) ([]model.Message, error) {
	if userID <= 0 || matchID <= 0 {
		return nil, ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return nil, fmt.Errorf("list dependencies are not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	if _, _, err := s.loadAsParticipant(ctx, userID, matchID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListForMatch(ctx, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// MarkRead flips the caller's unread messages in the conversation. Zero
// unread messages is a valid no-op.
func (s *Service) MarkRead(ctx context.Context, userID, matchID int64) (int64, error) {
	if userID <= 0 || matchID <= 0 {
		return 0, ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return 0, fmt.Errorf("mark-read dependencies are not configured")
	}

	if _, _, err := s.loadAsParticipant(ctx, userID, matchID); err != nil {
		return 0, err
	}

	affected, err := s.messages.MarkRead(ctx, matchID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	if affected > 0 {
		s.notifyConversation(ctx, matchID)
	}
	return affected, nil
}

// Subscribe streams the full conversation: one snapshot immediately, then
// a fresh one after every committed change.
func (s *Service) Subscribe(ctx context.Context, userID, matchID int64) (<-chan []model.Message, func(), error) {
	if userID <= 0 || matchID <= 0 {
		return nil, nil, ErrValidation
	}
	if s.messages == nil || s.matches == nil || s.feed == nil {
		return nil, nil, fmt.Errorf("subscribe dependencies are not configured")
	}

	if _, _, err := s.loadAsParticipant(ctx, userID, matchID); err != nil {
		return nil, nil, err
	}

	notifications, stop, err := s.feed.Subscribe(ctx, redrepo.MessagesTopic(matchID))
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe to message feed: %w", err)
	}

	out := make(chan []model.Message, 1)
	go func() {
		defer close(out)
		s.pushSnapshot(ctx, matchID, out)
		for range notifications {
			s.pushSnapshot(ctx, matchID, out)
		}
	}()

	return out, stop, nil
}

// loadAsParticipant resolves the match and the counterpart of the given
// user, rejecting callers who are neither side of it.
func (s *Service) loadAsParticipant(ctx context.Context, userID, matchID int64) (model.Match, int64, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, 0, ErrNotFound
		}
		return model.Match{}, 0, fmt.Errorf("get match: %w", err)
	}

	switch userID {
	case match.OwnerUserID:
		return match, match.TargetUserID, nil
	case match.TargetUserID:
		return match, match.OwnerUserID, nil
	default:
		return model.Match{}, 0, ErrForbidden
	}
}

func (s *Service) notifyConversation(ctx context.Context, matchID int64) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, redrepo.MessagesTopic(matchID)); err != nil {
		s.logger.Warn("failed to publish message change notification", zap.Error(err), zap.Int64("match_id", matchID))
	}
}

func (s *Service) pushSnapshot(ctx context.Context, matchID int64, out chan []model.Message) {
	messages, err := s.messages.ListForMatch(ctx, matchID, defaultListLimit)
	if err != nil {
		s.logger.Warn("failed to load message snapshot", zap.Error(err), zap.Int64("match_id", matchID))
		return
	}

	// Replace a stale undelivered snapshot instead of blocking the feed.
	for {
		select {
		case out <- messages:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
