package matches

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	"github.com/ivankudzin/sparkmatch/internal/domain/rules"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/sparkmatch/internal/repo/redis"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("match not found")
)

const defaultListLimit = 100

type MatchStore interface {
	Create(ctx context.Context, record pgrepo.MatchRecord) (model.Match, error)
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
	ListActiveForOwner(ctx context.Context, ownerID int64, limit int) ([]model.Match, error)
	IncrementMessageCount(ctx context.Context, matchID int64) (int64, error)
	SweepExpiredForOwner(ctx context.Context, ownerID int64, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) ([]int64, error)
	DeleteByID(ctx context.Context, tx pgx.Tx, ownerID, matchID int64) (bool, error)
}

type MessageStore interface {
	DeleteByMatch(ctx context.Context, tx pgx.Tx, matchID int64) (int64, error)
}

type ChangeFeed interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

// Service owns the match lifecycle: creation with a fixed expiry window,
// activity tracking that exempts a match from expiry, and the sweep that
// removes silent matches once the window closes.
type Service struct {
	pool     *pgxpool.Pool
	matches  MatchStore
	messages MessageStore
	feed     ChangeFeed
	logger   *zap.Logger
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Dependencies struct {
	Pool         *pgxpool.Pool
	MatchStore   MatchStore
	MessageStore MessageStore
	ChangeFeed   ChangeFeed
	Logger       *zap.Logger
	Rand         *rand.Rand
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		pool:     deps.Pool,
		matches:  deps.MatchStore,
		messages: deps.MessageStore,
		feed:     deps.ChangeFeed,
		logger:   logger,
		now:      time.Now,
		rng:      rng,
	}
}

// Create records a match between the owner and the target. Both timestamps
// come from a single clock reading, so the expiry window is exactly the
// configured TTL after the matched-at instant.
func (s *Service) Create(ctx context.Context, owner, target model.User) (model.Match, error) {
	if owner.ID <= 0 || target.ID <= 0 || owner.ID == target.ID {
		return model.Match{}, ErrValidation
	}
	if s.matches == nil {
		return model.Match{}, fmt.Errorf("match store is nil")
	}

	matchedAt := s.now().UTC()
	match, err := s.matches.Create(ctx, pgrepo.MatchRecord{
		OwnerUserID:     owner.ID,
		TargetUserID:    target.ID,
		TargetName:      target.DisplayName,
		TargetAge:       target.Age,
		TargetBio:       target.Bio,
		TargetPhotoKey:  target.PhotoKey,
		TargetInterests: target.Interests,
		IceBreaker:      s.iceBreakerFor(owner, target),
		MatchedAt:       matchedAt,
		ExpiresAt:       rules.MatchExpiry(matchedAt),
	})
	if err != nil {
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}

	s.notifyOwner(ctx, owner.ID)
	return match, nil
}

// Get returns a match, restricted to its owner.
func (s *Service) Get(ctx context.Context, ownerID, matchID int64) (model.Match, error) {
	if ownerID <= 0 || matchID <= 0 {
		return model.Match{}, ErrValidation
	}
	if s.matches == nil {
		return model.Match{}, fmt.Errorf("match store is nil")
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, ErrNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	if match.OwnerUserID != ownerID {
		return model.Match{}, ErrNotFound
	}
	return match, nil
}

func (s *Service) List(ctx context.Context, ownerID int64, limit int) ([]model.Match, error) {
	if ownerID <= 0 {
		return nil, ErrValidation
	}
	if s.matches == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	matches, err := s.matches.ListActiveForOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// Subscribe streams the owner's full match set: one snapshot immediately,
// then a fresh one after every committed change. The returned stop function
// closes the stream; pending notifications coalesce into a single re-read.
func (s *Service) Subscribe(ctx context.Context, ownerID int64) (<-chan []model.Match, func(), error) {
	if ownerID <= 0 {
		return nil, nil, ErrValidation
	}
	if s.matches == nil || s.feed == nil {
		return nil, nil, fmt.Errorf("subscribe dependencies are not configured")
	}

	notifications, stop, err := s.feed.Subscribe(ctx, redrepo.MatchesTopic(ownerID))
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe to match feed: %w", err)
	}

	out := make(chan []model.Match, 1)
	go func() {
		defer close(out)
		s.pushSnapshot(ctx, ownerID, out)
		for range notifications {
			s.pushSnapshot(ctx, ownerID, out)
		}
	}()

	return out, stop, nil
}

// RecordActivity bumps the match's message counter. The first recorded
// message permanently exempts the match from the expiry sweep. Returns the
// owner id so callers can address the owner's live view.
func (s *Service) RecordActivity(ctx context.Context, matchID int64) (int64, error) {
	if matchID <= 0 {
		return 0, ErrValidation
	}
	if s.matches == nil {
		return 0, fmt.Errorf("match store is nil")
	}

	ownerID, err := s.matches.IncrementMessageCount(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("record match activity: %w", err)
	}

	s.notifyOwner(ctx, ownerID)
	return ownerID, nil
}

// SweepExpired removes the owner's expired matches that never saw a
// message. Running it twice in a row deletes nothing the second time.
func (s *Service) SweepExpired(ctx context.Context, ownerID int64) (int64, error) {
	if ownerID <= 0 {
		return 0, ErrValidation
	}
	if s.matches == nil {
		return 0, fmt.Errorf("match store is nil")
	}

	removed, err := s.matches.SweepExpiredForOwner(ctx, ownerID, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired matches: %w", err)
	}
	if removed > 0 {
		s.notifyOwner(ctx, ownerID)
	}
	return removed, nil
}

// SweepAllExpired is the background variant of SweepExpired across every
// owner. Each affected owner's live view is notified once.
func (s *Service) SweepAllExpired(ctx context.Context) (int64, error) {
	if s.matches == nil {
		return 0, fmt.Errorf("match store is nil")
	}

	owners, err := s.matches.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep all expired matches: %w", err)
	}

	notified := make(map[int64]struct{}, len(owners))
	for _, ownerID := range owners {
		if _, ok := notified[ownerID]; ok {
			continue
		}
		notified[ownerID] = struct{}{}
		s.notifyOwner(ctx, ownerID)
	}

	return int64(len(owners)), nil
}

// Unmatch deletes the match and its conversation in one transaction.
func (s *Service) Unmatch(ctx context.Context, ownerID, matchID int64) (bool, error) {
	if ownerID <= 0 || matchID <= 0 {
		return false, ErrValidation
	}
	if s.pool == nil || s.matches == nil || s.messages == nil {
		return false, fmt.Errorf("unmatch dependencies are not configured")
	}

	var deleted bool
	if err := pgrepo.WithTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		ok, err := s.matches.DeleteByID(txCtx, tx, ownerID, matchID)
		if err != nil {
			return err
		}
		deleted = ok
		if !ok {
			return nil
		}
		_, err = s.messages.DeleteByMatch(txCtx, tx, matchID)
		return err
	}); err != nil {
		return false, fmt.Errorf("unmatch: %w", err)
	}

	if deleted {
		s.notifyOwner(ctx, ownerID)
	}
	return deleted, nil
}

func (s *Service) iceBreakerFor(owner, target model.User) string {
	topics := sharedInterests(owner.Interests, target.Interests)
	if len(topics) == 0 {
		topics = target.Interests
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rules.IceBreaker(s.rng, topics)
}

// notifyOwner is best-effort: a dropped notification degrades the live
// view to its next re-read, it never fails the write that triggered it.
func (s *Service) notifyOwner(ctx context.Context, ownerID int64) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, redrepo.MatchesTopic(ownerID)); err != nil {
		s.logger.Warn("failed to publish match change notification", zap.Error(err), zap.Int64("owner_id", ownerID))
	}
}

func (s *Service) pushSnapshot(ctx context.Context, ownerID int64, out chan []model.Match) {
	matches, err := s.matches.ListActiveForOwner(ctx, ownerID, defaultListLimit)
	if err != nil {
		s.logger.Warn("failed to load match snapshot", zap.Error(err), zap.Int64("owner_id", ownerID))
		return
	}

	// Replace a stale undelivered snapshot instead of blocking the feed.
	for {
		select {
		case out <- matches:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

func sharedInterests(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(a))
	for _, tag := range a {
		seen[tag] = struct{}{}
	}

	shared := make([]string, 0, len(b))
	for _, tag := range b {
		if _, ok := seen[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}
