package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidAction = errors.New("invalid swipe action")
)

const (
	ActionLike = "like"
	ActionPass = "pass"

	defaultPageSize = 10
)

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	ListCandidates(ctx context.Context, userID int64, limit int) ([]model.User, error)
}

type SwipeStore interface {
	Create(ctx context.Context, actorID, targetID int64, action string, now time.Time) error
}

type MatchCreator interface {
	Create(ctx context.Context, owner, target model.User) (model.Match, error)
}

// Service serves the swipe deck. Candidates are completed profiles the
// user has not decided on yet, shuffled so the deck order is not a plain
// recency ranking.
type Service struct {
	users    UserStore
	swipes   SwipeStore
	matcher  MatchCreator
	pageSize int
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Dependencies struct {
	UserStore    UserStore
	SwipeStore   SwipeStore
	MatchCreator MatchCreator
	PageSize     int
	Rand         *rand.Rand
}

// SwipeResult reports the outcome of one swipe. Match is only set when a
// like produced a new match.
type SwipeResult struct {
	Matched bool
	Match   model.Match
}

func NewService(deps Dependencies) *Service {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		users:    deps.UserStore,
		swipes:   deps.SwipeStore,
		matcher:  deps.MatchCreator,
		pageSize: pageSize,
		now:      time.Now,
		rng:      rng,
	}
}

func (s *Service) Candidates(ctx context.Context, userID int64) ([]model.User, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.users == nil {
		return nil, fmt.Errorf("user store is nil")
	}

	candidates, err := s.users.ListCandidates(ctx, userID, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	s.rngMu.Unlock()

	return candidates, nil
}

// Swipe records the decision. A like creates a match right away; a pass
// just removes the target from future decks.
func (s *Service) Swipe(ctx context.Context, actorID, targetID int64, action string) (SwipeResult, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return SwipeResult{}, ErrValidation
	}
	action = strings.ToLower(strings.TrimSpace(action))
	if action != ActionLike && action != ActionPass {
		return SwipeResult{}, ErrInvalidAction
	}
	if s.users == nil || s.swipes == nil || s.matcher == nil {
		return SwipeResult{}, fmt.Errorf("discovery dependencies are not configured")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return SwipeResult{}, ErrUserNotFound
		}
		return SwipeResult{}, fmt.Errorf("get swipe target: %w", err)
	}

	if err := s.swipes.Create(ctx, actorID, targetID, action, s.now().UTC()); err != nil {
		return SwipeResult{}, fmt.Errorf("record swipe: %w", err)
	}

	if action != ActionLike {
		return SwipeResult{}, nil
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("get swipe actor: %w", err)
	}

	match, err := s.matcher.Create(ctx, actor, target)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("create match from like: %w", err)
	}

	return SwipeResult{Matched: true, Match: match}, nil
}
