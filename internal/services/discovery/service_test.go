package discovery

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
)

type userStoreStub struct {
	users      map[int64]model.User
	candidates []model.User
	listLimit  int
}

func (s *userStoreStub) GetByID(_ context.Context, userID int64) (model.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *userStoreStub) ListCandidates(_ context.Context, _ int64, limit int) ([]model.User, error) {
	s.listLimit = limit
	out := make([]model.User, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

type swipeStoreStub struct {
	swipes []string
}

func (s *swipeStoreStub) Create(_ context.Context, _, _ int64, action string, _ time.Time) error {
	s.swipes = append(s.swipes, action)
	return nil
}

type matchCreatorStub struct {
	calls  int
	owner  model.User
	target model.User
}

func (s *matchCreatorStub) Create(_ context.Context, owner, target model.User) (model.Match, error) {
	s.calls++
	s.owner = owner
	s.target = target
	return model.Match{ID: 77, OwnerUserID: owner.ID, TargetUserID: target.ID}, nil
}

func newTestService(users *userStoreStub, swipes *swipeStoreStub, matcher *matchCreatorStub, pageSize int) *Service {
	return NewService(Dependencies{
		UserStore:    users,
		SwipeStore:   swipes,
		MatchCreator: matcher,
		PageSize:     pageSize,
		Rand:         rand.New(rand.NewSource(3)),
	})
}

func TestCandidatesShufflesDeckWithoutLosingAnyone(t *testing.T) {
	candidates := make([]model.User, 0, 8)
	for i := int64(2); i < 10; i++ {
		candidates = append(candidates, model.User{ID: i})
	}
	users := &userStoreStub{candidates: candidates}
	svc := newTestService(users, &swipeStoreStub{}, &matchCreatorStub{}, 8)

	deck, err := svc.Candidates(context.Background(), 1)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(deck) != len(candidates) {
		t.Fatalf("expected %d candidates, got %d", len(candidates), len(deck))
	}
	if users.listLimit != 8 {
		t.Fatalf("expected configured page size passed through, got %d", users.listLimit)
	}

	seen := make(map[int64]struct{}, len(deck))
	for _, user := range deck {
		seen[user.ID] = struct{}{}
	}
	for _, want := range candidates {
		if _, ok := seen[want.ID]; !ok {
			t.Fatalf("candidate %d missing from shuffled deck", want.ID)
		}
	}
}

func TestSwipeLikeCreatesMatch(t *testing.T) {
	users := &userStoreStub{users: map[int64]model.User{
		1: {ID: 1, DisplayName: "Ann"},
		2: {ID: 2, DisplayName: "Ben"},
	}}
	swipes := &swipeStoreStub{}
	matcher := &matchCreatorStub{}
	svc := newTestService(users, swipes, matcher, 0)

	result, err := svc.Swipe(context.Background(), 1, 2, "LIKE")
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected like to produce a match")
	}
	if matcher.calls != 1 || matcher.owner.ID != 1 || matcher.target.ID != 2 {
		t.Fatalf("unexpected match creation: calls=%d owner=%d target=%d", matcher.calls, matcher.owner.ID, matcher.target.ID)
	}
	if len(swipes.swipes) != 1 || swipes.swipes[0] != ActionLike {
		t.Fatalf("expected normalized like swipe recorded, got %v", swipes.swipes)
	}
}

func TestSwipePassDoesNotMatch(t *testing.T) {
	users := &userStoreStub{users: map[int64]model.User{
		1: {ID: 1},
		2: {ID: 2},
	}}
	matcher := &matchCreatorStub{}
	svc := newTestService(users, &swipeStoreStub{}, matcher, 0)

	result, err := svc.Swipe(context.Background(), 1, 2, "pass")
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected pass to not match")
	}
	if matcher.calls != 0 {
		t.Fatalf("expected no match creation on pass, got %d", matcher.calls)
	}
}

func TestSwipeRejectsUnknownAction(t *testing.T) {
	svc := newTestService(&userStoreStub{}, &swipeStoreStub{}, &matchCreatorStub{}, 0)

	if _, err := svc.Swipe(context.Background(), 1, 2, "superlike"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestSwipeUnknownTarget(t *testing.T) {
	users := &userStoreStub{users: map[int64]model.User{1: {ID: 1}}}
	svc := newTestService(users, &swipeStoreStub{}, &matchCreatorStub{}, 0)

	if _, err := svc.Swipe(context.Background(), 1, 99, "like"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSwipeRejectsSelf(t *testing.T) {
	svc := newTestService(&userStoreStub{}, &swipeStoreStub{}, &matchCreatorStub{}, 0)

	if _, err := svc.Swipe(context.Background(), 5, 5, "like"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
