package messages

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
)

type messageStoreStub struct {
	mu       sync.Mutex
	nextID   int64
	messages []model.Message
}

func (s *messageStoreStub) Create(_ context.Context, matchID, senderID, receiverID int64, text string, now time.Time) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	message := model.Message{
		ID:         s.nextID,
		MatchID:    matchID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		SentAt:     now,
	}
	s.messages = append(s.messages, message)
	return message, nil
}

func (s *messageStoreStub) ListForMatch(_ context.Context, matchID int64, _ int) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Message, 0)
	for _, message := range s.messages {
		if message.MatchID == matchID {
			result = append(result, message)
		}
	}
	return result, nil
}

func (s *messageStoreStub) MarkRead(_ context.Context, matchID, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for i := range s.messages {
		if s.messages[i].MatchID == matchID && s.messages[i].ReceiverID == userID && !s.messages[i].Read {
			s.messages[i].Read = true
			affected++
		}
	}
	return affected, nil
}

type matchReaderStub struct {
	match model.Match
	err   error
}

func (s *matchReaderStub) GetByID(_ context.Context, matchID int64) (model.Match, error) {
	if s.err != nil {
		return model.Match{}, s.err
	}
	if s.match.ID != matchID {
		return model.Match{}, pgrepo.ErrMatchNotFound
	}
	return s.match, nil
}

type activityRecorderStub struct {
	calls int
	err   error
}

func (s *activityRecorderStub) RecordActivity(_ context.Context, _ int64) (int64, error) {
	s.calls++
	return 1, s.err
}

type publisherStub struct {
	mu     sync.Mutex
	topics []string
}

func (p *publisherStub) Publish(_ context.Context, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *publisherStub) Subscribe(_ context.Context, _ string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{})
	return ch, func() { close(ch) }, nil
}

func activeMatch() model.Match {
	return model.Match{
		ID:           10,
		OwnerUserID:  1,
		TargetUserID: 2,
		Status:       model.MatchStatusActive,
	}
}

func newTestService(store *messageStoreStub, matches *matchReaderStub, activity *activityRecorderStub, feed *publisherStub) *Service {
	return NewService(Dependencies{
		MessageStore:     store,
		MatchReader:      matches,
		ActivityRecorder: activity,
		ChangeFeed:       feed,
	})
}

func TestSendPersistsAndRecordsActivity(t *testing.T) {
	store := &messageStoreStub{}
	activity := &activityRecorderStub{}
	svc := newTestService(store, &matchReaderStub{match: activeMatch()}, activity, &publisherStub{})

	message, err := svc.Send(context.Background(), 1, 10, "  hey there  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.Text != "hey there" {
		t.Fatalf("expected trimmed text, got %q", message.Text)
	}
	if message.ReceiverID != 2 {
		t.Fatalf("expected receiver to be the counterpart, got %d", message.ReceiverID)
	}
	if activity.calls != 1 {
		t.Fatalf("expected one activity record, got %d", activity.calls)
	}
}

func TestSendFromTargetSideDeliversToOwner(t *testing.T) {
	store := &messageStoreStub{}
	svc := newTestService(store, &matchReaderStub{match: activeMatch()}, &activityRecorderStub{}, &publisherStub{})

	message, err := svc.Send(context.Background(), 2, 10, "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.ReceiverID != 1 {
		t.Fatalf("expected owner as receiver, got %d", message.ReceiverID)
	}
}

func TestSendSurvivesActivityFailure(t *testing.T) {
	store := &messageStoreStub{}
	activity := &activityRecorderStub{err: fmt.Errorf("counter store down")}
	svc := newTestService(store, &matchReaderStub{match: activeMatch()}, activity, &publisherStub{})

	message, err := svc.Send(context.Background(), 1, 10, "hello")
	if err != nil {
		t.Fatalf("expected send to succeed despite activity failure, got %v", err)
	}
	if message.ID == 0 {
		t.Fatalf("expected persisted message")
	}
	if len(store.messages) != 1 {
		t.Fatalf("expected message to stay persisted, got %d", len(store.messages))
	}
}

func TestSendRejectsOutsider(t *testing.T) {
	svc := newTestService(&messageStoreStub{}, &matchReaderStub{match: activeMatch()}, &activityRecorderStub{}, &publisherStub{})

	if _, err := svc.Send(context.Background(), 99, 10, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSendRejectsEmptyText(t *testing.T) {
	activity := &activityRecorderStub{}
	svc := newTestService(&messageStoreStub{}, &matchReaderStub{match: activeMatch()}, activity, &publisherStub{})

	if _, err := svc.Send(context.Background(), 1, 10, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if activity.calls != 0 {
		t.Fatalf("expected no activity for rejected message, got %d", activity.calls)
	}
}

func TestSendMissingMatch(t *testing.T) {
	svc := newTestService(&messageStoreStub{}, &matchReaderStub{match: model.Match{ID: 999}}, &activityRecorderStub{}, &publisherStub{})

	if _, err := svc.Send(context.Background(), 1, 10, "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkReadFlipsOnlyCallersUnread(t *testing.T) {
	store := &messageStoreStub{}
	svc := newTestService(store, &matchReaderStub{match: activeMatch()}, &activityRecorderStub{}, &publisherStub{})

	ctx := context.Background()
	if _, err := svc.Send(ctx, 1, 10, "one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, 1, 10, "two"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(ctx, 2, 10, "reply"); err != nil {
		t.Fatalf("send: %v", err)
	}

	affected, err := svc.MarkRead(ctx, 2, 10)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected both messages to user 2 flipped, got %d", affected)
	}

	messages, err := svc.ListForMatch(ctx, 1, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, message := range messages {
		if message.ReceiverID == 1 && message.Read {
			t.Fatalf("expected user 1's inbound message to stay unread")
		}
	}
}

func TestMarkReadWithNothingUnreadIsNoOp(t *testing.T) {
	feed := &publisherStub{}
	svc := newTestService(&messageStoreStub{}, &matchReaderStub{match: activeMatch()}, &activityRecorderStub{}, feed)

	affected, err := svc.MarkRead(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("expected no-op mark read to succeed, got %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected zero affected, got %d", affected)
	}
	if len(feed.topics) != 0 {
		t.Fatalf("expected no notification for a no-op, got %v", feed.topics)
	}
}

func TestListForMatchRejectsOutsider(t *testing.T) {
	svc := newTestService(&messageStoreStub{}, &matchReaderStub{match: activeMatch()}, &activityRecorderStub{}, &publisherStub{})

	if _, err := svc.ListForMatch(context.Background(), 99, 10, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
