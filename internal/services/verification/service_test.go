package verification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	"github.com/ivankudzin/sparkmatch/internal/infra/facecompare"
)

type userStoreStub struct {
	user          model.User
	verifiedCalls int
	verifiedConf  float64
	verifiedAt    time.Time
}

func (s *userStoreStub) GetByID(_ context.Context, userID int64) (model.User, error) {
	user := s.user
	user.ID = userID
	return user, nil
}

func (s *userStoreStub) SetVerified(_ context.Context, _ int64, confidence float64, at time.Time) error {
	s.verifiedCalls++
	s.verifiedConf = confidence
	s.verifiedAt = at
	return nil
}

type photoSourceStub struct {
	err error
}

func (s *photoSourceStub) OpenPhoto(_ context.Context, _ string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader("photo-bytes")), nil
}

type comparerStub struct {
	result facecompare.Result
	err    error
}

func (s *comparerStub) Compare(_ context.Context, _, _ io.Reader) (facecompare.Result, error) {
	return s.result, s.err
}

func newTestService(users *userStoreStub, photos *photoSourceStub, comparer *comparerStub) *Service {
	return NewService(Dependencies{
		UserStore:   users,
		PhotoSource: photos,
		Comparer:    comparer,
	})
}

func bothFaces(confidence float64) facecompare.Result {
	return facecompare.Result{Confidence: confidence, Face1Detected: true, Face2Detected: true}
}

func TestEvaluatePassesAtExactThreshold(t *testing.T) {
	users := &userStoreStub{user: model.User{PhotoKey: "users/1/profile/a.jpg"}}
	svc := newTestService(users, &photoSourceStub{}, &comparerStub{result: bothFaces(ConfidenceThreshold)})

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !result.Verified {
		t.Fatalf("expected a score at the threshold to verify, got %+v", result)
	}
	if users.verifiedCalls != 1 {
		t.Fatalf("expected verified state persisted once, got %d", users.verifiedCalls)
	}
	if users.verifiedConf != ConfidenceThreshold {
		t.Fatalf("expected persisted confidence %v, got %v", ConfidenceThreshold, users.verifiedConf)
	}
}

func TestEvaluateFailsJustBelowThreshold(t *testing.T) {
	users := &userStoreStub{user: model.User{PhotoKey: "users/1/profile/a.jpg"}}
	svc := newTestService(users, &photoSourceStub{}, &comparerStub{result: bothFaces(79.9)})

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Verified {
		t.Fatalf("expected score below threshold to fail")
	}
	if result.Reason != ReasonLowConfidence {
		t.Fatalf("expected low confidence reason, got %q", result.Reason)
	}
	if users.verifiedCalls != 0 {
		t.Fatalf("expected no write for a failed attempt, got %d", users.verifiedCalls)
	}
}

func TestEvaluateFailsClosedWithoutProfilePhoto(t *testing.T) {
	users := &userStoreStub{user: model.User{}}
	comparer := &comparerStub{result: bothFaces(99)}
	svc := newTestService(users, &photoSourceStub{}, comparer)

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Verified {
		t.Fatalf("expected missing profile photo to fail closed")
	}
	if result.Reason != ReasonNoProfilePhoto {
		t.Fatalf("expected no-profile-photo reason, got %q", result.Reason)
	}
}

func TestEvaluateFailsClosedOnCompareOutage(t *testing.T) {
	users := &userStoreStub{user: model.User{PhotoKey: "users/1/profile/a.jpg"}}
	svc := newTestService(users, &photoSourceStub{}, &comparerStub{err: fmt.Errorf("vendor timeout")})

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("expected outage to produce a failed result, not an error: %v", err)
	}
	if result.Verified {
		t.Fatalf("expected outage to fail closed")
	}
	if result.Reason != ReasonCompareUnavailable {
		t.Fatalf("expected compare-unavailable reason, got %q", result.Reason)
	}
	if users.verifiedCalls != 0 {
		t.Fatalf("expected no write on outage, got %d", users.verifiedCalls)
	}
}

func TestEvaluateFailsWhenNoFaceDetected(t *testing.T) {
	users := &userStoreStub{user: model.User{PhotoKey: "users/1/profile/a.jpg"}}
	svc := newTestService(users, &photoSourceStub{}, &comparerStub{
		result: facecompare.Result{Confidence: 95, Face1Detected: true, Face2Detected: false},
	})

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Verified {
		t.Fatalf("expected missing face to fail verification")
	}
	if result.Reason != ReasonNoFaceDetected {
		t.Fatalf("expected no-face reason, got %q", result.Reason)
	}
}

func TestEvaluateFailsClosedWhenPhotoUnreadable(t *testing.T) {
	users := &userStoreStub{user: model.User{PhotoKey: "users/1/profile/a.jpg"}}
	svc := newTestService(users, &photoSourceStub{err: fmt.Errorf("object gone")}, &comparerStub{result: bothFaces(99)})

	result, err := svc.Evaluate(context.Background(), 1, strings.NewReader("selfie"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.Verified {
		t.Fatalf("expected unreadable photo to fail closed")
	}
	if result.Reason != ReasonPhotoUnavailable {
		t.Fatalf("expected photo-unavailable reason, got %q", result.Reason)
	}
}
