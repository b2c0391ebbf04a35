package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/sparkmatch/internal/domain/model"
	"github.com/ivankudzin/sparkmatch/internal/infra/facecompare"
)

var ErrValidation = errors.New("validation error")

// ConfidenceThreshold is the minimum similarity score that passes
// verification. The comparison is inclusive: a score exactly at the
// threshold verifies.
const ConfidenceThreshold = 80.0

const (
	ReasonNoProfilePhoto     = "no_profile_photo"
	ReasonPhotoUnavailable   = "profile_photo_unavailable"
	ReasonCompareUnavailable = "comparison_unavailable"
	ReasonNoFaceDetected     = "no_face_detected"
	ReasonLowConfidence      = "low_confidence"
)

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	SetVerified(ctx context.Context, userID int64, confidence float64, at time.Time) error
}

type PhotoSource interface {
	OpenPhoto(ctx context.Context, key string) (io.ReadCloser, error)
}

type Comparer interface {
	Compare(ctx context.Context, profilePhoto, selfie io.Reader) (facecompare.Result, error)
}

// Result is the outcome of one verification attempt. A failed attempt is
// a normal outcome, not an error; errors are reserved for broken
// preconditions and persistence failures.
type Result struct {
	Verified   bool
	Confidence float64
	Threshold  float64
	Reason     string
	CheckedAt  time.Time
}

// Service gates the verified badge behind a selfie-to-profile-photo
// comparison. Anything that prevents a trustworthy comparison fails the
// attempt closed: no photo, unreadable photo, vendor outage.
type Service struct {
	users    UserStore
	photos   PhotoSource
	comparer Comparer
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	UserStore   UserStore
	PhotoSource PhotoSource
	Comparer    Comparer
	Logger      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		users:    deps.UserStore,
		photos:   deps.PhotoSource,
		comparer: deps.Comparer,
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate compares the submitted selfie against the user's profile photo
// and marks the user verified when the score clears the threshold. The
// user record is only written on a pass; failed attempts leave it as is.
func (s *Service) Evaluate(ctx context.Context, userID int64, selfie io.Reader) (Result, error) {
	if userID <= 0 || selfie == nil {
		return Result{}, ErrValidation
	}
	if s.users == nil || s.photos == nil || s.comparer == nil {
		return Result{}, fmt.Errorf("verification dependencies are not configured")
	}

	checkedAt := s.now().UTC()
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("get user: %w", err)
	}

	if user.PhotoKey == "" {
		return s.failed(checkedAt, 0, ReasonNoProfilePhoto), nil
	}

	profilePhoto, err := s.photos.OpenPhoto(ctx, user.PhotoKey)
	if err != nil {
		s.logger.Warn("profile photo unavailable for verification",
			zap.Error(err), zap.Int64("user_id", userID), zap.String("photo_key", user.PhotoKey))
		return s.failed(checkedAt, 0, ReasonPhotoUnavailable), nil
	}
	defer func() {
		_ = profilePhoto.Close()
	}()

	compared, err := s.comparer.Compare(ctx, profilePhoto, selfie)
	if err != nil {
		s.logger.Warn("face comparison failed", zap.Error(err), zap.Int64("user_id", userID))
		return s.failed(checkedAt, 0, ReasonCompareUnavailable), nil
	}

	if !compared.Face1Detected || !compared.Face2Detected {
		return s.failed(checkedAt, compared.Confidence, ReasonNoFaceDetected), nil
	}
	if compared.Confidence < ConfidenceThreshold {
		return s.failed(checkedAt, compared.Confidence, ReasonLowConfidence), nil
	}

	if err := s.users.SetVerified(ctx, userID, compared.Confidence, checkedAt); err != nil {
		return Result{}, fmt.Errorf("persist verified state: %w", err)
	}

	return Result{
		Verified:   true,
		Confidence: compared.Confidence,
		Threshold:  ConfidenceThreshold,
		CheckedAt:  checkedAt,
	}, nil
}

func (s *Service) failed(checkedAt time.Time, confidence float64, reason string) Result {
	return Result{
		Confidence: confidence,
		Threshold:  ConfidenceThreshold,
		Reason:     reason,
		CheckedAt:  checkedAt,
	}
}
