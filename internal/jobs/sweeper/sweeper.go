package sweeper

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type matchSweeper interface {
	SweepAllExpired(ctx context.Context) (int64, error)
}

// Job runs one pass of the expired-match sweep. Scheduling is the
// caller's concern; the job itself is a single idempotent pass.
type Job struct {
	sweeper matchSweeper
	logger  *zap.Logger
}

func New(sweeper matchSweeper, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		sweeper: sweeper,
		logger:  logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return nil
	}

	removed, err := j.sweeper.SweepAllExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired matches: %w", err)
	}
	if removed > 0 {
		j.logger.Info("expired match sweep completed", zap.Int64("removed", removed))
	} else {
		j.logger.Debug("expired match sweep completed", zap.Int64("removed", removed))
	}
	return nil
}
