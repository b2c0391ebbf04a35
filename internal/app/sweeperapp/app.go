package sweeperapp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/sparkmatch/internal/config"
	"github.com/ivankudzin/sparkmatch/internal/jobs/sweeper"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/sparkmatch/internal/repo/redis"
	matchessvc "github.com/ivankudzin/sparkmatch/internal/services/matches"
)

const defaultInterval = 5 * time.Minute

// App runs the expired-match sweep on a fixed interval. It is deployed
// as its own process so API restarts never skip a sweep cycle.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	job      *sweeper.Job
	postgres *pgxpool.Pool
	redis    *goredis.Client
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	matchesService := matchessvc.NewService(matchessvc.Dependencies{
		Pool:         pool,
		MatchStore:   pgrepo.NewMatchRepo(pool),
		MessageStore: pgrepo.NewMessageRepo(pool),
		ChangeFeed:   redrepo.NewChangeFeedRepo(redisClient),
		Logger:       log,
	})

	return &App{
		cfg:      cfg,
		logger:   log,
		job:      sweeper.New(matchesService, log),
		postgres: pool,
		redis:    redisClient,
	}, nil
}

// Run sweeps immediately, then on every tick until the context ends.
func (a *App) Run(ctx context.Context) error {
	interval := a.cfg.Sweeper.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	a.logger.Info("sweeper started", zap.Duration("interval", interval))

	if err := a.job.Run(ctx); err != nil {
		a.logger.Error("sweep pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.job.Run(ctx); err != nil {
				a.logger.Error("sweep pass failed", zap.Error(err))
			}
		}
	}
}

func (a *App) Shutdown() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
