package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/sparkmatch/internal/config"
	"github.com/ivankudzin/sparkmatch/internal/infra/facecompare"
	"github.com/ivankudzin/sparkmatch/internal/infra/httpclient"
	s3infra "github.com/ivankudzin/sparkmatch/internal/infra/s3"
	pgrepo "github.com/ivankudzin/sparkmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/sparkmatch/internal/repo/redis"
	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	discoverysvc "github.com/ivankudzin/sparkmatch/internal/services/discovery"
	matchessvc "github.com/ivankudzin/sparkmatch/internal/services/matches"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	messagessvc "github.com/ivankudzin/sparkmatch/internal/services/messages"
	profilesvc "github.com/ivankudzin/sparkmatch/internal/services/profiles"
	verificationsvc "github.com/ivankudzin/sparkmatch/internal/services/verification"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	changeFeedRepo := redrepo.NewChangeFeedRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)
	profileService := profilesvc.NewService(userRepo)

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(userRepo, mediaStorage)

	matchesService := matchessvc.NewService(matchessvc.Dependencies{
		Pool:         pool,
		MatchStore:   matchRepo,
		MessageStore: messageRepo,
		ChangeFeed:   changeFeedRepo,
		Logger:       log,
	})
	messagesService := messagessvc.NewService(messagessvc.Dependencies{
		MessageStore:     messageRepo,
		MatchReader:      matchRepo,
		ActivityRecorder: matchesService,
		ChangeFeed:       changeFeedRepo,
		Logger:           log,
	})
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		UserStore:    userRepo,
		SwipeStore:   swipeRepo,
		MatchCreator: matchesService,
		PageSize:     cfg.Discovery.PageSize,
	})

	comparer := facecompare.NewClient(httpclient.New(cfg.Verification.Timeout), facecompare.Config{
		URL:       cfg.Verification.CompareURL,
		APIKey:    cfg.Verification.APIKey,
		APISecret: cfg.Verification.APISecret,
	})
	verificationService := verificationsvc.NewService(verificationsvc.Dependencies{
		UserStore:   userRepo,
		PhotoSource: mediaService,
		Comparer:    comparer,
		Logger:      log,
	})

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		ProfileService:      profileService,
		MediaService:        mediaService,
		MatchService:        matchesService,
		MessageService:      messagesService,
		DiscoveryService:    discoveryService,
		VerificationService: verificationService,
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
