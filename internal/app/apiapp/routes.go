package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/sparkmatch/internal/services/auth"
	discoverysvc "github.com/ivankudzin/sparkmatch/internal/services/discovery"
	matchessvc "github.com/ivankudzin/sparkmatch/internal/services/matches"
	mediasvc "github.com/ivankudzin/sparkmatch/internal/services/media"
	messagessvc "github.com/ivankudzin/sparkmatch/internal/services/messages"
	profilesvc "github.com/ivankudzin/sparkmatch/internal/services/profiles"
	verificationsvc "github.com/ivankudzin/sparkmatch/internal/services/verification"
	"github.com/ivankudzin/sparkmatch/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	ProfileService      *profilesvc.Service
	MediaService        *mediasvc.Service
	MatchService        *matchessvc.Service
	MessageService      *messagessvc.Service
	DiscoveryService    *discoverysvc.Service
	VerificationService *verificationsvc.Service
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.MediaService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	discoveryHandler := handlers.NewDiscoveryHandler(deps.DiscoveryService, deps.MediaService)
	swipeHandler := handlers.NewSwipeHandler(deps.DiscoveryService, deps.MediaService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.MediaService)
	messagesHandler := handlers.NewMessagesHandler(deps.MessageService)
	verificationHandler := handlers.NewVerificationHandler(deps.VerificationService, deps.MediaService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Get("/me", profileHandler.Me)
		r.With(authMW).Post("/profile/onboarding", profileHandler.Onboarding)
		r.With(authMW).Post("/media/photo", mediaHandler.PhotoUpload)
		r.With(authMW).Get("/discover", discoveryHandler.Candidates)
		r.With(authMW).Post("/swipes", swipeHandler.Handle)
		r.With(authMW).Get("/matches", matchesHandler.List)
		r.With(authMW).Get("/matches/events", matchesHandler.Events)
		r.With(authMW).Post("/matches/sweep", matchesHandler.Sweep)
		r.With(authMW).Post("/matches/{id}/messages", messagesHandler.Send)
		r.With(authMW).Get("/matches/{id}/messages", messagesHandler.List)
		r.With(authMW).Get("/matches/{id}/messages/events", messagesHandler.Events)
		r.With(authMW).Post("/matches/{id}/read", messagesHandler.MarkRead)
		r.With(authMW).Post("/unmatch", matchesHandler.Unmatch)
		r.With(authMW).Post("/verification/selfie", verificationHandler.Selfie)
	})
}
