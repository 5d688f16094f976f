package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carematch/internal/admin"
	"carematch/internal/auth"
	"carematch/internal/email"
	"carematch/internal/handlers"
	"carematch/internal/middleware"
	"carematch/internal/models"
	"carematch/internal/requests"
	"carematch/internal/shortlist"
)

// Store is everything the HTTP surface needs from persistence.
// *db.DB satisfies it in production.
type Store interface {
	auth.AccountStore
	requests.Store
	shortlist.Store
	admin.Store
	handlers.CategoryLister
	handlers.Pinger
}

// RegisterRoutes registers all application routes. notifier may be nil.
func (s *Server) RegisterRoutes(ctx context.Context, store Store, notifier *email.Notifier) error {
	logger := slog.Default()

	// Initialize services
	authn := auth.NewAuthenticator(store, logger)
	requestManager := requests.NewManager(store, logger)
	shortlistManager := shortlist.NewManager(store, logger)
	adminManager := admin.NewManager(store, logger)
	if notifier != nil {
		shortlistManager.SetNotifier(notifier)
		adminManager.SetNotifier(notifier)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authn)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authn)
	probeHandler := handlers.NewProbeHandler(store)
	categoryHandler := handlers.NewCategoryHandler(store)
	pinHandler := handlers.NewPinHandler(requestManager, shortlistManager)
	csrHandler := handlers.NewCSRHandler(requestManager, shortlistManager)
	adminHandler := handlers.NewAdminHandler(adminManager)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	s.App.Post("/login", loginLimiter(s.Cfg.RateLimitMax), authHandler.Login)
	s.App.Post("/logout", authHandler.Logout)
	s.App.Get("/logout", authHandler.Logout)
	s.App.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	if s.Cfg.OIDCEnabled() {
		if err := authHandler.EnableOIDC(ctx, s.Cfg); err != nil {
			slog.Warn("OIDC login disabled", "error", err)
		} else {
			s.App.Get("/auth/oidc/login", authHandler.OIDCLogin)
			s.App.Get("/auth/oidc/callback", authHandler.OIDCCallback)
		}
	} else {
		slog.Info("OIDC login disabled, set OIDC_ISSUER and OIDC_CLIENT_ID to enable")
	}

	s.App.Get("/site", authHandler.Branding(s.Cfg))
	s.App.Get("/categories", authMiddleware.RequireAuth, categoryHandler.List)

	// Requester routes
	pin := s.App.Group("/pin", authMiddleware.RequireAuth, authMiddleware.RequireRole(models.RolePIN))
	pin.Get("/dashboard", pinHandler.Dashboard)
	pin.Get("/requests", pinHandler.List)
	pin.Post("/requests", pinHandler.Create)
	pin.Get("/requests/:id", pinHandler.Get)
	pin.Put("/requests/:id", pinHandler.Update)
	pin.Delete("/requests/:id", pinHandler.Delete)
	pin.Get("/requests/:id/counters", pinHandler.Counters)
	pin.Post("/requests/:id/match", pinHandler.RecordMatch)
	pin.Get("/match-records", pinHandler.MatchRecords)

	// Reviewer routes
	csr := s.App.Group("/csr", authMiddleware.RequireAuth, authMiddleware.RequireRole(models.RoleCSR))
	csr.Get("/dashboard", csrHandler.Dashboard)
	csr.Get("/requests", csrHandler.Browse)
	csr.Get("/requests/:id", csrHandler.View)
	csr.Post("/requests/:id/shortlist", csrHandler.AddToShortlist)
	csr.Get("/shortlist", csrHandler.Shortlist)
	csr.Delete("/shortlist/:id", csrHandler.RemoveFromShortlist)
	csr.Get("/matches", csrHandler.Matches)

	// Admin routes
	adm := s.App.Group("/admin", authMiddleware.RequireAuth, authMiddleware.RequireRole(models.RoleAdmin))
	adm.Get("/dashboard", adminHandler.Dashboard)
	adm.Get("/accounts", adminHandler.ListAccounts)
	adm.Post("/accounts", adminHandler.CreateAccount)
	adm.Get("/accounts/:id", adminHandler.GetAccount)
	adm.Put("/accounts/:id", adminHandler.UpdateAccount)
	adm.Post("/accounts/:id/suspend", adminHandler.SuspendAccount)
	adm.Post("/accounts/:id/activate", adminHandler.ActivateAccount)
	adm.Get("/profiles", adminHandler.ListProfiles)
	adm.Post("/profiles", adminHandler.CreateProfile)
	adm.Get("/profiles/:id", adminHandler.GetProfile)
	adm.Put("/profiles/:id", adminHandler.UpdateProfile)
	adm.Get("/profiles/:id/accounts", adminHandler.ProfileAccounts)
	adm.Post("/profiles/:id/suspend", adminHandler.SuspendProfile)
	adm.Post("/profiles/:id/activate", adminHandler.ActivateProfile)

	return nil
}
