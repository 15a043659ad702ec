package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	signupHandler *handlers.SignupHandler,
	unlockHandler *handlers.UnlockHandler,
	accountHandler *handlers.AccountHandler,
	tokenManager *auth.TokenManager,
) {
	// Rate limiting config for auth endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/otp/send", authHandler.SendLoginOTP)
		r.Post("/auth/otp/verify", authHandler.VerifyLoginOTP)
		r.Post("/auth/magic-link/send", authHandler.SendMagicLink)
		r.Post("/auth/magic-link/verify", authHandler.VerifyMagicLink)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Post("/signup/otp/send", signupHandler.SendOTP)
		r.Post("/signup/otp/verify", signupHandler.VerifyOTP)
		r.Post("/signup/complete", signupHandler.Complete)

		r.Post("/auth/unlock/request", unlockHandler.Request)
		r.Post("/auth/unlock/verify", unlockHandler.Verify)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Get("/auth/me", accountHandler.Me)
		r.Get("/auth/history", accountHandler.History)
	})
}
