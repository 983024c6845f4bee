package routes

import (
	"net/http"

	"github.com/lumenauth/lumen/internal/app"
	"github.com/lumenauth/lumen/internal/handler"
	"github.com/lumenauth/lumen/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	auth := handler.NewAuthHandler(a.MagicLinkService, a.SessionService, a.Cfg)
	dashboard := handler.NewDashboardHandler(a.Cfg)

	mux := http.NewServeMux()

	// Redemption and password login share an in-memory IP guard; issuance
	// carries its own store-backed accounting.
	rateLimiter := middleware.RateLimitAuth()

	// Home
	mux.HandleFunc("GET /{$}", dashboard.HomePage)

	// Auth pages
	mux.HandleFunc("GET /auth", middleware.RequireGuest(auth.LoginPage))

	// Magic link
	mux.HandleFunc("POST /auth/magic-link", auth.SendMagicLink)
	mux.HandleFunc("GET /auth/magic-link", rateLimiter(auth.RedeemMagicLink))

	// Regular login fallthrough
	mux.HandleFunc("POST /auth/password", rateLimiter(middleware.RequireGuest(auth.PasswordAuth)))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Protected pages
	mux.HandleFunc("GET /app/dashboard", middleware.RequireAuth(dashboard.DashboardPage))

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.Config(a.Cfg), // Config must be first (context for the other middleware)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(a.SessionService, a.AccountRepository),
	)

	return h
}
