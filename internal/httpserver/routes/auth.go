package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/handlers"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	// Credential endpoints are brute-force targets, so they sit
	// behind a per-IP token bucket.
	limited := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.LoginRateBurst,
		RefillPerMin: d.LoginRatePerMin,
		TrustProxy:   d.TrustProxy,
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(limited).Post("/register", handlers.Register(d))
		r.With(limited).Post("/login", handlers.Login(d))
		r.Post("/logout", handlers.Logout(d))
		r.With(mw.RequireAuth(d.Sessions, d.Logger)).Get("/me", handlers.Me(d))
	})
}
