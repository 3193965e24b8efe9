package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Options configure the router.
type Options struct {
	// AllowedOrigins are the browser origins allowed by CORS.
	AllowedOrigins []string
	// RatePerMin is the per-client request budget for /api/v1; 0 disables limiting.
	RatePerMin int
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// Ready backs /healthz; nil means always healthy.
	Ready func(context.Context) error
	// TrustProxy takes the client address from X-Forwarded-For, X-Real-IP and
	// True-Client-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// Routes builds the HTTP handler.
//
//	POST   /api/v1/auth/signup
//	POST   /api/v1/auth/signin
//	POST   /api/v1/auth/signout          bearer only
//	GET    /api/v1/auth/me
//	GET    /api/v1/account
//	POST   /api/v1/account/api-key
//	GET    /api/v1/account/totp/qr.png   enrollment QR code
//	POST   /api/v1/account/totp/verify
//	GET    /api/v1/groups
//	POST   /api/v1/groups
//	DELETE /api/v1/groups/{id}           removes member credentials too
//	GET    /api/v1/credentials
//	POST   /api/v1/credentials
//	PATCH  /api/v1/credentials/{id}      value only
//	DELETE /api/v1/credentials/{id}
//	GET    /api/v1/vault
func (h *Handler) Routes(o Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if o.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(h.log))
	r.Use(recoverer(h.log))
	r.Use(instrument)

	r.Get("/healthz", healthz(o.Ready))
	if o.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if o.RatePerMin > 0 {
			r.Use(newIPLimiter(o.RatePerMin).middleware)
		}
		r.Use(chimw.AllowContentType("application/json"))

		r.Post("/auth/signup", h.signUp)
		r.Post("/auth/signin", h.signIn)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Post("/auth/signout", h.signOut)
			r.Get("/auth/me", h.me)

			r.Get("/account", h.getAccount)
			r.Post("/account/api-key", h.regenerateAPIKey)
			r.Get("/account/totp/qr.png", h.totpQRCode)
			r.Post("/account/totp/verify", h.verifyTOTP)

			r.Get("/groups", h.listGroups)
			r.Post("/groups", h.createGroup)
			r.Delete("/groups/{id}", h.deleteGroup)

			r.Get("/credentials", h.listCredentials)
			r.Post("/credentials", h.createCredential)
			r.Patch("/credentials/{id}", h.updateCredential)
			r.Delete("/credentials/{id}", h.deleteCredential)

			r.Get("/vault", h.getVault)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
	})
	return c.Handler(r)
}
