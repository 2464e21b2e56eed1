package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/contacts-api/internal/api/handlers"
	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/avatar"
	"github.com/isdelr/contacts-api/internal/services"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg RouterConfig,
	verifier auth.TokenVerifier,
	accountService services.AccountServiceProvider,
	contactService services.ContactServiceProvider,
	eventService services.EventServiceProvider,
	avatars *avatar.Processor,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(accountService, avatars, cfg.MaxUploadBytes)
	contactHandler := handlers.NewContactHandler(contactService)
	eventHandler := handlers.NewEventHandler(eventService)
	requireAuth := auth.JWTMiddleware(verifier, accountService)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle(avatar.PublicPrefix+"*", http.StripPrefix(avatar.PublicPrefix, http.FileServer(http.Dir(avatars.Dir()))))

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Post("/verify", userHandler.SendVerification)
		r.Get("/verify/{code}", userHandler.Verify)
		r.Post("/resend-verify", userHandler.ResendVerification)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", userHandler.Logout)
			r.Post("/logout-all", userHandler.LogoutAll)
			r.Get("/current", userHandler.Current)
			r.Patch("/", userHandler.UpdateSubscription)
			r.Patch("/avatars", userHandler.UpdateAvatar)
			r.Get("/activity", eventHandler.GetRecent)
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", contactHandler.GetAll)
		r.Post("/", contactHandler.Create)
		r.Get("/favorite", contactHandler.GetFavorites)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", contactHandler.Get)
			r.Put("/", contactHandler.Update)
			r.Delete("/", contactHandler.Delete)
			r.Patch("/favorite", contactHandler.UpdateFavorite)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not found"}`))
	})

	return r
}
