package api

import (
	"log/slog"
	"net/http"

	"github.com/dom/kavholm-api/internal/api/handlers"
	"github.com/dom/kavholm-api/internal/api/middleware"
	"github.com/dom/kavholm-api/internal/api/respond"
	"github.com/dom/kavholm-api/internal/config"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config, log *logging.SlogLogger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Slog().Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Account, services.Notifier, log.With("component", "http"))
	requireSession := middleware.Auth(services.Account, log)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/recover", authHandler.Recover)
		r.Post("/password-reset", authHandler.PasswordReset)

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/me", authHandler.Me)

			r.With(middleware.RequireAdmin(log)).Get("/admin/accounts/{username}", authHandler.GetAccount)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not Found")
	})

	return r
}
