package handlers

import (
	"net/http"
	"time"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Deps are the services the HTTP layer needs
type Deps struct {
	Auth           *services.AuthService
	Images         *services.ImageService
	Pairs          *services.PairService
	Reviews        *services.ReviewsService
	Hub            *services.WSHub
	AllowedOrigin  string
	MaxUploadBytes int64
	LoginLimiter   *middleware.RateLimiter
}

// NewRouter wires every route of the site backend
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth)
	imageHandler := NewImageHandler(d.Images, d.Pairs, d.MaxUploadBytes)
	reviewsHandler := NewReviewsHandler(d.Reviews)
	wsHandler := NewWebSocketHandler(d.Hub, d.Auth, d.AllowedOrigin)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.PeerAddr)
	r.Use(chiMiddleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigin))

	r.Get("/healthz", Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/reviews", reviewsHandler.GetReviews)

		r.Route("/public", func(r chi.Router) {
			r.Get("/images/{category}", imageHandler.ListPublicImages)
			r.Get("/pairs", imageHandler.ListPairs)
			r.Get("/categories", imageHandler.Categories)
		})

		r.Route("/admin", func(r chi.Router) {
			login := http.Handler(http.HandlerFunc(authHandler.Login))
			if d.LoginLimiter != nil {
				login = d.LoginLimiter.Middleware(login)
			}
			r.Method(http.MethodPost, "/login", login)
			r.Get("/ws", wsHandler.HandleWebSocket)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(d.Auth))
				r.Get("/verify", authHandler.Verify)
				r.Get("/images/{category}", imageHandler.ListImages)
				r.Post("/upload", imageHandler.Upload)
				r.Delete("/delete/*", imageHandler.Delete)
				r.Post("/move", imageHandler.Move)
			})
		})
	})

	return r
}

// requestIDLogger adds chi's request id to the request logger
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chiMiddleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
