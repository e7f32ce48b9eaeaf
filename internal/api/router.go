package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/api/middleware"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/handlers"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/hub"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/store"
)

// Options carries the router's collaborators. Users, History and Redis may
// be nil when the corresponding backend is not configured.
type Options struct {
	Logger  zerolog.Logger
	Hub     *hub.Hub
	Users   store.DataStore
	History store.History
	Redis   *redis.Client
	Uploads *handlers.UploadHandler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	// Matches the upload cap; no other endpoint accepts a body near this.
	r.Use(middleware.MaxBodySize(10 << 20))

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (pass-through without Redis)
	limiter := middleware.NewRateLimiter(opts.Redis, opts.Logger)
	r.Use(limiter.Middleware)

	// CORS: the browser client is served from anywhere. GET/POST only, for
	// compatibility with the deployed frontends.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(opts.Users, opts.History, opts.Hub)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Realtime relay endpoint. The path is fixed: deployed clients dial it.
	r.Get("/api/socket", opts.Hub.ServeWS)

	// REST surface
	r.Get("/health", h.Health)
	r.Get("/online", h.OnlineUsers)
	r.Get("/user/{email}", h.GetUser)
	r.Get("/conversation/{id}/messages", h.ConversationMessages)

	if opts.Uploads != nil {
		r.Post("/upload", h.Upload(opts.Uploads))
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(opts.Uploads.Dir()))))
	}

	return r
}
