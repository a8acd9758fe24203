package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/secmon-lab/folio/pkg/domain/model"
	"github.com/secmon-lab/folio/pkg/service/index"
	"github.com/secmon-lab/folio/pkg/utils/logging"
)

// ChatUseCase answers chat messages
type ChatUseCase interface {
	Chat(ctx context.Context, message string) (*model.ChatResult, error)
}

// ContentUseCase serves the portfolio listings
type ContentUseCase interface {
	ListProjects(ctx context.Context) ([]*model.Project, error)
	ListBlogs(ctx context.Context) ([]*model.Blog, error)
	GetBlog(ctx context.Context, slug string) (*model.Blog, error)
}

// IndexUseCase rebuilds the retrieval index on demand. RequestRebuild must
// not block on the rebuild itself.
type IndexUseCase interface {
	RequestRebuild(ctx context.Context) (bool, error)
}

// IndexStats reports the state of the installed index snapshot
type IndexStats interface {
	Stats() index.Stats
}

type Server struct {
	router         *chi.Mux
	chatUC         ChatUseCase
	contentUC      ContentUseCase
	indexUC        IndexUseCase
	indexStats     IndexStats
	metricsHandler http.Handler
	chatLimiter    *clientLimiter
	allowedOrigins []string
}

type Options func(*Server)

func WithIndex(uc IndexUseCase, stats IndexStats) Options {
	return func(s *Server) {
		s.indexUC = uc
		s.indexStats = stats
	}
}

// WithMetricsHandler exposes h at /metrics
func WithMetricsHandler(h http.Handler) Options {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithChatRateLimit limits chat requests per client address. A non-positive
// rps disables the limit.
func WithChatRateLimit(rps float64, burst int) Options {
	return func(s *Server) {
		s.chatLimiter = newClientLimiter(rps, burst)
	}
}

// WithAllowedOrigins restricts CORS origins. All origins are allowed by
// default.
func WithAllowedOrigins(origins ...string) Options {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

func New(chatUC ChatUseCase, contentUC ContentUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		chatUC:         chatUC,
		contentUC:      contentUC,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(withRequestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.With(s.chatLimiter.middleware).Post("/chat", chatHandler(s.chatUC))

		r.Get("/projects", projectsHandler(s.contentUC))
		r.Get("/blogs", blogsHandler(s.contentUC))
		r.Get("/blogs/{slug}", blogHandler(s.contentUC))

		if s.indexUC != nil {
			r.Post("/index/rebuild", rebuildHandler(s.indexUC))
		}
		r.Get("/health", healthHandler(s.indexStats))
	})

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// withRequestLogger attaches a logger carrying the request ID to the context
func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
