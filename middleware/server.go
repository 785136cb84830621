package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mrpasztoradam/goadsym"
)

// Server represents the HTTP server
type Server struct {
	config     *Config
	logger     goadsym.Logger
	middleware *Middleware
	handler    *Handler
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new HTTP server over client.
func NewServer(config *Config, client *goadsym.Client, logger goadsym.Logger) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if logger == nil {
		logger = goadsym.DefaultLogger
	}

	mw := NewMiddleware(client, config, logger)
	s := &Server{
		config:     config,
		logger:     logger,
		middleware: mw,
		handler:    NewHandler(mw),
	}
	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	if s.config.Server.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
			AllowedMethods:   s.config.Server.CORS.AllowedMethods,
			AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
			AllowCredentials: s.config.Server.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/symbols", func(r chi.Router) {
			r.Get("/", s.handler.HandleGetSymbolTable)
			r.Post("/read", s.handler.HandleBatchRead)
			r.Post("/write", s.handler.HandleBatchWrite)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handler.HandleGetSymbolInfo)
				r.Get("/value", s.handler.HandleReadSymbol)
				r.Post("/value", s.handler.HandleWriteSymbol)
				r.Get("/raw", s.handler.HandleReadRaw)
			})
		})

		r.Post("/verify", s.handler.HandleVerify)
		r.Get("/paths/persistent", s.handler.HandlePersistent)
		r.Get("/paths/by-type", s.handler.HandlePathsByType)

		r.Get("/health", s.handler.HandleHealth)
		r.Get("/info", s.handler.HandleInfo)
		r.Get("/version", s.handler.HandleGetVersion)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"name":    "goadsym HTTP API",
			"version": goadsym.Version(),
			"api":     "/api/v1",
		})
	})

	s.router = r
}

// requestLogger logs one line per request and tags the request context so
// client log lines carry the request ID.
func requestLogger(logger goadsym.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := goadsym.ContextWithLogFields(r.Context(), "request_id", chimiddleware.GetReqID(r.Context()))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			goadsym.LoggerFromContext(ctx, logger).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting server", "address", s.config.Address(), "api", "http://"+s.config.Address()+"/api/v1")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the chi router (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
