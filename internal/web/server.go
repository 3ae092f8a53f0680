package web

import (
	"log/slog"
	"net/http"
	"time"

	"potterylog/internal/auth"
	"potterylog/internal/service"
	"potterylog/internal/signedurl"
	"potterylog/internal/store"
)

type Server struct {
	catalog            *service.CatalogService
	users              *store.UserStore
	issuer             *auth.TokenIssuer
	signer             *signedurl.Signer
	minFrontendVersion string
	mux                *http.ServeMux
	logger             *slog.Logger
}

func NewServer(
	catalog *service.CatalogService,
	users *store.UserStore,
	issuer *auth.TokenIssuer,
	signer *signedurl.Signer,
	minFrontendVersion string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		catalog:            catalog,
		users:              users,
		issuer:             issuer,
		signer:             signer,
		minFrontendVersion: minFrontendVersion,
		mux:                http.NewServeMux(),
		logger:             logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)
	s.mux.HandleFunc("POST /api/token", s.handleToken)

	// Photo binaries authenticate via signed query parameters, not tokens.
	s.mux.HandleFunc("GET /photos/{key...}", s.handleGetPhotoObject)

	requireAuth := auth.Middleware(s.issuer, s.logger)
	protected := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, requireAuth(h))
	}

	protected("GET /api/items", s.handleListItems)
	protected("POST /api/items", s.handleCreateItem)
	protected("GET /api/items/{id}", s.handleGetItem)
	protected("PUT /api/items/{id}", s.handleUpdateItem)
	protected("DELETE /api/items/{id}", s.handleDeleteItem)
	// Mobile clients post to the collection with a trailing slash.
	protected("POST /api/items/{id}/photos", s.handleUploadPhoto)
	protected("POST /api/items/{id}/photos/{$}", s.handleUploadPhoto)
	protected("PUT /api/items/{id}/photos/{photoId}", s.handleUpdatePhoto)
	protected("DELETE /api/items/{id}/photos/{photoId}", s.handleDeletePhoto)
	protected("PATCH /api/items/{id}/photos/{photoId}/primary", s.handleSetPrimaryPhoto)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Pottery Log API!"})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// HTTPServer wraps the handler in an http.Server with sane timeouts. The
// write timeout is generous because photo uploads can be large and slow.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
