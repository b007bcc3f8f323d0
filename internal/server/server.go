package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lazypower/ephemeral/internal/engine"
	"github.com/lazypower/ephemeral/internal/observability"
)

// Server is the ephemeral HTTP API server.
type Server struct {
	eng      *engine.Engine
	router   chi.Router
	version  string
	started  time.Time
	logger   *zap.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// New creates a new Server around eng. logger and metrics may be nil.
func New(eng *engine.Engine, version string, logger *zap.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		eng:     eng,
		version: version,
		started: time.Now(),
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/algorithms", s.handleAlgorithms)

		r.Post("/forget", s.handleForget)
		r.Get("/session", s.handleSession)
		r.Get("/session/ws", s.handleSessionWS)

		r.Get("/archive", s.handleArchiveList)
		r.Get("/archive/stats", s.handleArchiveStats)
		r.Delete("/archive", s.handleArchiveClear)
	})

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Everything else goes to the embedded UI.
	r.Get("/*", spaHandler())

	s.router = r
}

// sameOrigin only lets browsers on this host open the event stream. Clients
// without an Origin header are not browsers and are allowed.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
