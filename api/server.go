// Package api is a development stand-in for the RentAIAgent backend. It
// serves the registration, login, product and email endpoints the client
// consumes, keeps users in memory and exposes Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rentaiagent/core/catalog"
	"rentaiagent/internal/config"
	"rentaiagent/internal/logging"
)

// Config holds stub server configuration
type Config struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeout for requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// MaxBodySize limits request body size
	MaxBodySize int64 `json:"max_body_size"`

	// EnableCORS enables CORS headers
	EnableCORS bool `json:"enable_cors"`

	// AllowedOrigins for CORS
	AllowedOrigins []string `json:"allowed_origins"`

	// Endpoints maps endpoint keys to route paths
	Endpoints map[string]string `json:"endpoints"`

	// SigningKey signs issued tokens
	SigningKey []byte `json:"-"`

	// TokenTTL is the lifetime of a token; RememberTTL applies when the
	// login asks to be remembered
	TokenTTL    time.Duration `json:"token_ttl"`
	RememberTTL time.Duration `json:"remember_ttl"`

	// FailRegister makes registration answer 503, FailEmail makes both
	// email endpoints answer 503
	FailRegister bool `json:"fail_register"`
	FailEmail    bool `json:"fail_email"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        ":8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxBodySize:    1 << 20,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		Endpoints:      config.DefaultEndpoints(),
		SigningKey:     []byte("rentai-development-signing-key"),
		TokenTTL:       time.Hour,
		RememberTTL:    7 * 24 * time.Hour,
	}
}

// SentEmail is an email accepted by one of the email endpoints
type SentEmail struct {
	Endpoint         string
	To               string
	Subject          string
	Text             string
	ReplyTo          string
	RegistrationData interface{}
	ReceivedAt       time.Time
}

// Server is the stub backend
type Server struct {
	config   *Config
	users    *UserStore
	catalog  *catalog.Catalog
	registry *prometheus.Registry
	metrics  *metrics
	logger   *zap.Logger
	router   chi.Router
	server   *http.Server
	now      func() time.Time

	// mu guards server and emails
	mu     sync.Mutex
	emails []SentEmail
}

// NewServer creates a stub server. A nil config uses DefaultConfig and a
// nil logger uses the global logger.
func NewServer(cfg *Config, cat *catalog.Catalog, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Endpoints == nil {
		cfg.Endpoints = config.DefaultEndpoints()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	registry := prometheus.NewRegistry()

	s := &Server{
		config:   cfg,
		users:    NewUserStore(),
		catalog:  cat,
		registry: registry,
		metrics:  newMetrics(registry),
		logger:   logging.Named(logger, "stub-backend"),
		now:      time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)

	ep := s.config.Endpoints
	r.Post(ep[config.EndpointRegister], s.handleRegister)
	r.Post(ep[config.EndpointLogin], s.handleLogin)
	r.Get(ep[config.EndpointProducts], s.handleCatalog)
	r.Get(ep[config.EndpointMyProducts], s.handleMyProducts)
	r.Post(ep[config.EndpointEmail], s.handleEmail)
	r.Post(ep[config.EndpointEmailAlt], s.handleEmailAlt)
	r.Get(ep[config.EndpointHealth], s.handleHealth)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Users returns the user store
func (s *Server) Users() *UserStore {
	return s.users
}

// Emails returns the emails received so far
func (s *Server) Emails() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentEmail(nil), s.emails...)
}

// Start listens on the configured address
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("stub backend listening", zap.String("address", s.config.Address))
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
