// Package server is a development stand-in for the Livee auth and admin APIs.
// It serves the login, refresh and business moderation endpoints the console
// talks to.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/livee-admin-console/internal/config"
	"github.com/jrsteele09/livee-admin-console/server/businessrepo"
	"github.com/jrsteele09/livee-admin-console/token"
	"github.com/jrsteele09/livee-admin-console/token/refresh"
	"github.com/jrsteele09/livee-admin-console/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Repos groups the stores the server reads and writes.
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
	Businesses    businessrepo.Repo
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	repos    Repos
	tokens   *token.Manager
	log      zerolog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	nowFunc  func() time.Time

	generatedPassword string
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

// WithRegistry serves and registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

func New(config config.Config, repos Repos, opts ...Option) (*Server, error) {
	if repos.Users == nil || repos.RefreshTokens == nil || repos.Businesses == nil {
		return nil, fmt.Errorf("[Server New] users, refresh token and business repos are required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		repos:   repos,
		tokens:  token.NewManager(config, repos.RefreshTokens, repos.Users),
		log:     zerolog.Nop(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livee_devserver",
		Name:      "http_requests_total",
		Help:      "Requests served by the dev server, by method, route and status code.",
	}, []string{"method", "route", "code"})
	if err := s.registry.Register(s.requests); err != nil {
		return nil, fmt.Errorf("[Server New] failed to register metrics: %w", err)
	}

	// Bootstrap: ensure the admin user and the sample businesses exist
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// GeneratedAdminPassword returns the password created for the admin on first
// start, or "" when it came from configuration or the admin already existed.
func (s *Server) GeneratedAdminPassword() string {
	return s.generatedPassword
}

func (s *Server) now() time.Time {
	return s.nowFunc().UTC()
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}
