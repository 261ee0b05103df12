package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	ucport "learning-portal/internal/domain/ports/usecase"
	"learning-portal/internal/infra/metrics"
	"learning-portal/internal/usecase"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Auth           *AuthManager
	Resolver       *SessionResolver
	Gate           *usecase.AccessGate
	Views          *usecase.CommitViews
	Committer      ucport.SubscriptionCommitter
	Checks         map[string]HealthCheck
	Addr           string
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

type Server struct {
	auth      *AuthManager
	resolver  *SessionResolver
	guard     *Guard
	views     *usecase.CommitViews
	committer ucport.SubscriptionCommitter
	dest      usecase.Destinations
	checks    map[string]HealthCheck
	nav       Navigator
	pages     *pages
	log       *zerolog.Logger

	router chi.Router
	server *http.Server
}

func NewServer(d Deps) *Server {
	l := d.Logger.With().Str("component", "web").Logger()
	s := &Server{
		auth:      d.Auth,
		resolver:  d.Resolver,
		guard:     NewGuard(d.Gate, d.Resolver, &l),
		views:     d.Views,
		committer: d.Committer,
		dest:      d.Gate.Destinations(),
		checks:    d.Checks,
		pages:     mustPages(),
		log:       &l,
	}
	s.router = s.routes(d.RequestTimeout)
	s.server = &http.Server{
		Addr:              d.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(timeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(timeout))

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) { s.nav.Replace(w, r, s.dest.Home) })
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.guard.Require(usecase.RouteRule{}))
		r.Get("/subscription", s.subscriptionPage)
		r.Post("/subscription", s.subscribe)
		r.Get("/dashboard", s.dashboard)
	})
	r.With(s.guard.Require(usecase.RouteRule{RequiresSubscription: true})).Get("/activities", s.activities)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.apiPlans)
		r.Get("/subscription", s.apiCurrentSubscription)
		r.Post("/subscription", s.apiSubscribe)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	if len(status) == 0 {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}
	writeJSON(w, code, status)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
