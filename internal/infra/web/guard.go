package web

import (
	"net/http"

	"github.com/rs/zerolog"

	"learning-portal/internal/infra/logging"
	"learning-portal/internal/usecase"
)

// Guard puts a route behind the access gate.
type Guard struct {
	gate     *usecase.AccessGate
	resolver *SessionResolver
	nav      Navigator
	pages    *pages
	log      *zerolog.Logger
}

func NewGuard(gate *usecase.AccessGate, resolver *SessionResolver, logger *zerolog.Logger) *Guard {
	return &Guard{gate: gate, resolver: resolver, pages: mustPages(), log: logger}
}

// Require resolves the session, asks the gate about rule and either renders
// the route with the session on its context, redirects, or shows the
// waiting page.
func (g *Guard) Require(rule usecase.RouteRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := g.resolver.Resolve(r)
			d := g.gate.Decide(session, rule)

			switch d.Outcome {
			case usecase.OutcomeRender:
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
			case usecase.OutcomeDefer:
				logging.With(r.Context(), g.log).Debug().Str("path", r.URL.Path).Msg("session resolving; deferring")
				g.pages.renderDefer(w, r)
			default:
				logging.With(r.Context(), g.log).Debug().Err(d.Reason).Str("path", r.URL.Path).Msg("access denied")
				g.nav.Replace(w, r, d.Destination)
			}
		})
	}
}
