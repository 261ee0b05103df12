// File: internal/usecase/access_gate.go
package usecase

import (
	"github.com/rs/zerolog"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/infra/metrics"
)

// Outcome is what a guarded route should do for the current session.
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectUpgrade
	// OutcomeDefer is returned while the session is still resolving; the
	// caller should show a loading state instead of guessing.
	OutcomeDefer
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeRedirectLogin:
		return "login"
	case OutcomeRedirectUpgrade:
		return "upgrade"
	case OutcomeDefer:
		return "defer"
	default:
		return "unknown"
	}
}

// Destinations are the navigation targets shared by the gate and the commit flow.
type Destinations struct {
	Login   string
	Upgrade string
	Home    string
}

// RouteRule is declared per guarded route by the router.
type RouteRule struct {
	RequiresSubscription bool
}

// Decision pairs an outcome with where to go for the redirect outcomes.
// Reason is set for redirects and is never shown to the user.
type Decision struct {
	Outcome     Outcome
	Destination string
	Reason      error
}

// Evaluate applies the gate rules in order; the first match wins.
func Evaluate(isAuthenticated bool, tier model.Tier, requiresSubscription bool) Outcome {
	if !isAuthenticated {
		return OutcomeRedirectLogin
	}
	if requiresSubscription && !tier.IsPaid() {
		return OutcomeRedirectUpgrade
	}
	return OutcomeRender
}

// AccessGate decides guarded-route outcomes. It performs no I/O.
type AccessGate struct {
	dest Destinations
	log  *zerolog.Logger
}

func NewAccessGate(dest Destinations, logger *zerolog.Logger) *AccessGate {
	l := logger.With().Str("component", "AccessGate").Logger()
	return &AccessGate{dest: dest, log: &l}
}

func (g *AccessGate) Destinations() Destinations { return g.dest }

// Decide evaluates session against rule.
func (g *AccessGate) Decide(session model.Session, rule RouteRule) Decision {
	var d Decision
	if session.IsResolving() {
		d = Decision{Outcome: OutcomeDefer}
	} else {
		d.Outcome = Evaluate(session.IsAuthenticated(), session.Tier(), rule.RequiresSubscription)
		switch d.Outcome {
		case OutcomeRedirectLogin:
			d.Destination, d.Reason = g.dest.Login, domain.ErrNotAuthenticated
		case OutcomeRedirectUpgrade:
			d.Destination, d.Reason = g.dest.Upgrade, domain.ErrSubscriptionRequired
		}
	}

	metrics.IncAccessDecision(d.Outcome.String())
	g.log.Debug().
		Str("session", session.State.String()).
		Str("tier", session.Tier().String()).
		Bool("requires_subscription", rule.RequiresSubscription).
		Str("outcome", d.Outcome.String()).
		AnErr("reason", d.Reason).
		Msg("access decision")
	return d
}
