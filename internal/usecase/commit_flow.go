// File: internal/usecase/commit_flow.go
package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/catalog"
	"learning-portal/internal/domain/model"
	ucport "learning-portal/internal/domain/ports/usecase"
	"learning-portal/internal/infra/logging"
)

// CommitResultKind tells the view what to do after a commit attempt.
type CommitResultKind int

const (
	// CommitNavigate means leave the view for CommitResult.Destination.
	CommitNavigate CommitResultKind = iota
	// CommitStay keeps the user on the view; ViewState carries any error.
	CommitStay
	// CommitBusy means another commit of this view was still in flight and
	// nothing was done.
	CommitBusy
	// CommitDeferred means the session has not resolved yet.
	CommitDeferred
)

type CommitResult struct {
	Kind        CommitResultKind
	Destination string
	Record      *model.SubscriptionRecord
	Err         error
}

// ViewState is the per-view state rendered by the subscription page.
type ViewState struct {
	Loading      bool
	ErrorMessage string
}

// OfferView is one catalog entry prepared for rendering.
type OfferView struct {
	ID          string
	Name        string
	Price       string
	Features    []string
	Recommended bool
	CTA         string
	Disabled    bool
}

// SubscriptionCommitFlow is the state behind one subscription page view:
// a loading flag and the last error message. At most one commit runs at a
// time per flow.
type SubscriptionCommitFlow struct {
	committer ucport.SubscriptionCommitter
	dest      Destinations
	log       *zerolog.Logger

	mu           sync.Mutex
	loading      bool
	errorMessage string
}

func NewSubscriptionCommitFlow(committer ucport.SubscriptionCommitter, dest Destinations, logger *zerolog.Logger) *SubscriptionCommitFlow {
	return &SubscriptionCommitFlow{committer: committer, dest: dest, log: logger}
}

// Commit subscribes the session's subject to planID.
func (f *SubscriptionCommitFlow) Commit(ctx context.Context, session model.Session, planID string) CommitResult {
	if session.IsResolving() {
		return CommitResult{Kind: CommitDeferred}
	}
	if !session.IsAuthenticated() {
		return CommitResult{Kind: CommitNavigate, Destination: f.dest.Login, Err: domain.ErrNotAuthenticated}
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return CommitResult{Kind: CommitBusy, Err: domain.ErrCommitInProgress}
	}
	f.loading = true
	f.errorMessage = ""
	f.mu.Unlock()

	rec, err := f.committer.Commit(ctx, session.Subject, planID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	switch {
	case err == nil:
		return CommitResult{Kind: CommitNavigate, Destination: f.dest.Home, Record: rec}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return CommitResult{Kind: CommitNavigate, Destination: f.dest.Login, Err: err}
	case errors.Is(err, domain.ErrCommitCanceled):
		// the view went away mid-commit; nothing is left to show the error on
		logging.With(ctx, f.log).Debug().Err(err).Msg("commit canceled with its view")
		return CommitResult{Kind: CommitStay, Err: err}
	default:
		f.errorMessage = err.Error()
		return CommitResult{Kind: CommitStay, Err: err}
	}
}

// State returns a snapshot of the view state.
func (f *SubscriptionCommitFlow) State() ViewState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ViewState{Loading: f.loading, ErrorMessage: f.errorMessage}
}

// Offers renders the catalog in declared order against the current state.
func (f *SubscriptionCommitFlow) Offers() []OfferView {
	loading := f.State().Loading
	plans := catalog.Plans()
	out := make([]OfferView, 0, len(plans))
	for _, p := range plans {
		out = append(out, OfferView{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.PriceLabel(),
			Features:    p.Features,
			Recommended: p.Recommended,
			CTA:         p.CTALabel(loading),
			Disabled:    loading,
		})
	}
	return out
}

// CommitViews keeps one flow per subject, standing in for the page instance
// that subject has open.
type CommitViews struct {
	committer ucport.SubscriptionCommitter
	dest      Destinations
	log       *zerolog.Logger

	mu    sync.Mutex
	views map[string]*SubscriptionCommitFlow
}

func NewCommitViews(committer ucport.SubscriptionCommitter, dest Destinations, logger *zerolog.Logger) *CommitViews {
	l := logger.With().Str("component", "SubscriptionCommitFlow").Logger()
	return &CommitViews{
		committer: committer,
		dest:      dest,
		log:       &l,
		views:     make(map[string]*SubscriptionCommitFlow),
	}
}

// For returns the flow of subjectID, creating it on first use.
func (v *CommitViews) For(subjectID string) *SubscriptionCommitFlow {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.views[subjectID]
	if !ok {
		f = NewSubscriptionCommitFlow(v.committer, v.dest, v.log)
		v.views[subjectID] = f
	}
	return f
}

// Peek returns the flow of subjectID without creating one.
func (v *CommitViews) Peek(subjectID string) (*SubscriptionCommitFlow, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.views[subjectID]
	return f, ok
}

// Render returns what the page of subjectID shows now. An idle flow is
// forgotten once rendered, so its error message is shown a single time.
func (v *CommitViews) Render(subjectID string) (ViewState, []OfferView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.views[subjectID]
	if !ok {
		f = NewSubscriptionCommitFlow(v.committer, v.dest, v.log)
	}
	state := f.State()
	offers := f.Offers()
	if ok && !state.Loading {
		delete(v.views, subjectID)
	}
	return state, offers
}

// Discard drops the view of subjectID unless a commit is still running.
func (v *CommitViews) Discard(subjectID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if f, ok := v.views[subjectID]; ok && !f.State().Loading {
		delete(v.views, subjectID)
	}
}

func (v *CommitViews) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}
