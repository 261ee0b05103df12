package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/catalog"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/usecase"
)

type planResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PriceCents  int64    `json:"price_cents"`
	Price       string   `json:"price"`
	Features    []string `json:"features"`
	Recommended bool     `json:"recommended"`
}

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

type subscribeResponse struct {
	Subscription *model.SubscriptionRecord `json:"subscription"`
	Redirect     string                    `json:"redirect"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) apiPlans(w http.ResponseWriter, r *http.Request) {
	plans := catalog.Plans()
	items := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, planResponse{
			ID:          p.ID,
			Name:        p.Name,
			PriceCents:  p.PriceCents,
			Price:       p.PriceLabel(),
			Features:    p.Features,
			Recommended: p.Recommended,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Items []planResponse `json:"items"`
	}{Items: items})
}

// apiSession answers for the API itself when the session is not usable.
func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	session := s.resolver.Resolve(r)
	switch {
	case session.IsResolving():
		w.Header().Set("Retry-After", strconv.Itoa(deferRetrySeconds))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "session is still resolving"})
		return session, false
	case !session.IsAuthenticated():
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: domain.ErrNotAuthenticated.Error()})
		return session, false
	}
	return session, true
}

func (s *Server) apiCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	session, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	rec, err := s.committer.Current(r.Context(), session.Subject.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no subscription"})
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("load current subscription")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load subscription"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) apiSubscribe(w http.ResponseWriter, r *http.Request) {
	session, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res := s.views.For(session.Subject.ID).Commit(r.Context(), session, req.PlanID)
	// the outcome travels in the response, nothing is left to render
	s.views.Discard(session.Subject.ID)
	switch {
	case res.Kind == usecase.CommitDeferred:
		w.Header().Set("Retry-After", strconv.Itoa(deferRetrySeconds))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "session is still resolving"})
	case res.Err != nil:
		writeJSON(w, statusForCommitError(res.Err), errorResponse{Error: res.Err.Error()})
	default:
		writeJSON(w, http.StatusCreated, subscribeResponse{Subscription: res.Record, Redirect: res.Destination})
	}
}

func statusForCommitError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownPlan), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCommitInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCommitTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCommitCanceled):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrCommitFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
