package web

import (
	"errors"
	"net/http"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/usecase"
)

var subscriberActivities = []string{
	"Counting with animals",
	"Phonics: letter sounds",
	"Shapes and colours puzzle",
	"Story time: reading together",
	"Simple science experiments",
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if s.resolver.Resolve(r).IsAuthenticated() {
		s.nav.Replace(w, r, s.dest.Home)
		return
	}
	s.renderPage(w, r, http.StatusOK, "login", pageData{Title: "Sign in"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")
	if _, err := s.auth.Parse(token); err != nil {
		s.renderPage(w, r, http.StatusUnauthorized, "login", pageData{
			Title: "Sign in",
			Error: "That sign-in token is not valid.",
		})
		return
	}
	s.auth.SetCookie(w, token)
	s.nav.Push(w, r, s.dest.Home)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if session := s.resolver.Resolve(r); session.IsAuthenticated() {
		s.views.Discard(session.Subject.ID)
	}
	s.auth.Clear(w)
	s.nav.Push(w, r, s.dest.Login)
}

func (s *Server) subscriptionPage(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	state, offers := s.views.Render(session.Subject.ID)

	data := pageData{
		Title:   "Subscription",
		Subject: session.Subject,
		Error:   state.ErrorMessage,
		Loading: state.Loading,
		Offers:  offers,
		Current: s.current(r, session.Subject.ID),
	}
	s.renderPage(w, r, http.StatusOK, "subscription", data)
}

// subscribe posts the chosen plan through the subject's flow. Anything that
// keeps the user on the page goes back to it so the view state is rendered.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	plan := r.PostFormValue("plan_id")

	res := s.views.For(session.Subject.ID).Commit(r.Context(), session, plan)
	switch res.Kind {
	case usecase.CommitNavigate:
		s.views.Discard(session.Subject.ID)
		s.nav.Push(w, r, res.Destination)
	case usecase.CommitDeferred:
		s.pages.renderDefer(w, r)
	default:
		s.nav.Push(w, r, r.URL.Path)
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	s.renderPage(w, r, http.StatusOK, "dashboard", pageData{
		Title:   "Dashboard",
		Subject: session.Subject,
		Tier:    session.Tier().String(),
		Current: s.current(r, session.Subject.ID),
	})
}

func (s *Server) activities(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	s.renderPage(w, r, http.StatusOK, "activities", pageData{
		Title:      "Activities",
		Subject:    session.Subject,
		Activities: subscriberActivities,
	})
}

func (s *Server) current(r *http.Request, userID string) *model.SubscriptionRecord {
	cur, err := s.committer.Current(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("load current subscription")
		}
		return nil
	}
	return cur
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if err := s.pages.render(w, status, name, data); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
