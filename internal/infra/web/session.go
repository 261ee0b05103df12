package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
	"learning-portal/internal/infra/logging"
)

// SessionResolver turns a request's token into a Session.
type SessionResolver struct {
	auth     *AuthManager
	subjects repository.SubjectRepository
	log      *zerolog.Logger
}

func NewSessionResolver(auth *AuthManager, subjects repository.SubjectRepository, logger *zerolog.Logger) *SessionResolver {
	return &SessionResolver{auth: auth, subjects: subjects, log: logger}
}

// Resolve never fails: a missing or bad token is anonymous, an unknown
// subject is anonymous, and a lookup that could not complete is resolving.
func (s *SessionResolver) Resolve(r *http.Request) model.Session {
	claims, err := s.auth.ParseFromRequest(r)
	if err != nil {
		return model.AnonymousSession()
	}

	ctx := r.Context()
	subject, err := s.subjects.FindSubject(ctx, repository.NoTX, claims.Subject)
	switch {
	case err == nil:
		return model.AuthenticatedSession(subject)
	case errors.Is(err, domain.ErrNotFound):
		return model.AnonymousSession()
	default:
		logging.With(ctx, s.log).Warn().Err(err).Str("subject", claims.Subject).Msg("subject lookup failed; session left resolving")
		return model.ResolvingSession()
	}
}

type sessionKey struct{}

func withSession(ctx context.Context, s model.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	if s.IsAuthenticated() {
		ctx = logging.WithUserID(ctx, s.Subject.ID)
	}
	return ctx
}

// SessionFrom returns the session a guard stored on ctx.
func SessionFrom(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(model.Session)
	return s, ok
}
