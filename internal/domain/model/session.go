package model

// SessionState says how far session resolution got for a request.
type SessionState int

const (
	// SessionResolving means a token was presented but the subject behind it
	// could not be loaded yet.
	SessionResolving SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionResolving:
		return "resolving"
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is passed explicitly to the access gate and the commit flow.
type Session struct {
	State   SessionState
	Subject *Subject
}

func AnonymousSession() Session { return Session{State: SessionAnonymous} }

func ResolvingSession() Session { return Session{State: SessionResolving} }

func AuthenticatedSession(s *Subject) Session {
	if s.IsZero() {
		return AnonymousSession()
	}
	return Session{State: SessionAuthenticated, Subject: s}
}

func (s Session) IsAuthenticated() bool {
	return s.State == SessionAuthenticated && !s.Subject.IsZero()
}

func (s Session) IsResolving() bool { return s.State == SessionResolving }

// Tier returns TierNone when there is no subject.
func (s Session) Tier() Tier {
	if s.Subject == nil {
		return TierNone
	}
	return s.Subject.Tier
}
