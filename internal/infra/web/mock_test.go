//go:build !integration

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"learning-portal/internal/config"
	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/usecase"
)

const testSecret = "test-session-secret-that-is-long-enough"

// fakeSubjects is an in-memory subject repository.
type fakeSubjects struct {
	mu   sync.Mutex
	byID map[string]*model.Subject
	err  error
}

func newFakeSubjects(subjects ...*model.Subject) *fakeSubjects {
	f := &fakeSubjects{byID: map[string]*model.Subject{}}
	for _, s := range subjects {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSubjects) FindSubject(ctx context.Context, tx repository.Tx, id string) (*model.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubjects) EnsureUser(ctx context.Context, tx repository.Tx, id, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		f.byID[id] = &model.Subject{ID: id, Tier: model.TierFree}
	}
	return nil
}

// fakeCommitter records plans and answers with commitErr when set.
type fakeCommitter struct {
	mu        sync.Mutex
	commitErr error
	records   map[string]*model.SubscriptionRecord
	plans     []string
}

func newFakeCommitter() *fakeCommitter {
	return &fakeCommitter{records: map[string]*model.SubscriptionRecord{}}
}

func (f *fakeCommitter) Commit(ctx context.Context, subject *model.Subject, planID string) (*model.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, planID)
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	rec, err := model.NewSubscriptionRecord(subject.ID, planID, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	rec.ID = "01HSUB"
	f.records[subject.ID] = rec
	return rec, nil
}

func (f *fakeCommitter) Current(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (f *fakeCommitter) committedPlans() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.plans...)
}

var testDest = usecase.Destinations{Login: "/login", Upgrade: "/subscription", Home: "/dashboard"}

type testEnv struct {
	srv       *Server
	auth      *AuthManager
	subjects  *fakeSubjects
	committer *fakeCommitter
}

func newTestEnv(t *testing.T, subjects ...*model.Subject) *testEnv {
	t.Helper()
	logger := logging.Nop()
	auth := NewAuthManager(config.AuthConfig{SessionSecret: testSecret, SessionTTL: time.Hour})
	subs := newFakeSubjects(subjects...)
	committer := newFakeCommitter()
	srv := NewServer(Deps{
		Auth:      auth,
		Resolver:  NewSessionResolver(auth, subs, logger),
		Gate:      usecase.NewAccessGate(testDest, logger),
		Views:     usecase.NewCommitViews(committer, testDest, logger),
		Committer: committer,
		Logger:    logger,
	})
	return &testEnv{srv: srv, auth: auth, subjects: subs, committer: committer}
}

// do sends a request, signed as subjectID when it is not empty.
func (e *testEnv) do(t *testing.T, req *http.Request, subjectID string) *httptest.ResponseRecorder {
	t.Helper()
	if subjectID != "" {
		tok, err := e.auth.Token(subjectID, "")
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: "session", Value: tok})
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}
