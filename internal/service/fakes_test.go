package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*domain.User
	getErr       error
	createErr    error
	lastLoginErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateCity(_ context.Context, id uuid.UUID, city string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.City = &city
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastLoginErr != nil {
		return r.lastLoginErr
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), len(all), nil
}

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*domain.Session
	createErr error
	// closeHook runs before Close applies, to simulate a concurrent logout
	closeHook func(id uuid.UUID)
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*domain.Session{}}
}

func (r *fakeSessionRepo) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.IsOpen() {
			n++
		}
	}
	return n
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Close(_ context.Context, id uuid.UUID, logoutTime time.Time, durationSeconds int64) (*domain.Session, error) {
	if r.closeHook != nil {
		r.closeHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !s.IsOpen() {
		return nil, repository.ErrAlreadyClosed
	}
	s.LogoutTime = &logoutTime
	s.DurationSeconds = &durationSeconds
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) List(_ context.Context, limit, offset int) ([]*domain.Session, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LoginTime.After(all[j].LoginTime) })
	return page(all, limit, offset), len(all), nil
}

type fakeSearchRepo struct {
	mu        sync.Mutex
	searches  []*domain.Search
	createErr error
}

func (r *fakeSearchRepo) Create(_ context.Context, s *domain.Search) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.searches = append(r.searches, s)
	return nil
}

func (r *fakeSearchRepo) List(_ context.Context, limit, offset int) ([]*domain.Search, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.searches, limit, offset), len(r.searches), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

type fakeIssuer struct {
	calls int
	err   error
}

func (f *fakeIssuer) Issue(_ context.Context, id domain.Identity) (*domain.TokenPair, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TokenPair{Token: "token-for-" + id.Email, RefreshToken: "refresh"}, nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[token] = expiresAt
	return nil
}

type fakeRecorder struct {
	logins          map[string]int
	closed          int
	searchLogFailed int
}

func (f *fakeRecorder) ObserveLogin(outcome string) {
	if f.logins == nil {
		f.logins = map[string]int{}
	}
	f.logins[outcome]++
}
func (f *fakeRecorder) ObserveSessionClosed()    { f.closed++ }
func (f *fakeRecorder) ObserveSearchLogFailure() { f.searchLogFailed++ }

type fakeProvider struct {
	err error
}

func (f *fakeProvider) SearchNews(_ context.Context, city string) (*domain.NewsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.NewsResult{
		Query:        city + " news today",
		City:         city,
		Articles:     []domain.NewsArticle{{Title: "t", Source: "s", URL: "u"}},
		TotalResults: 1,
	}, nil
}
