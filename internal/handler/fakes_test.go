package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/google/uuid"
)

type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	sessions map[uuid.UUID]*domain.Session
	searches []*domain.Search
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*domain.User{},
		sessions: map[uuid.UUID]*domain.Session{},
	}
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) UpdateCity(_ context.Context, id uuid.UUID, city string) (*domain.User, error) {
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

func (r memUsers) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (r memUsers) List(_ context.Context, limit, offset int) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, limit, offset), len(all), nil
}

type memSessions struct{ *memStore }

func (r memSessions) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r memSessions) GetByID(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) Close(_ context.Context, id uuid.UUID, logoutTime time.Time, durationSeconds int64) (*domain.Session, error) {
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

func (r memSessions) List(_ context.Context, limit, offset int) ([]*domain.Session, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LoginTime.After(all[j].LoginTime) })
	return window(all, limit, offset), len(all), nil
}

type memSearches struct{ *memStore }

func (r memSearches) Create(_ context.Context, s *domain.Search) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, s)
	return nil
}

func (r memSearches) List(_ context.Context, limit, offset int) ([]*domain.Search, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.searches, limit, offset), len(r.searches), nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
