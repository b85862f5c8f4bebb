package service

import (
	"context"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxPage      = 1_000_000
	MaxLimit     = 100
)

// Page is a 1-based page request
type Page struct {
	Page  int `query:"page" validate:"gte=1,lte=1000000"`
	Limit int `query:"limit" validate:"gte=1,lte=100"`
}

// Offset clamps both fields to their valid range so the result is never
// negative, even for a Page that skipped validation.
func (p Page) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	limit := min(max(p.Limit, 1), MaxLimit)
	return (page - 1) * limit
}

type AdminService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	searchRepo  repository.SearchRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	searchRepo repository.SearchRepository,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		searchRepo:  searchRepo,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, p Page) ([]*domain.PublicUser, int, error) {
	users, total, err := s.userRepo.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrInternal(err)
	}

	out := make([]*domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, total, nil
}

func (s *AdminService) ListSessions(ctx context.Context, p Page) ([]*domain.Session, int, error) {
	sessions, total, err := s.sessionRepo.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrInternal(err)
	}
	return sessions, total, nil
}

func (s *AdminService) ListSearches(ctx context.Context, p Page) ([]*domain.Search, int, error) {
	searches, total, err := s.searchRepo.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrInternal(err)
	}
	return searches, total, nil
}
