package service

import (
	"context"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/andressep95/city-news-api/pkg/newsapi"
	"github.com/google/uuid"
)

type NewsService struct {
	provider   newsapi.Provider
	searchRepo repository.SearchRepository
	recorder   Recorder
	now        func() time.Time
}

type NewsQuery struct {
	City      string `query:"city" validate:"required,min=1,max=100"`
	SessionID string `query:"sessionId" validate:"required,uuid"`
}

func NewNewsService(provider newsapi.Provider, searchRepo repository.SearchRepository, recorder Recorder) *NewsService {
	return &NewsService{
		provider:   provider,
		searchRepo: searchRepo,
		recorder:   recorderOrNop(recorder),
		now:        time.Now,
	}
}

// Search fetches news for city and records the search. Recording is
// best-effort and never fails the lookup.
func (s *NewsService) Search(ctx context.Context, principal domain.Principal, sessionID uuid.UUID, city string) (*domain.NewsResult, error) {
	news, err := s.provider.SearchNews(ctx, city)
	if err != nil {
		return nil, domain.ErrBadGateway("Failed to fetch news", err)
	}

	search := &domain.Search{
		ID:          uuid.New(),
		UserID:      principal.UserID,
		SessionID:   sessionID,
		SearchQuery: news.Query,
		City:        city,
		Timestamp:   pgTime(s.now()),
	}
	if err := s.searchRepo.Create(ctx, search); err != nil {
		s.recorder.ObserveSearchLogFailure()
		logger.Errorw(ctx, "Failed to log search to DB", "user_id", principal.UserID, "session_id", sessionID, "error", err)
	}

	return news, nil
}
