package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "news_results": [
    {"title": "Metro line opens", "source": {"name": "City Times"}, "link": "https://n.test/1", "snippet": "New line", "date": "2 hours ago", "thumbnail": "https://img.test/1.jpg"},
    {"title": "Rain alert", "source": {}, "link": "https://n.test/2"}
  ]
}`

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_SearchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Pune news today", q.Get("q"))
		assert.Equal(t, "nws", q.Get("tbm"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "10", q.Get("num"))
		assert.Equal(t, "en", q.Get("hl"))
		assert.Equal(t, "in", q.Get("gl"))
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	res, err := c.SearchNews(context.Background(), "Pune")
	require.NoError(t, err)

	assert.Equal(t, "Pune news today", res.Query)
	assert.Equal(t, "Pune", res.City)
	assert.Equal(t, 2, res.TotalResults)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, "City Times", res.Articles[0].Source)
	require.NotNil(t, res.Articles[0].PublishedAt)
	assert.Equal(t, "2 hours ago", *res.Articles[0].PublishedAt)
	assert.Equal(t, "Unknown", res.Articles[1].Source)
	assert.Nil(t, res.Articles[1].Thumbnail)
}

func TestClient_SearchNews_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid API key."}`))
	}))
	defer srv.Close()

	c, err := NewClient("bad", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.SearchNews(context.Background(), "Pune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key.")
}

func TestClient_SearchNews_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewClient("key", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.SearchNews(context.Background(), "Pune")
	assert.Error(t, err)
}

type stubProvider struct {
	calls  int
	result *domain.NewsResult
	err    error
}

func (s *stubProvider) SearchNews(_ context.Context, city string) (*domain.NewsResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	r.City = city
	r.Query = Query(city)
	return &r, nil
}

func TestCachedProvider_HitsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	stub := &stubProvider{result: &domain.NewsResult{Articles: []domain.NewsArticle{{Title: "a"}}, TotalResults: 1}}
	p := NewCachedProvider(stub, client, time.Minute)

	first, err := p.SearchNews(context.Background(), "Pune")
	require.NoError(t, err)
	second, err := p.SearchNews(context.Background(), "pune")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, first.Articles, second.Articles)
	assert.Equal(t, "pune", second.City)
	assert.True(t, mr.Exists("news:city:pune"))

	mr.FastForward(2 * time.Minute)
	_, err = p.SearchNews(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestCachedProvider_DegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	stub := &stubProvider{result: &domain.NewsResult{}}
	p := NewCachedProvider(stub, client, time.Minute)

	_, err := p.SearchNews(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	stub := &stubProvider{err: errors.New("upstream down")}
	p := NewCachedProvider(stub, client, time.Minute)

	_, err := p.SearchNews(context.Background(), "Pune")
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}
