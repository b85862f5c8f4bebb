// Package newsapi fetches city news from SerpAPI's Google News engine.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
)

const (
	DefaultBaseURL   = "https://serpapi.com/search"
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 4 << 20
)

var ErrMissingAPIKey = errors.New("SERP_API_KEY is not configured")

// Provider returns news for a city
type Provider interface {
	SearchNews(ctx context.Context, city string) (*domain.NewsResult, error)
}

// Client is a SerpAPI news search client
type Client struct {
	apiKey   string
	baseURL  string
	results  int
	language string
	country  string
	http     *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLocale sets the result count, interface language and country
func WithLocale(results int, language, country string) Option {
	return func(c *Client) {
		if results > 0 {
			c.results = results
		}
		if language != "" {
			c.language = language
		}
		if country != "" {
			c.country = country
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		results:  10,
		language: "en",
		country:  "in",
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type serpResponse struct {
	NewsResults []struct {
		Title  string `json:"title"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Link      string  `json:"link"`
		Snippet   string  `json:"snippet"`
		Date      *string `json:"date"`
		Thumbnail *string `json:"thumbnail"`
	} `json:"news_results"`
	Error string `json:"error"`
}

// Query returns the search phrase sent for city
func Query(city string) string {
	return city + " news today"
}

func (c *Client) SearchNews(ctx context.Context, city string) (*domain.NewsResult, error) {
	query := Query(city)

	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "nws")
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(c.results))
	params.Set("hl", c.language)
	params.Set("gl", c.country)

	logger.FromContext(ctx).Infow("Fetching news from SERP API", "city", city, "query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}
	defer resp.Body.Close()

	var data serpResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		return nil, fmt.Errorf("serpapi: failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if data.Error != "" {
		logger.Errorw(ctx, "SERP API returned error", "error", data.Error)
		return nil, fmt.Errorf("SERP API Error: %s", data.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi: unexpected status %d", resp.StatusCode)
	}

	articles := make([]domain.NewsArticle, 0, len(data.NewsResults))
	for _, item := range data.NewsResults {
		source := item.Source.Name
		if source == "" {
			source = "Unknown"
		}
		articles = append(articles, domain.NewsArticle{
			Title:       item.Title,
			Source:      source,
			URL:         item.Link,
			Snippet:     item.Snippet,
			PublishedAt: item.Date,
			Thumbnail:   item.Thumbnail,
		})
	}

	return &domain.NewsResult{
		Query:        query,
		City:         city,
		Articles:     articles,
		TotalResults: len(articles),
	}, nil
}
