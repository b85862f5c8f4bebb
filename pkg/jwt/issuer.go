package jwt

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultRequestTimeout   = 5 * time.Second
	defaultIssuanceBudget   = 15 * time.Second
	defaultAccessTokenTTL   = time.Hour
	refreshTokenBytes       = 32
	maxIssuanceResponseSize = 1 << 20
)

// DefaultIssuancePaths are probed in order against the remote authority
var DefaultIssuancePaths = []string{
	"/auth/issue",
	"/api/auth/issue",
	"/v1/auth/issue",
	"/auth/token",
	"/api/auth/token",
	"/api/token",
	"/auth",
	"/api/auth",
}

// Issuer obtains an access/refresh token pair for an identity
type Issuer interface {
	Name() string
	Issue(ctx context.Context, id domain.Identity) (*domain.TokenPair, error)
}

// RemoteIssuer asks the remote authority for tokens, probing a fixed list of
// paths. A 404 moves on to the next path, anything else ends the probe.
type RemoteIssuer struct {
	baseURL        string
	client         *http.Client
	requestTimeout time.Duration
	budget         time.Duration
	paths          []string
}

type RemoteIssuerOption func(*RemoteIssuer)

func WithHTTPClient(c *http.Client) RemoteIssuerOption {
	return func(r *RemoteIssuer) {
		r.client = c
	}
}

func WithRequestTimeout(d time.Duration) RemoteIssuerOption {
	return func(r *RemoteIssuer) {
		if d > 0 {
			r.requestTimeout = d
		}
	}
}

func WithBudget(d time.Duration) RemoteIssuerOption {
	return func(r *RemoteIssuer) {
		if d > 0 {
			r.budget = d
		}
	}
}

func WithPaths(paths ...string) RemoteIssuerOption {
	return func(r *RemoteIssuer) {
		r.paths = paths
	}
}

func NewRemoteIssuer(baseURL string, opts ...RemoteIssuerOption) *RemoteIssuer {
	r := &RemoteIssuer{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{},
		requestTimeout: defaultRequestTimeout,
		budget:         defaultIssuanceBudget,
		paths:          DefaultIssuancePaths,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteIssuer) Name() string { return StrategyRemote }

type issueRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type issueResponse struct {
	Token             string `json:"token"`
	RefreshToken      string `json:"refresh_token"`
	RefreshTokenCamel string `json:"refreshToken"`
}

// Issue returns the first token pair handed out. On failure the returned
// error is an *IssuanceError holding every attempt.
func (r *RemoteIssuer) Issue(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	attempts, pair := r.probe(ctx, id)
	if pair != nil {
		return pair, nil
	}
	return nil, &IssuanceError{Attempts: attempts}
}

func (r *RemoteIssuer) probe(ctx context.Context, id domain.Identity) ([]Attempt, *domain.TokenPair) {
	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	body, err := json.Marshal(issueRequest{Email: id.Email, Name: id.Name})
	if err != nil {
		return []Attempt{{Strategy: StrategyRemote, Err: err}}, nil
	}

	attempts := make([]Attempt, 0, len(r.paths))
	for _, path := range r.paths {
		endpoint := r.baseURL + path
		pair, status, err := r.post(ctx, endpoint, body)
		if err == nil {
			return attempts, pair
		}

		attempts = append(attempts, Attempt{Strategy: StrategyRemote, Endpoint: endpoint, Status: status, Err: err})
		if status != http.StatusNotFound {
			break
		}
	}

	return attempts, nil
}

func (r *RemoteIssuer) post(ctx context.Context, endpoint string, body []byte) (*domain.TokenPair, int, error) {
	// per-request timeout; the client may be shared
	ctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxIssuanceResponseSize))
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out issueResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIssuanceResponseSize)).Decode(&out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Token == "" {
		return nil, resp.StatusCode, errors.New("response has no token")
	}

	refresh := out.RefreshToken
	if refresh == "" {
		refresh = out.RefreshTokenCamel
	}

	return &domain.TokenPair{Token: out.Token, RefreshToken: refresh}, resp.StatusCode, nil
}

// LocalIssuer signs HS256 tokens with the shared secret. Its output is
// accepted by LocalVerifier built from the same secret and issuer.
type LocalIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type LocalIssuerOption func(*LocalIssuer)

func WithTTL(ttl time.Duration) LocalIssuerOption {
	return func(l *LocalIssuer) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) LocalIssuerOption {
	return func(l *LocalIssuer) {
		l.now = now
	}
}

func NewLocalIssuer(secret, issuer string, opts ...LocalIssuerOption) *LocalIssuer {
	l := &LocalIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    defaultAccessTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalIssuer) Name() string { return StrategyLocal }

func (l *LocalIssuer) Issue(_ context.Context, id domain.Identity) (*domain.TokenPair, error) {
	if l.issuer == "" {
		return nil, errors.New("issuer is required for local token signing")
	}

	now := l.now().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    l.issuer,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
		Email: id.Email,
		Name:  id.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh, err := randomHex(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{Token: token, RefreshToken: refresh}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ChainIssuer tries each issuer in order and returns the first token pair
type ChainIssuer struct {
	issuers  []Issuer
	recorder Recorder
}

func NewChainIssuer(issuers []Issuer, opts ...ChainOption) *ChainIssuer {
	o := chainOptions{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}

	chain := make([]Issuer, 0, len(issuers))
	for _, i := range issuers {
		if i != nil && !isNilIssuer(i) {
			chain = append(chain, i)
		}
	}

	return &ChainIssuer{issuers: chain, recorder: o.recorder}
}

func (c *ChainIssuer) Name() string { return "chain" }

func (c *ChainIssuer) Issue(ctx context.Context, id domain.Identity) (*domain.TokenPair, error) {
	var attempts []Attempt

	for idx, issuer := range c.issuers {
		pair, err := issuer.Issue(ctx, id)
		c.recorder.ObserveIssuance(issuer.Name(), err == nil)
		if err == nil {
			if idx > 0 {
				logger.Warnw(ctx, fmt.Sprintf("token issued by %s after earlier issuers failed", issuer.Name()),
					"strategy", issuer.Name(),
					"attempts", attemptStrings(attempts),
				)
			}
			return pair, nil
		}

		var issErr *IssuanceError
		if errors.As(err, &issErr) {
			attempts = append(attempts, issErr.Attempts...)
		} else {
			attempts = append(attempts, Attempt{Strategy: issuer.Name(), Err: err})
		}
	}

	logger.Errorw(ctx, "all token issuers failed", "attempts", attemptStrings(attempts))
	return nil, &IssuanceError{Attempts: attempts}
}

func attemptStrings(attempts []Attempt) []string {
	out := make([]string, len(attempts))
	for i, a := range attempts {
		out[i] = a.String()
	}
	return out
}

func isNilIssuer(i Issuer) bool {
	switch t := i.(type) {
	case *RemoteIssuer:
		return t == nil
	case *LocalIssuer:
		return t == nil
	}
	return false
}
