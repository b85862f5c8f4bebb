package jwt

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/andressep95/city-news-api/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	defaultJWKSTTL        = time.Hour
	defaultMinRefresh     = time.Minute
	defaultJWKSTimeout    = 5 * time.Second
	maxJWKSResponseSize   = 1 << 20
	jwksSingleflightGroup = "jwks"
)

// JWKS is the published key set document
type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"` // Key Type
	Use string `json:"use"` // Public Key Use
	Kid string `json:"kid"` // Key ID
	Alg string `json:"alg"` // Algorithm
	N   string `json:"n"`   // Modulus
	E   string `json:"e"`   // Exponent
}

// KeySet is a lazily fetched, TTL-refreshed cache of a remote JWKS.
//
// Keys are fetched on first use and again once the TTL has elapsed. An unknown
// kid forces an early refresh, at most once per minRefresh, to pick up
// rotated keys. Concurrent refreshes collapse into a single HTTP request; a
// failed refresh keeps serving the previous keys.
type KeySet struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

type KeySetOption func(*KeySet)

func WithKeySetTTL(ttl time.Duration) KeySetOption {
	return func(s *KeySet) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithKeySetHTTPClient(c *http.Client) KeySetOption {
	return func(s *KeySet) {
		s.client = c
	}
}

func WithKeySetClock(now func() time.Time) KeySetOption {
	return func(s *KeySet) {
		s.now = now
	}
}

func WithMinRefreshInterval(d time.Duration) KeySetOption {
	return func(s *KeySet) {
		s.minRefresh = d
	}
}

func NewKeySet(url string, opts ...KeySetOption) *KeySet {
	s := &KeySet{
		url:        url,
		client:     &http.Client{Timeout: defaultJWKSTimeout},
		ttl:        defaultJWKSTTL,
		minRefresh: defaultMinRefresh,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the public key for kid. An empty kid is accepted only when the
// set holds exactly one key.
func (s *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	keys, fetchedAt := s.snapshot()

	if keys == nil || s.now().Sub(fetchedAt) >= s.ttl {
		fresh, err := s.refresh(ctx)
		if err != nil {
			if keys == nil {
				return nil, err
			}
			logger.Warnw(ctx, "JWKS refresh failed, serving cached keys", "url", s.url, "error", err)
		} else {
			keys, fetchedAt = fresh, s.now()
		}
	}

	if key, err := lookup(keys, kid); err == nil {
		return key, nil
	}

	// Possibly a rotated key
	if kid != "" && s.now().Sub(fetchedAt) >= s.minRefresh {
		fresh, err := s.refresh(ctx)
		if err != nil {
			return nil, err
		}
		return lookup(fresh, kid)
	}

	return lookup(keys, kid)
}

func (s *KeySet) snapshot() (map[string]*rsa.PublicKey, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys, s.fetchedAt
}

func (s *KeySet) refresh(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	v, err, _ := s.group.Do(jwksSingleflightGroup, func() (interface{}, error) {
		// Detached from the caller: other waiters share this fetch
		keys, err := s.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.keys = keys
		s.fetchedAt = s.now()
		s.mu.Unlock()

		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*rsa.PublicKey), nil
}

func (s *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch JWKS: unexpected status %d", resp.StatusCode)
	}

	var doc JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSResponseSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			logger.Warnw(ctx, "skipping malformed JWK", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("JWKS at %s contains no usable RSA signing keys", s.url)
	}

	return keys, nil
}

func (k JWK) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exp.Int64()),
	}, nil
}

// NewJWK renders an RSA public key as a JWK
func NewJWK(pub *rsa.PublicKey, kid string) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func lookup(keys map[string]*rsa.PublicKey, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		if len(keys) == 1 {
			for _, k := range keys {
				return k, nil
			}
		}
		return nil, fmt.Errorf("%w: token has no kid and key set holds %d keys", ErrKeyNotFound, len(keys))
	}
	if key, ok := keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}
