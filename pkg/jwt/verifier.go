package jwt

import (
	"context"
	"errors"
	"fmt"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"
)

// Verifier checks an access token and returns its payload
type Verifier interface {
	Name() string
	Verify(ctx context.Context, token string) (*domain.TokenPayload, error)
}

// RemoteVerifier accepts RS256 tokens signed by the remote authority, with
// keys taken from its JWKS endpoint.
type RemoteVerifier struct {
	keys   *KeySet
	issuer string
}

func NewRemoteVerifier(keys *KeySet, issuer string) *RemoteVerifier {
	return &RemoteVerifier{keys: keys, issuer: issuer}
}

func (v *RemoteVerifier) Name() string { return StrategyRemote }

func (v *RemoteVerifier) Verify(ctx context.Context, tokenString string) (*domain.TokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims.payload()
}

// LocalVerifier accepts HS256 tokens signed with the shared local secret
type LocalVerifier struct {
	secret []byte
	issuer string
}

func NewLocalVerifier(secret, issuer string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *LocalVerifier) Name() string { return StrategyLocal }

func (v *LocalVerifier) Verify(_ context.Context, tokenString string) (*domain.TokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims.payload()
}

// ChainVerifier tries each verifier in order and returns the first success
type ChainVerifier struct {
	verifiers []Verifier
	recorder  Recorder
}

type ChainOption func(*chainOptions)

type chainOptions struct {
	recorder Recorder
}

func WithRecorder(r Recorder) ChainOption {
	return func(o *chainOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// NewChainVerifier builds a chain; nil entries are skipped so callers can pass
// optional strategies unconditionally.
func NewChainVerifier(verifiers []Verifier, opts ...ChainOption) *ChainVerifier {
	o := chainOptions{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}

	chain := make([]Verifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil && !isNilVerifier(v) {
			chain = append(chain, v)
		}
	}

	return &ChainVerifier{verifiers: chain, recorder: o.recorder}
}

func (c *ChainVerifier) Name() string { return "chain" }

// Strategies lists the configured verifier names in order
func (c *ChainVerifier) Strategies() []string {
	names := make([]string, len(c.verifiers))
	for i, v := range c.verifiers {
		names[i] = v.Name()
	}
	return names
}

func (c *ChainVerifier) Verify(ctx context.Context, token string) (*domain.TokenPayload, error) {
	if len(c.verifiers) == 0 {
		return nil, &InvalidTokenError{Cause: errors.New("no token verifiers configured")}
	}

	var first error
	for _, v := range c.verifiers {
		payload, err := v.Verify(ctx, token)
		c.recorder.ObserveVerification(v.Name(), err == nil)
		if err == nil {
			return payload, nil
		}

		if first == nil {
			first = fmt.Errorf("%s: %w", v.Name(), err)
			continue
		}
		logger.Warnw(ctx, "token verification failed", "strategy", v.Name(), "error", err)
	}

	return nil, &InvalidTokenError{Cause: first}
}

func isNilVerifier(v Verifier) bool {
	switch t := v.(type) {
	case *RemoteVerifier:
		return t == nil
	case *LocalVerifier:
		return t == nil
	}
	return false
}
