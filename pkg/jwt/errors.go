package jwt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenIssuance  = errors.New("token issuance failed")
	ErrMissingSubject = errors.New("token missing subject claim")
	ErrKeyNotFound    = errors.New("signing key not found in key set")
)

// InvalidTokenError is returned by ChainVerifier when no strategy accepts a
// token. Cause is the failure of the first strategy tried; failures of the
// later ones are only logged.
type InvalidTokenError struct {
	Cause error
}

func (e *InvalidTokenError) Error() string {
	if e.Cause == nil {
		return ErrInvalidToken.Error()
	}
	return fmt.Sprintf("%s: %v", ErrInvalidToken, e.Cause)
}

func (e *InvalidTokenError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidToken}
	}
	return []error{ErrInvalidToken, e.Cause}
}

// Attempt records one try at obtaining a token
type Attempt struct {
	Strategy string
	Endpoint string
	Status   int
	Err      error
}

func (a Attempt) String() string {
	var b strings.Builder
	b.WriteString(a.Strategy)
	if a.Endpoint != "" {
		b.WriteString(" ")
		b.WriteString(a.Endpoint)
	}
	if a.Status != 0 {
		fmt.Fprintf(&b, " status=%d", a.Status)
	}
	if a.Err != nil {
		fmt.Fprintf(&b, " error=%q", a.Err.Error())
	}
	return b.String()
}

// IssuanceError lists every endpoint or strategy tried before giving up
type IssuanceError struct {
	Attempts []Attempt
}

func (e *IssuanceError) Error() string {
	if len(e.Attempts) == 0 {
		return "unable to obtain token: no token issuers configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return "unable to obtain token: " + strings.Join(parts, "; ")
}

func (e *IssuanceError) Unwrap() error {
	return ErrTokenIssuance
}
