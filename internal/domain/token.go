package domain

import "time"

// TokenPair is what an issuer hands back. Remote issuers may answer with
// either refresh_token or refreshToken, both are accepted on decode.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenPayload is the verified content of an access token
type TokenPayload struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// Identity is the input to token issuance
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
