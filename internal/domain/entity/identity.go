package entity

import (
	"time"
)

// Identity is the principal issued by Firebase Auth. The gateway never writes it.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthTokens struct {
	IDToken      string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
