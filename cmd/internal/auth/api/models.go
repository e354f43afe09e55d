package authapi

import (
	"fenster/cmd/identity"
	"fenster/cmd/internal/auth/session"
)

type registerRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the wire shape of an issued session. It reuses the
// session package's JSON layout: nested auth_token/refresh_token objects
// with token + expiration (epoch ms).
type tokenResponse = session.TokenPair

type userResponse struct {
	User identity.User `json:"user"`
}
