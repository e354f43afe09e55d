package session

import "time"

// AccessToken is an opaque random token plus its absolute expiration in
// milliseconds since the Unix epoch. Immutable once created.
type AccessToken struct {
	Token      string `json:"token"`
	Expiration int64  `json:"expiration"`
}

// Expired reports whether the token's expiration has already passed.
// The check is advisory: the store never purges entries on its own.
func (t AccessToken) Expired(now time.Time) bool {
	return now.UnixMilli() >= t.Expiration
}

// ExpiresAt returns the expiration as a time.Time.
func (t AccessToken) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expiration)
}

// TokenPair is one user's active session: an auth token and a refresh
// token. At most one pair is valid per user id at any time; creating a new
// pair or refreshing invalidates prior auth tokens for that user.
type TokenPair struct {
	AuthToken    AccessToken `json:"auth_token"`
	RefreshToken AccessToken `json:"refresh_token"`
}
