// Package session owns the session-token lifecycle for fenster.
//
// A logged-in user holds one TokenPair: a short-lived auth token presented
// on every request and a longer-lived refresh token used solely to mint a
// new auth token. Both are opaque random strings. All state lives in a
// shared key-value store (Redis):
//
//	<user_id> -> TokenPair (JSON)
//	<token>   -> <user_id> (reverse index, one entry per live token)
//
// Keys carry no TTL; expiry is enforced by the application on every
// authenticated request. The store is the single source of truth: the
// authentication gate re-derives the current pair from the user id rather
// than trusting the caller-held bearer value, so revocation and refresh
// performed by a concurrent request are observed immediately.
package session
