package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fenster/cmd/internal/fault"
)

var errNegativeEpoch = errors.New("session: expiration before epoch")

// maxTokenAttempts bounds regeneration when a freshly minted token collides
// with a live reverse-index entry. Collisions are astronomically unlikely at
// 16 chars over a 70-symbol alphabet; hitting the bound means the RNG or the
// store is broken, so we fail loudly instead of looping.
const maxTokenAttempts = 5

// Manager drives the session-token lifecycle against a Store. Safe for
// concurrent use; per-user mutations are serialized through an advisory
// lock in the store so two instances of the service behave like one.
type Manager struct {
	store Store
	cfg   Config
	log   *slog.Logger

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// NewManager wires a Manager. A nil logger discards session events.
func NewManager(store Store, cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, cfg: cfg, log: log, now: time.Now}
}

// ReservedUserID reports whether id lies inside the key namespace the
// session store keeps for its own bookkeeping. A record written under such
// an id would shadow another user's lock key, so registration rejects them.
func ReservedUserID(id string) bool {
	return strings.HasPrefix(id, lockPrefix)
}

// Create mints a fresh TokenPair for userID, stores it under the user's key
// and writes both reverse indices. Any previously indexed tokens for this
// user are removed first, so at most one pair is live per user.
func (m *Manager) Create(ctx context.Context, userID string) (TokenPair, error) {
	const op = "session.create"

	if ReservedUserID(userID) {
		// The HTTP layer rejects these at registration; reaching this point
		// means a caller skipped that check.
		return TokenPair{}, fault.Internal(fault.SubsystemGeneral, 6, op, errors.New("reserved user id"))
	}

	unlock, err := m.lockUser(ctx, op, userID)
	if err != nil {
		return TokenPair{}, err
	}
	defer unlock()

	if err := m.dropExistingPair(ctx, userID); err != nil {
		return TokenPair{}, err
	}

	now := m.now()
	auth, err := m.uniqueToken(ctx, op, now, m.cfg.AuthTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.uniqueToken(ctx, op, now, m.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}

	pair := TokenPair{AuthToken: auth, RefreshToken: refresh}
	raw, err := encodePair(pair)
	if err != nil {
		return TokenPair{}, err
	}

	err = m.store.SetMulti(ctx, map[string]string{
		userID:        raw,
		auth.Token:    userID,
		refresh.Token: userID,
	})
	if err != nil {
		return TokenPair{}, err
	}

	m.log.InfoContext(ctx, "session created",
		slog.String("user_id", userID),
		slog.Int64("auth_expiration", auth.Expiration),
		slog.Int64("refresh_expiration", refresh.Expiration),
	)
	return pair, nil
}

// UserIDFromToken resolves a presented token through the reverse index.
// An unknown token is an authentication failure, not an internal error.
func (m *Manager) UserIDFromToken(ctx context.Context, tok string) (string, error) {
	const op = "session.user_from_token"

	userID, err := m.store.Get(ctx, tok)
	if errors.Is(err, errMissing) {
		return "", fault.Unauthorized(op, "unknown token")
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// TokenFromUserID returns the stored TokenPair for userID. A missing record
// here means the caller resolved a user id from a live index but the pair
// record is gone: state is inconsistent, so this is internal, not 401.
func (m *Manager) TokenFromUserID(ctx context.Context, userID string) (TokenPair, error) {
	const op = "session.token_from_user"

	raw, err := m.store.Get(ctx, userID)
	if errors.Is(err, errMissing) {
		return TokenPair{}, fault.Internal(fault.SubsystemRedis, 8, op, errMissing)
	}
	if err != nil {
		return TokenPair{}, err
	}
	return decodePair(raw)
}

// FindToken resolves a presented token to the full current TokenPair of its
// owner, by chaining the reverse index and the pair record.
func (m *Manager) FindToken(ctx context.Context, tok string) (TokenPair, error) {
	userID, err := m.UserIDFromToken(ctx, tok)
	if err != nil {
		return TokenPair{}, err
	}
	return m.TokenFromUserID(ctx, userID)
}

// Authenticate validates a bearer auth token and returns the owning user id.
// The store is consulted on every call: the token must still be indexed, it
// must be the CURRENT auth token of its pair (not a refresh token, not a
// stale predecessor), and it must not be expired.
func (m *Manager) Authenticate(ctx context.Context, tok string) (string, error) {
	const op = "session.authenticate"

	userID, err := m.UserIDFromToken(ctx, tok)
	if err != nil {
		return "", err
	}
	pair, err := m.TokenFromUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if pair.AuthToken.Token != tok {
		return "", fault.Unauthorized(op, "not an auth token")
	}
	if pair.AuthToken.Expired(m.now()) {
		return "", fault.Unauthorized(op, "auth token expired")
	}
	return userID, nil
}

// RefreshAccess exchanges a live refresh token for a new auth token. The
// refresh token itself is not rotated and keeps its original expiration.
// The old auth token stops resolving immediately.
func (m *Manager) RefreshAccess(ctx context.Context, refreshTok string) (TokenPair, error) {
	const op = "session.refresh"

	userID, err := m.UserIDFromToken(ctx, refreshTok)
	if err != nil {
		return TokenPair{}, err
	}

	unlock, err := m.lockUser(ctx, op, userID)
	if err != nil {
		return TokenPair{}, err
	}
	defer unlock()

	pair, err := m.TokenFromUserID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if pair.RefreshToken.Token != refreshTok {
		// The index resolved but the pair has moved on (e.g. a concurrent
		// re-login). Treat like any other dead token.
		return TokenPair{}, fault.Unauthorized(op, "not the current refresh token")
	}
	now := m.now()
	if pair.RefreshToken.Expired(now) {
		return TokenPair{}, fault.Unauthorized(op, "refresh token expired")
	}

	auth, err := m.uniqueToken(ctx, op, now, m.cfg.AuthTTLDays)
	if err != nil {
		return TokenPair{}, err
	}

	oldAuth := pair.AuthToken.Token
	pair.AuthToken = auth
	raw, err := encodePair(pair)
	if err != nil {
		return TokenPair{}, err
	}

	if err := m.store.Del(ctx, oldAuth); err != nil {
		return TokenPair{}, err
	}
	err = m.store.SetMulti(ctx, map[string]string{
		userID:     raw,
		auth.Token: userID,
	})
	if err != nil {
		return TokenPair{}, err
	}

	m.log.InfoContext(ctx, "session refreshed",
		slog.String("user_id", userID),
		slog.Int64("auth_expiration", auth.Expiration),
	)
	return pair, nil
}

// RevokeAccess tears down the session owned by the presented auth token:
// both reverse indices and the pair record are removed. Idempotent once the
// token no longer resolves.
func (m *Manager) RevokeAccess(ctx context.Context, tok string) error {
	const op = "session.revoke"

	userID, err := m.UserIDFromToken(ctx, tok)
	if err != nil {
		return err
	}

	unlock, err := m.lockUser(ctx, op, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return m.revokeUser(ctx, userID)
}

// RevokeUser tears down the session of userID regardless of which token the
// caller holds. Used when the account itself is deleted. No-op when the
// user has no live session.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	const op = "session.revoke_user"

	unlock, err := m.lockUser(ctx, op, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return m.revokeUser(ctx, userID)
}

// revokeUser deletes the pair record and both indices. Caller holds the
// per-user lock. Deletes run index-first so a crash mid-way can only leave
// a pair record whose tokens no longer resolve, never a live dangling index.
func (m *Manager) revokeUser(ctx context.Context, userID string) error {
	raw, err := m.store.Get(ctx, userID)
	if errors.Is(err, errMissing) {
		return nil
	}
	if err != nil {
		return err
	}
	pair, err := decodePair(raw)
	if err != nil {
		return err
	}

	if err := m.store.Del(ctx, pair.AuthToken.Token); err != nil {
		return err
	}
	if err := m.store.Del(ctx, pair.RefreshToken.Token); err != nil {
		return err
	}
	if err := m.store.Del(ctx, userID); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "session revoked", slog.String("user_id", userID))
	return nil
}

// dropExistingPair clears a user's previous session before a new login.
// Caller holds the per-user lock.
func (m *Manager) dropExistingPair(ctx context.Context, userID string) error {
	return m.revokeUser(ctx, userID)
}

// uniqueToken mints a token that is not currently indexed, regenerating on
// collision up to maxTokenAttempts times.
func (m *Manager) uniqueToken(ctx context.Context, op string, now time.Time, ttlDays int) (AccessToken, error) {
	for range maxTokenAttempts {
		t, err := newAccessToken(now, ttlDays, m.cfg.TokenLength)
		if err != nil {
			return AccessToken{}, err
		}
		taken, err := m.store.Exists(ctx, t.Token)
		if err != nil {
			return AccessToken{}, err
		}
		if !taken {
			return t, nil
		}
		m.log.WarnContext(ctx, "token collision, regenerating", slog.String("op", op))
	}
	return AccessToken{}, fault.Internal(fault.SubsystemGeneral, 4, op, errors.New("token space exhausted"))
}

// lockUser acquires the per-user advisory lock, polling until LockWait
// elapses. The returned func releases the lock and is safe to defer.
func (m *Manager) lockUser(ctx context.Context, op, userID string) (func(), error) {
	name := lockKey(userID)
	deadline := m.now().Add(m.cfg.LockWait)

	for {
		owner, ok, err := m.store.AcquireLock(ctx, name, m.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			// Release must run even when the request context is already
			// canceled, or the lock stays held until its TTL.
			releaseCtx := context.WithoutCancel(ctx)
			return func() {
				if err := m.store.ReleaseLock(releaseCtx, name, owner); err != nil {
					m.log.ErrorContext(ctx, "lock release failed",
						slog.String("op", op), slog.String("user_id", userID), slog.Any("error", err))
				}
			}, nil
		}
		if m.now().After(deadline) {
			return nil, fault.Internal(fault.SubsystemRedis, 9, op, errors.New("user lock timeout"))
		}
		select {
		case <-ctx.Done():
			return nil, fault.Internal(fault.SubsystemGeneral, 5, op, ctx.Err())
		case <-time.After(20 * time.Millisecond):
		}
	}
}
