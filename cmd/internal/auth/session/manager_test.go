package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"fenster/cmd/internal/fault"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewRedisStore(client), DefaultConfig(), nil)
	m.now = func() time.Time { return now }
	return m, mr, &now
}

func TestCreate_StoresPairAndIndices(t *testing.T) {
	m, mr, now := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if len(pair.AuthToken.Token) != 16 || len(pair.RefreshToken.Token) != 16 {
		t.Fatalf("unexpected token lengths: %d / %d",
			len(pair.AuthToken.Token), len(pair.RefreshToken.Token))
	}

	wantAuthExp := now.UnixMilli() + 7*millisPerDay
	wantRefreshExp := now.UnixMilli() + 14*millisPerDay
	if pair.AuthToken.Expiration != wantAuthExp {
		t.Errorf("auth expiration = %d, want %d", pair.AuthToken.Expiration, wantAuthExp)
	}
	if pair.RefreshToken.Expiration != wantRefreshExp {
		t.Errorf("refresh expiration = %d, want %d", pair.RefreshToken.Expiration, wantRefreshExp)
	}

	raw, err := mr.Get("alice")
	if err != nil {
		t.Fatalf("pair record missing: %v", err)
	}
	var stored TokenPair
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored pair not valid JSON: %v", err)
	}
	if stored != pair {
		t.Errorf("stored pair %+v != returned pair %+v", stored, pair)
	}

	for _, tok := range []string{pair.AuthToken.Token, pair.RefreshToken.Token} {
		owner, err := mr.Get(tok)
		if err != nil {
			t.Fatalf("reverse index for %q missing: %v", tok, err)
		}
		if owner != "alice" {
			t.Errorf("index %q -> %q, want alice", tok, owner)
		}
	}
}

func TestCreate_ReplacesPreviousSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if _, err := m.Authenticate(ctx, first.AuthToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("old auth token: err = %v, want unauthorized", err)
	}
	if _, err := m.RefreshAccess(ctx, first.RefreshToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("old refresh token: err = %v, want unauthorized", err)
	}
	if got, err := m.Authenticate(ctx, second.AuthToken.Token); err != nil || got != "alice" {
		t.Errorf("new auth token: (%q, %v), want (alice, nil)", got, err)
	}
}

func TestAuthenticate(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Authenticate(ctx, pair.AuthToken.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got != "alice" {
		t.Fatalf("Authenticate = %q, want alice", got)
	}

	// A refresh token resolves in the index but must not pass the gate.
	if _, err := m.Authenticate(ctx, pair.RefreshToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("refresh token at gate: err = %v, want unauthorized", err)
	}

	if _, err := m.Authenticate(ctx, "no-such-token-0000"); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("unknown token: err = %v, want unauthorized", err)
	}
}

func TestAuthenticate_ExpiredAuthToken(t *testing.T) {
	m, _, now := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(7*24*time.Hour + time.Millisecond)

	if _, err := m.Authenticate(ctx, pair.AuthToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Fatalf("expired auth token: err = %v, want unauthorized", err)
	}
}

func TestRefreshAccess(t *testing.T) {
	m, _, now := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(3 * 24 * time.Hour)

	refreshed, err := m.RefreshAccess(ctx, pair.RefreshToken.Token)
	if err != nil {
		t.Fatalf("RefreshAccess: %v", err)
	}

	if refreshed.AuthToken.Token == pair.AuthToken.Token {
		t.Fatalf("auth token was not rotated")
	}
	if refreshed.RefreshToken != pair.RefreshToken {
		t.Errorf("refresh token changed on refresh: %+v != %+v",
			refreshed.RefreshToken, pair.RefreshToken)
	}
	wantExp := now.UnixMilli() + 7*millisPerDay
	if refreshed.AuthToken.Expiration != wantExp {
		t.Errorf("new auth expiration = %d, want %d", refreshed.AuthToken.Expiration, wantExp)
	}

	// Old auth token is dead immediately; the new one and the original
	// refresh token both stay live.
	if _, err := m.Authenticate(ctx, pair.AuthToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("old auth token: err = %v, want unauthorized", err)
	}
	if got, err := m.Authenticate(ctx, refreshed.AuthToken.Token); err != nil || got != "alice" {
		t.Errorf("new auth token: (%q, %v), want (alice, nil)", got, err)
	}
	if _, err := m.RefreshAccess(ctx, pair.RefreshToken.Token); err != nil {
		t.Errorf("second refresh with same refresh token: %v", err)
	}
}

func TestRefreshAccess_RejectsAuthToken(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.RefreshAccess(ctx, pair.AuthToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Fatalf("auth token at refresh: err = %v, want unauthorized", err)
	}
}

func TestRefreshAccess_ExpiredRefreshToken(t *testing.T) {
	m, _, now := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(14*24*time.Hour + time.Millisecond)

	if _, err := m.RefreshAccess(ctx, pair.RefreshToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Fatalf("expired refresh token: err = %v, want unauthorized", err)
	}
}

func TestRevokeAccess(t *testing.T) {
	m, mr, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.RevokeAccess(ctx, pair.AuthToken.Token); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}

	for _, key := range []string{"alice", pair.AuthToken.Token, pair.RefreshToken.Token} {
		if mr.Exists(key) {
			t.Errorf("key %q survived revocation", key)
		}
	}

	if _, err := m.RefreshAccess(ctx, pair.RefreshToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("refresh after revoke: err = %v, want unauthorized", err)
	}
	if err := m.RevokeAccess(ctx, pair.AuthToken.Token); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("second revoke: err = %v, want unauthorized", err)
	}
}

func TestRevokeUser(t *testing.T) {
	m, mr, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.RevokeUser(ctx, "alice"); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}
	for _, key := range []string{"alice", pair.AuthToken.Token, pair.RefreshToken.Token} {
		if mr.Exists(key) {
			t.Errorf("key %q survived revocation", key)
		}
	}

	// Revoking a user with no session is a no-op.
	if err := m.RevokeUser(ctx, "nobody"); err != nil {
		t.Fatalf("RevokeUser on absent session: %v", err)
	}
}

func TestFindToken(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, tok := range []string{pair.AuthToken.Token, pair.RefreshToken.Token} {
		got, err := m.FindToken(ctx, tok)
		if err != nil {
			t.Fatalf("FindToken(%q): %v", tok, err)
		}
		if got != pair {
			t.Errorf("FindToken(%q) = %+v, want %+v", tok, got, pair)
		}
	}

	if _, err := m.FindToken(ctx, "no-such-token-0000"); !errors.Is(err, fault.ErrUnauthorized) {
		t.Errorf("unknown token: err = %v, want unauthorized", err)
	}
}

// Full lifecycle: login, refresh mid-window, logout. Every intermediate
// credential must be exactly as live or dead as the flow dictates.
func TestLifecycle(t *testing.T) {
	m, mr, now := newTestManager(t)
	ctx := context.Background()

	p1, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	*now = now.Add(5 * 24 * time.Hour)
	p2, err := m.RefreshAccess(ctx, p1.RefreshToken.Token)
	if err != nil {
		t.Fatalf("RefreshAccess: %v", err)
	}
	if got, err := m.Authenticate(ctx, p2.AuthToken.Token); err != nil || got != "alice" {
		t.Fatalf("post-refresh auth: (%q, %v)", got, err)
	}

	if err := m.RevokeAccess(ctx, p2.AuthToken.Token); err != nil {
		t.Fatalf("RevokeAccess: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("keys left after logout: %v", keys)
	}
}

func TestReservedUserID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		id   string
		want bool
	}{
		{"alice", false},
		{"lockpick", false},
		{"lock:alice", true},
		{"lock:", true},
	}
	for _, tc := range cases {
		if got := ReservedUserID(tc.id); got != tc.want {
			t.Errorf("ReservedUserID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestCreate_RejectsReservedUserID(t *testing.T) {
	m, mr, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx, "lock:alice"); !errors.Is(err, fault.ErrInternal) {
		t.Fatalf("Create with reserved id: err = %v, want internal", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("reserved id left keys behind: %v", keys)
	}
}

// Session records and lock keys live in the same keyspace, so the lock name
// must not be derivable from a registrable id. A record parked at the raw
// "lock:<id>" address must not wedge that user's mutations.
func TestCreate_LockKeyNotForgeableByUserID(t *testing.T) {
	m, mr, _ := newTestManager(t)
	ctx := context.Background()

	if err := mr.Set("lock:alice", "squatter"); err != nil {
		t.Fatalf("seed squatter key: %v", err)
	}

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create with squatted raw lock address: %v", err)
	}
	if _, err := m.RefreshAccess(ctx, pair.RefreshToken.Token); err != nil {
		t.Fatalf("RefreshAccess with squatted raw lock address: %v", err)
	}
	if err := m.RevokeAccess(ctx, pair.AuthToken.Token); err != nil {
		t.Fatalf("RevokeAccess with squatted raw lock address: %v", err)
	}
}

func TestConcurrentRefresh_SingleWinnerPerRecord(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := m.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 8
	results := make(chan error, n)
	for range n {
		go func() {
			_, err := m.RefreshAccess(ctx, pair.RefreshToken.Token)
			results <- err
		}()
	}
	for range n {
		if err := <-results; err != nil {
			t.Errorf("concurrent refresh: %v", err)
		}
	}

	// The record must be internally consistent: the indexed auth token is
	// the one inside the stored pair.
	final, err := m.TokenFromUserID(ctx, "alice")
	if err != nil {
		t.Fatalf("TokenFromUserID: %v", err)
	}
	if got, err := m.Authenticate(ctx, final.AuthToken.Token); err != nil || got != "alice" {
		t.Fatalf("final auth token: (%q, %v)", got, err)
	}
}
