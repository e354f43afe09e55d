package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"fenster/cmd/internal/fault"
	"fenster/cmd/security/token"
)

const millisPerDay = 24 * 60 * 60 * 1000

// newAccessToken mints a fresh opaque token expiring ttlDays from now.
func newAccessToken(now time.Time, ttlDays, length int) (AccessToken, error) {
	t, err := token.New(length)
	if err != nil {
		return AccessToken{}, fault.Internal(fault.SubsystemGeneral, 2, "session.new_token", err)
	}
	exp := now.UnixMilli() + int64(ttlDays)*millisPerDay
	if exp < 0 {
		return AccessToken{}, fault.Internal(fault.SubsystemGeneral, 3, "session.new_token", errNegativeEpoch)
	}
	return AccessToken{Token: t, Expiration: exp}, nil
}

// encodePair serializes a TokenPair for storage.
func encodePair(pair TokenPair) (string, error) {
	b, err := json.Marshal(pair)
	if err != nil {
		return "", fault.Internal(fault.SubsystemCodec, 1, "session.encode_pair", err)
	}
	return string(b), nil
}

// decodePair parses a stored TokenPair.
func decodePair(raw string) (TokenPair, error) {
	var pair TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return TokenPair{}, fault.Internal(fault.SubsystemCodec, 2, "session.decode_pair", err)
	}
	return pair, nil
}

// lockPrefix namespaces advisory-lock keys away from session records.
// Registration must refuse ids carrying this prefix; see ReservedUserID.
const lockPrefix = "lock:"

// lockKey derives the advisory-lock key for userID. The id is digested so
// that no caller-chosen id or minted token can address another user's lock.
func lockKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return lockPrefix + hex.EncodeToString(sum[:])
}

// newLockOwner returns a random identity for advisory-lock ownership.
func newLockOwner() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
