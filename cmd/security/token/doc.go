// Package token generates the opaque session credentials used by fenster.
//
// It is the single source of truth for token shape: a fixed alphabet and a
// fixed default length, drawn from crypto/rand.
//
// Tokens are opaque bearer strings stored verbatim as reverse-index keys;
// there is no embedded structure to parse and nothing to verify offline.
package token
