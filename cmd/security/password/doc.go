// Package password provides password hashing and verification for fenster.
//
// It implements Argon2id hashing using a PHC-like encoded string format:
// parameters travel inside the hash, so stored credentials survive cost
// changes, and verification enforces anti-DoS bounds on hash-embedded
// parameters before doing any work.
package password
