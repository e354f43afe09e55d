// Package authapi exposes the authentication endpoints: register, login,
// refresh, logout, account deletion, and the authenticated user lookup.
//
// Handlers translate fault-tagged errors from the stores into the JSON
// error envelope; internal causes never reach the client, only a numeric
// correlation code.
package authapi
