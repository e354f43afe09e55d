// Package identity implements fenster's user accounts.
//
// It defines the User principal and the Store persistence boundary, with a
// PostgreSQL implementation over pgx. Password hashes never leave the store;
// verification happens behind the Store interface.
package identity
