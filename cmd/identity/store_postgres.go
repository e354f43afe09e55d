package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fenster/cmd/internal/fault"
	"fenster/cmd/security/password"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema identifiers are validated and quoted to keep identifier
// interpolation safe.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	hasher password.Params
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "fenster").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// WithHasher overrides the argon2id parameters used for new password hashes.
func WithHasher(p password.Params) PostgresOption {
	return func(s *PostgresStore) error {
		s.hasher = p
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with default schema and
// hashing parameters.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	st := &PostgresStore{
		pool:   pool,
		schema: "fenster",
		hasher: password.DefaultParams(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *PostgresStore) users() string {
	return pgQuoteIdent(s.schema) + "." + pgQuoteIdent("users")
}

func (s *PostgresStore) ExistsID(ctx context.Context, id string) (bool, error) {
	const op = "identity.exists_id"

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.users()+` WHERE user_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fault.Internal(fault.SubsystemPostgres, 1, op, err)
	}
	return exists, nil
}

func (s *PostgresStore) ExistsEmail(ctx context.Context, email string) (bool, error) {
	const op = "identity.exists_email"

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.users()+` WHERE user_email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fault.Internal(fault.SubsystemPostgres, 2, op, err)
	}
	return exists, nil
}

func (s *PostgresStore) Fetch(ctx context.Context, id string) (User, error) {
	const op = "identity.fetch"

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, user_name, user_email, user_author
		   FROM `+s.users()+` WHERE user_id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Author)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fault.NotFound(op, "user "+id)
	}
	if err != nil {
		return User{}, fault.Internal(fault.SubsystemPostgres, 3, op, err)
	}
	return u, nil
}

func (s *PostgresStore) Create(ctx context.Context, user User, plainPassword string) error {
	const op = "identity.create"

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return fault.Internal(fault.SubsystemGeneral, 6, op, err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users()+` (user_id, user_name, user_email, user_password_hash, user_author)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT DO NOTHING`,
		user.ID, user.Name, user.Email, hash, user.Author,
	)
	if err != nil {
		return fault.Internal(fault.SubsystemPostgres, 4, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.Conflict(op, "user already exists")
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const op = "identity.delete"

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.users()+` WHERE user_id = $1`, id,
	)
	if err != nil {
		return fault.Internal(fault.SubsystemPostgres, 5, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound(op, "user "+id)
	}
	return nil
}

func (s *PostgresStore) VerifyPassword(ctx context.Context, id, plainPassword string) (bool, error) {
	const op = "identity.verify_password"

	var hash string
	err := s.pool.QueryRow(ctx,
		`SELECT user_password_hash FROM `+s.users()+` WHERE user_id = $1`, id,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fault.NotFound(op, "user "+id)
	}
	if err != nil {
		return false, fault.Internal(fault.SubsystemPostgres, 6, op, err)
	}

	ok, err := s.hasher.Verify(hash, plainPassword)
	if err != nil {
		// A hash we cannot parse is corrupt server state, not a bad login.
		return false, fault.Internal(fault.SubsystemGeneral, 7, op, err)
	}
	return ok, nil
}

// pgQuoteIdent double-quotes a validated identifier.
func pgQuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
