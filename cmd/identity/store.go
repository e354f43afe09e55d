package identity

import "context"

// User is fenster's canonical principal. Author marks accounts allowed to
// publish; it is never set through registration.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Author bool   `json:"author"`
}

// Store is the identity persistence boundary.
//
// Error contract:
//   - Fetch and Delete return a fault.ErrNotFound kind when the user is
//     absent.
//   - Create returns a fault.ErrConflict kind on an id or email collision.
//   - VerifyPassword reports a mismatch via ok=false, not via an error;
//     errors mean the check itself could not run.
type Store interface {
	ExistsID(ctx context.Context, id string) (bool, error)
	ExistsEmail(ctx context.Context, email string) (bool, error)
	Fetch(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User, password string) error
	Delete(ctx context.Context, id string) error
	VerifyPassword(ctx context.Context, id, password string) (bool, error)
}
