package user

import "context"

// Service defines the interface for account business logic
type Service interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// Register creates an inactive user with a fresh activation key. An email whose
	// account was never activated is taken over with a new password and key.
	Register(ctx context.Context, email, password string) (*User, error)
	// CreateUser creates an active user; used by operators and the manage CLI
	CreateUser(ctx context.Context, email, password string, staff, superuser bool) (*User, error)
	// Activate activates the user owning key. It reports whether this call changed the
	// account state; a replay on an active account returns the user and false.
	Activate(ctx context.Context, key string) (*User, bool, error)
	// Authenticate checks credentials of an active user
	Authenticate(ctx context.Context, email, password string) (*User, error)
	// Token returns the user's API token, creating it on first use
	Token(ctx context.Context, userID int64) (*APIToken, error)
	// UserForToken resolves an API token key to its active user
	UserForToken(ctx context.Context, key string) (*User, error)
}
