package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByActivationKey(ctx context.Context, key string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// CreateToken stores a new API token for the user
	CreateToken(ctx context.Context, token *APIToken) error
	// GetToken returns the token for the given key
	GetToken(ctx context.Context, key string) (*APIToken, error)
	// GetTokenForUser returns the user's token, if one exists
	GetTokenForUser(ctx context.Context, userID int64) (*APIToken, error)
}
