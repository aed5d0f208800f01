package provider

import (
	"context"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
)

// Registration is a provider self-registration: the provider fields plus the
// credentials of the account that will own it
type Registration struct {
	Provider Provider
	Email    string
	Password string
}

// Service defines provider business logic
type Service interface {
	Get(ctx context.Context, id int64) (*Provider, error)
	List(ctx context.Context, limit, offset int) ([]*Provider, int64, error)
	// GetByUser returns the provider owned by userID
	GetByUser(ctx context.Context, userID int64) (*Provider, error)
	// Create stores a provider for an existing user
	Create(ctx context.Context, p *Provider) error
	// Register creates an inactive user, the provider, and sends the activation email
	Register(ctx context.Context, reg Registration) (*Provider, *user.User, error)

	GetType(ctx context.Context, id int64) (*ProviderType, error)
	ListTypes(ctx context.Context) ([]*ProviderType, error)
}
