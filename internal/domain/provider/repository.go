package provider

import "context"

// Repository defines data access for providers and provider types
type Repository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id int64) (*Provider, error)
	GetByUserID(ctx context.Context, userID int64) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	List(ctx context.Context, limit, offset int) ([]*Provider, int64, error)

	GetType(ctx context.Context, id int64) (*ProviderType, error)
	ListTypes(ctx context.Context) ([]*ProviderType, error)
}
