package area

import "context"

// Repository defines data access for service areas
type Repository interface {
	Create(ctx context.Context, a *ServiceArea) error
	GetByID(ctx context.Context, id int64) (*ServiceArea, error)
	List(ctx context.Context, limit, offset int) ([]*ServiceArea, int64, error)
	// ChildIDs returns the ids of the areas whose parent is parentID
	ChildIDs(ctx context.Context, parentID int64) ([]int64, error)
}
