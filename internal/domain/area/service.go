package area

import "context"

// Node is an area together with its derived children
type Node struct {
	*ServiceArea
	ChildIDs []int64
}

// Service defines business logic for service areas
type Service interface {
	Get(ctx context.Context, id int64) (*Node, error)
	List(ctx context.Context, limit, offset int) ([]*Node, int64, error)
	Create(ctx context.Context, a *ServiceArea) error
}
