package service

import "context"

// Manager defines business logic for services
type Manager interface {
	Get(ctx context.Context, id int64) (*Service, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Service, int64, error)
	Create(ctx context.Context, s *Service) error
	// Approve makes a draft service current and notifies its provider asynchronously
	Approve(ctx context.Context, id int64) (*Service, error)
	Reject(ctx context.Context, id int64) (*Service, error)

	GetType(ctx context.Context, id int64) (*ServiceType, error)
	ListTypes(ctx context.Context) ([]*ServiceType, error)
}
