package service

import "context"

// Filter narrows service listings
type Filter struct {
	ProviderID int64
	AreaID     int64
	Status     Status
}

// Repository defines data access for services and service types
type Repository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id int64) (*Service, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Service, int64, error)
	// UpdateStatus moves a service from one status to another. It fails with a
	// conflict when the service is no longer in status from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) error

	GetType(ctx context.Context, id int64) (*ServiceType, error)
	ListTypes(ctx context.Context) ([]*ServiceType, error)
}
