package client

import (
	"context"
	"fmt"
)

// ServiceAreaService handles service area API calls
type ServiceAreaService struct {
	client *Client
}

// List retrieves a page of service areas
func (s *ServiceAreaService) List(ctx context.Context, opts *ListOptions) (*Page[ServiceArea], error) {
	var page Page[ServiceArea]
	if err := s.client.doRequest(ctx, "GET", "/api/serviceareas"+listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a service area by ID
func (s *ServiceAreaService) Get(ctx context.Context, id int64) (*ServiceArea, error) {
	var a ServiceArea
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/serviceareas/%d", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
