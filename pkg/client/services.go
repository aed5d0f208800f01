package client

import (
	"context"
	"fmt"
	"net/url"
)

// ServiceService handles service API calls
type ServiceService struct {
	client *Client
}

// List retrieves services visible to the authenticated user
func (s *ServiceService) List(ctx context.Context, opts *ListOptions) (*Page[Service], error) {
	var page Page[Service]
	if err := s.client.doRequest(ctx, "GET", "/api/services"+listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Approve makes a draft service current. Requires a staff account.
func (s *ServiceService) Approve(ctx context.Context, id int64) (*Service, error) {
	var svc Service
	if err := s.client.doRequest(ctx, "POST", fmt.Sprintf("/api/services/%d/approve", id), nil, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// Search returns current services matching every word of query
func (s *ServiceService) Search(ctx context.Context, query string) (*SearchResult, error) {
	var res SearchResult
	if err := s.client.doRequest(ctx, "GET", "/api/services/search?q="+url.QueryEscape(query), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
