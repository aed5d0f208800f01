package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ProviderService handles provider API calls
type ProviderService struct {
	client *Client
}

// RegisterRequest is a provider self-registration
type RegisterRequest struct {
	NameEN      string `json:"name_en"`
	NameAR      string `json:"name_ar,omitempty"`
	NameFR      string `json:"name_fr,omitempty"`
	Type        int64  `json:"type"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// List retrieves a page of providers. Requires authentication.
func (s *ProviderService) List(ctx context.Context, opts *ListOptions) (*Page[Provider], error) {
	var page Page[Provider]
	if err := s.client.doRequest(ctx, "GET", "/api/providers"+listQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a provider by ID
func (s *ProviderService) Get(ctx context.Context, id int64) (*Provider, error) {
	var p Provider
	if err := s.client.doRequest(ctx, "GET", fmt.Sprintf("/api/providers/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Register self-registers a provider. The account stays inactive until the emailed
// activation link is followed.
func (s *ProviderService) Register(ctx context.Context, req RegisterRequest) (*Provider, error) {
	var p Provider
	if err := s.client.doRequest(ctx, "POST", "/api/providers/create_provider/", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListTypes retrieves every provider type
func (s *ProviderService) ListTypes(ctx context.Context, lang string) ([]ProviderType, error) {
	var types []ProviderType
	if err := s.client.doRequest(ctx, "GET", "/api/providertypes"+listQuery(&ListOptions{Lang: lang}), nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func listQuery(opts *ListOptions) string {
	if opts == nil {
		return ""
	}
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Lang != "" {
		query.Set("lang", opts.Lang)
	}
	if len(query) == 0 {
		return ""
	}
	return "?" + query.Encode()
}
