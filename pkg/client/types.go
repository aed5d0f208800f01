package client

import "time"

// Page is one page of a paginated listing
type Page[T any] struct {
	Results    []T   `json:"results"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Count      int64 `json:"count"`
	TotalPages int   `json:"total_pages"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int    `json:"page,omitempty"`      // Page number (1-based)
	PageSize int    `json:"page_size,omitempty"` // Items per page
	Lang     string `json:"lang,omitempty"`      // Response language: en, ar, fr
}

// ProviderType is a provider category
type ProviderType struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Number int    `json:"number"`
	Name   string `json:"name"`
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	NameFR string `json:"name_fr"`
}

// Provider is an organization offering services
type Provider struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	NameEN      string `json:"name_en"`
	Type        string `json:"type"`
	TypeID      int64  `json:"type_id"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website"`
	User        string `json:"user"`
	UserID      int64  `json:"user_id"`
}

// ServiceArea is a node of the area hierarchy
type ServiceArea struct {
	ID       int64    `json:"id"`
	URL      string   `json:"url"`
	Name     string   `json:"name"`
	NameEN   string   `json:"name_en"`
	NameAR   string   `json:"name_ar"`
	NameFR   string   `json:"name_fr"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
}

// Service is something a provider offers in an area
type Service struct {
	ID            int64     `json:"id"`
	URL           string    `json:"url"`
	Provider      string    `json:"provider"`
	AreaOfService string    `json:"area_of_service"`
	Type          *string   `json:"type"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SearchResult lists services matching a query
type SearchResult struct {
	Query   string    `json:"query"`
	Count   int       `json:"count"`
	Results []Service `json:"results"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}
