package search

import "context"

// Service maintains and queries the search index
type Service interface {
	// Rebuild regenerates the index from current services and returns its size
	Rebuild(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, limit int) ([]int64, error)
}
