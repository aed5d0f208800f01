package search

import "context"

// Repository stores the search index
type Repository interface {
	// Replace swaps the whole index for entries
	Replace(ctx context.Context, entries []Entry) error
	// Search returns the ids of services whose document contains every term
	Search(ctx context.Context, terms []string, limit int) ([]int64, error)
}
