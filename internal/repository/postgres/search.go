package postgres

import (
	"context"
	"strings"

	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

// SearchRepository implements search.Repository on a plain table
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new search index repository
func NewSearchRepository(db *DB) search.Repository {
	return &SearchRepository{db: db}
}

// Replace swaps the whole index in one transaction
func (r *SearchRepository) Replace(ctx context.Context, entries []search.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM search_entries"); err != nil {
		return errors.DatabaseError("Failed to clear search index", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind("INSERT INTO search_entries (service_id, document) VALUES (?, ?)"))
	if err != nil {
		return errors.DatabaseError("Failed to prepare index insert", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ServiceID, strings.ToLower(e.Document)); err != nil {
			return errors.DatabaseError("Failed to index service", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit search index", err)
	}
	return nil
}

// Search returns ids of services whose document contains every term
func (r *SearchRepository) Search(ctx context.Context, terms []string, limit int) ([]int64, error) {
	query := "SELECT service_id FROM search_entries"
	args := make([]interface{}, 0, len(terms)+1)
	for i, term := range terms {
		if i == 0 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		query += "document LIKE ?"
		args = append(args, "%"+strings.ToLower(term)+"%")
	}
	query += " ORDER BY service_id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to search services", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan search result", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
