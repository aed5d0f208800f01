package postgres

import (
	"context"
	"database/sql"

	"github.com/serviceinfo/serviceinfo/internal/domain/site"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

// SiteRepository implements site.Repository
type SiteRepository struct {
	db *DB
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *DB) site.Repository {
	return &SiteRepository{db: db}
}

// Get returns the single site record
func (r *SiteRepository) Get(ctx context.Context) (*site.Site, error) {
	var s site.Site
	err := r.db.queryRow(ctx, `SELECT id, domain, name FROM sites ORDER BY id LIMIT 1`).
		Scan(&s.ID, &s.Domain, &s.Name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Site")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get site", err)
	}
	return &s, nil
}

// ChangeDomain rewrites the site domain from -> to. The current domain must equal from.
func (r *SiteRepository) ChangeDomain(ctx context.Context, from, to string) error {
	s, err := r.Get(ctx)
	if err != nil {
		return err
	}
	if s.Domain != from {
		return site.ErrDomainMismatch
	}

	if _, err := r.db.exec(ctx, `UPDATE sites SET domain = ? WHERE id = ?`, to, s.ID); err != nil {
		return errors.DatabaseError("Failed to update site domain", err)
	}
	return nil
}
