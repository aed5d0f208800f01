package postgres

import (
	"context"
	"database/sql"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

// AreaRepository implements area.Repository
type AreaRepository struct {
	db *DB
}

// NewAreaRepository creates a new service area repository
func NewAreaRepository(db *DB) area.Repository {
	return &AreaRepository{db: db}
}

// Create creates a new service area
func (r *AreaRepository) Create(ctx context.Context, a *area.ServiceArea) error {
	id, err := r.db.insert(ctx,
		`INSERT INTO service_areas (name_en, name_ar, name_fr, parent_id) VALUES (?, ?, ?, ?)`,
		a.Name.EN, a.Name.AR, a.Name.FR, nullInt64(a.ParentID),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create service area", err)
	}
	a.ID = id
	return nil
}

// GetByID retrieves a service area by ID
func (r *AreaRepository) GetByID(ctx context.Context, id int64) (*area.ServiceArea, error) {
	a, err := scanArea(r.db.queryRow(ctx,
		`SELECT id, name_en, name_ar, name_fr, parent_id FROM service_areas WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Service area")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get service area", err)
	}
	return a, nil
}

// List retrieves service areas with pagination
func (r *AreaRepository) List(ctx context.Context, limit, offset int) ([]*area.ServiceArea, int64, error) {
	var total int64
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM service_areas").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count service areas", err)
	}

	rows, err := r.db.query(ctx,
		`SELECT id, name_en, name_ar, name_fr, parent_id FROM service_areas ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list service areas", err)
	}
	defer rows.Close()

	var areas []*area.ServiceArea
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan service area", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate service areas", err)
	}

	return areas, total, nil
}

// ChildIDs returns the ids of the direct children of parentID
func (r *AreaRepository) ChildIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := r.db.query(ctx, `SELECT id FROM service_areas WHERE parent_id = ? ORDER BY id`, parentID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list child areas", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan child area", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanArea(row rowScanner) (*area.ServiceArea, error) {
	var a area.ServiceArea
	var parentID sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name.EN, &a.Name.AR, &a.Name.FR, &parentID); err != nil {
		return nil, err
	}
	a.ParentID = int64Ptr(parentID)
	return &a, nil
}
