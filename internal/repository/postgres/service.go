package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

const serviceColumns = `id, provider_id, area_id, type_id, name_en, name_ar, name_fr,
	description_en, description_ar, description_fr, status, created_at, updated_at`

// ServiceRepository implements service.Repository
type ServiceRepository struct {
	db *DB
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db *DB) service.Repository {
	return &ServiceRepository{db: db}
}

// Create creates a new service
func (r *ServiceRepository) Create(ctx context.Context, s *service.Service) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Status == "" {
		s.Status = service.StatusDraft
	}

	id, err := r.db.insert(ctx, `
		INSERT INTO services (provider_id, area_id, type_id, name_en, name_ar, name_fr,
			description_en, description_ar, description_fr, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ProviderID, s.AreaID, nullInt64(s.TypeID), s.Name.EN, s.Name.AR, s.Name.FR,
		s.Description.EN, s.Description.AR, s.Description.FR,
		string(s.Status), now.Unix(), now.Unix(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create service", err)
	}

	s.ID = id
	return nil
}

// GetByID retrieves a service by ID
func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*service.Service, error) {
	s, err := scanService(r.db.queryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Service")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get service", err)
	}
	return s, nil
}

// List retrieves services matching filter with pagination
func (r *ServiceRepository) List(ctx context.Context, filter service.Filter, limit, offset int) ([]*service.Service, int64, error) {
	var conds []string
	var args []interface{}
	if filter.ProviderID != 0 {
		conds = append(conds, "provider_id = ?")
		args = append(args, filter.ProviderID)
	}
	if filter.AreaID != 0 {
		conds = append(conds, "area_id = ?")
		args = append(args, filter.AreaID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM services"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count services", err)
	}

	args = append(args, limit, offset)
	rows, err := r.db.query(ctx, `SELECT `+serviceColumns+` FROM services`+where+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list services", err)
	}
	defer rows.Close()

	var services []*service.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan service", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate services", err)
	}

	return services, total, nil
}

// UpdateStatus moves a service from status from to status to in a single statement
func (r *ServiceRepository) UpdateStatus(ctx context.Context, id int64, from, to service.Status) error {
	result, err := r.db.exec(ctx,
		`UPDATE services SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().Unix(), id, string(from),
	)
	if err != nil {
		return errors.DatabaseError("Failed to update service status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows > 0 {
		return nil
	}

	var current string
	err = r.db.queryRow(ctx, `SELECT status FROM services WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return errors.NotFound("Service")
	}
	if err != nil {
		return errors.DatabaseError("Failed to get service status", err)
	}
	return errors.Conflict(fmt.Sprintf("Service is %s, not %s", current, from))
}

const serviceTypeColumns = `id, number, name_en, name_ar, name_fr, comments_en, comments_ar, comments_fr`

// GetType retrieves a service type by ID
func (r *ServiceRepository) GetType(ctx context.Context, id int64) (*service.ServiceType, error) {
	t, err := scanServiceType(r.db.queryRow(ctx, `SELECT `+serviceTypeColumns+` FROM service_types WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Service type")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get service type", err)
	}
	return t, nil
}

// ListTypes returns every service type ordered by number
func (r *ServiceRepository) ListTypes(ctx context.Context) ([]*service.ServiceType, error) {
	rows, err := r.db.query(ctx, `SELECT `+serviceTypeColumns+` FROM service_types ORDER BY number`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list service types", err)
	}
	defer rows.Close()

	var types []*service.ServiceType
	for rows.Next() {
		t, err := scanServiceType(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan service type", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate service types", err)
	}
	return types, nil
}

func scanService(row rowScanner) (*service.Service, error) {
	var s service.Service
	var typeID sql.NullInt64
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(&s.ID, &s.ProviderID, &s.AreaID, &typeID, &s.Name.EN, &s.Name.AR, &s.Name.FR,
		&s.Description.EN, &s.Description.AR, &s.Description.FR, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.TypeID = int64Ptr(typeID)
	s.Status = service.Status(status)
	s.CreatedAt = time.Unix(createdAt, 0)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}

func scanServiceType(row rowScanner) (*service.ServiceType, error) {
	var t service.ServiceType
	err := row.Scan(&t.ID, &t.Number, &t.Name.EN, &t.Name.AR, &t.Name.FR,
		&t.Comments.EN, &t.Comments.AR, &t.Comments.FR)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
