package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

const providerColumns = `id, name_en, name_ar, name_fr, type_id, phone_number, website,
	description_en, description_ar, description_fr, address_en, address_ar, address_fr,
	number_of_monthly_beneficiaries, user_id, created_at, updated_at`

// ProviderRepository implements provider.Repository
type ProviderRepository struct {
	db *DB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *DB) provider.Repository {
	return &ProviderRepository{db: db}
}

// Create creates a new provider
func (r *ProviderRepository) Create(ctx context.Context, p *provider.Provider) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	var beneficiaries sql.NullInt64
	if p.NumberOfMonthlyBeneficiaries != nil {
		beneficiaries = sql.NullInt64{Int64: int64(*p.NumberOfMonthlyBeneficiaries), Valid: true}
	}

	id, err := r.db.insert(ctx, `
		INSERT INTO providers (name_en, name_ar, name_fr, type_id, phone_number, website,
			description_en, description_ar, description_fr, address_en, address_ar, address_fr,
			number_of_monthly_beneficiaries, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name.EN, p.Name.AR, p.Name.FR, p.TypeID, p.PhoneNumber, p.Website,
		p.Description.EN, p.Description.AR, p.Description.FR,
		p.Address.EN, p.Address.AR, p.Address.FR,
		beneficiaries, p.UserID, now.Unix(), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("User already has a provider")
		}
		return errors.DatabaseError("Failed to create provider", err)
	}

	p.ID = id
	return nil
}

// GetByID retrieves a provider by ID
func (r *ProviderRepository) GetByID(ctx context.Context, id int64) (*provider.Provider, error) {
	return r.getOne(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
}

// GetByUserID retrieves the provider owned by a user
func (r *ProviderRepository) GetByUserID(ctx context.Context, userID int64) (*provider.Provider, error) {
	return r.getOne(ctx, `SELECT `+providerColumns+` FROM providers WHERE user_id = ?`, userID)
}

// Update replaces the provider's editable fields
func (r *ProviderRepository) Update(ctx context.Context, p *provider.Provider) error {
	p.UpdatedAt = time.Now()

	var beneficiaries sql.NullInt64
	if p.NumberOfMonthlyBeneficiaries != nil {
		beneficiaries = sql.NullInt64{Int64: int64(*p.NumberOfMonthlyBeneficiaries), Valid: true}
	}

	result, err := r.db.exec(ctx, `
		UPDATE providers
		SET name_en = ?, name_ar = ?, name_fr = ?, type_id = ?, phone_number = ?, website = ?,
			description_en = ?, description_ar = ?, description_fr = ?,
			address_en = ?, address_ar = ?, address_fr = ?,
			number_of_monthly_beneficiaries = ?, updated_at = ?
		WHERE id = ?`,
		p.Name.EN, p.Name.AR, p.Name.FR, p.TypeID, p.PhoneNumber, p.Website,
		p.Description.EN, p.Description.AR, p.Description.FR,
		p.Address.EN, p.Address.AR, p.Address.FR,
		beneficiaries, p.UpdatedAt.Unix(), p.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update provider", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Provider")
	}
	return nil
}

func (r *ProviderRepository) getOne(ctx context.Context, query string, arg interface{}) (*provider.Provider, error) {
	p, err := scanProvider(r.db.queryRow(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Provider")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get provider", err)
	}
	return p, nil
}

// List retrieves providers with pagination
func (r *ProviderRepository) List(ctx context.Context, limit, offset int) ([]*provider.Provider, int64, error) {
	var total int64
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM providers").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count providers", err)
	}

	rows, err := r.db.query(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list providers", err)
	}
	defer rows.Close()

	var providers []*provider.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan provider", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate providers", err)
	}

	return providers, total, nil
}

// GetType retrieves a provider type by ID
func (r *ProviderRepository) GetType(ctx context.Context, id int64) (*provider.ProviderType, error) {
	var t provider.ProviderType
	err := r.db.queryRow(ctx,
		`SELECT id, number, name_en, name_ar, name_fr FROM provider_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.Number, &t.Name.EN, &t.Name.AR, &t.Name.FR)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Provider type")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get provider type", err)
	}
	return &t, nil
}

// ListTypes returns every provider type ordered by number
func (r *ProviderRepository) ListTypes(ctx context.Context) ([]*provider.ProviderType, error) {
	rows, err := r.db.query(ctx, `SELECT id, number, name_en, name_ar, name_fr FROM provider_types ORDER BY number`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list provider types", err)
	}
	defer rows.Close()

	var types []*provider.ProviderType
	for rows.Next() {
		var t provider.ProviderType
		if err := rows.Scan(&t.ID, &t.Number, &t.Name.EN, &t.Name.AR, &t.Name.FR); err != nil {
			return nil, errors.DatabaseError("Failed to scan provider type", err)
		}
		types = append(types, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate provider types", err)
	}
	return types, nil
}

func scanProvider(row rowScanner) (*provider.Provider, error) {
	var p provider.Provider
	var beneficiaries sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.Name.EN, &p.Name.AR, &p.Name.FR, &p.TypeID, &p.PhoneNumber, &p.Website,
		&p.Description.EN, &p.Description.AR, &p.Description.FR,
		&p.Address.EN, &p.Address.AR, &p.Address.FR,
		&beneficiaries, &p.UserID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if beneficiaries.Valid {
		n := int(beneficiaries.Int64)
		p.NumberOfMonthlyBeneficiaries = &n
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

