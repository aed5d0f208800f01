package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
)

const userColumns = `id, email, password_hash, is_active, is_staff, is_superuser, activation_key, activated_at, created_at, updated_at`

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	id, err := r.db.insert(ctx, `
		INSERT INTO users (email, password_hash, is_active, is_staff, is_superuser, activation_key, activated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser,
		nullString(u.ActivationKey), unixOrNull(u.ActivatedAt), now.Unix(), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("A user with this email already exists")
		}
		return errors.DatabaseError("Failed to create user", err)
	}

	u.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByActivationKey retrieves the user owning an activation key
func (r *UserRepository) GetByActivationKey(ctx context.Context, key string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE activation_key = ?`, key)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	u, err := scanUser(r.db.queryRow(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	result, err := r.db.exec(ctx, `
		UPDATE users
		SET email = ?, password_hash = ?, is_active = ?, is_staff = ?, is_superuser = ?,
			activation_key = ?, activated_at = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.IsSuperuser,
		nullString(u.ActivationKey), unixOrNull(u.ActivatedAt), u.UpdatedAt.Unix(), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// List retrieves users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	rows, err := r.db.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, total, nil
}

// CreateToken stores a new API token
func (r *UserRepository) CreateToken(ctx context.Context, t *user.APIToken) error {
	t.CreatedAt = time.Now()
	_, err := r.db.exec(ctx,
		`INSERT INTO api_tokens (token_key, user_id, created_at) VALUES (?, ?, ?)`,
		t.Key, t.UserID, t.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("User already has a token")
		}
		return errors.DatabaseError("Failed to create token", err)
	}
	return nil
}

// GetToken returns the token with the given key
func (r *UserRepository) GetToken(ctx context.Context, key string) (*user.APIToken, error) {
	return r.getToken(ctx, `SELECT token_key, user_id, created_at FROM api_tokens WHERE token_key = ?`, key)
}

// GetTokenForUser returns the token owned by userID
func (r *UserRepository) GetTokenForUser(ctx context.Context, userID int64) (*user.APIToken, error) {
	return r.getToken(ctx, `SELECT token_key, user_id, created_at FROM api_tokens WHERE user_id = ?`, userID)
}

func (r *UserRepository) getToken(ctx context.Context, query string, arg interface{}) (*user.APIToken, error) {
	var t user.APIToken
	var createdAt int64
	err := r.db.queryRow(ctx, query, arg).Scan(&t.Key, &t.UserID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Token")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get token", err)
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var activationKey sql.NullString
	var activatedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&activationKey, &activatedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.ActivationKey = activationKey.String
	if activatedAt.Valid {
		t := time.Unix(activatedAt.Int64, 0)
		u.ActivatedAt = &t
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func unixOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
