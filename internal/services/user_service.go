package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// UserService implements user.Service
type UserService struct {
	repo       user.Repository
	bcryptCost int
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, bcryptCost int, log *logger.Logger) user.Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     log,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// Register creates an inactive user with a fresh activation key
func (s *UserService) Register(ctx context.Context, email, password string) (*user.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	key := strings.ReplaceAll(uuid.NewString(), "-", "")

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsActive || existing.ActivatedAt != nil {
			return nil, errors.Conflict("A user with this email already exists")
		}
		existing.PasswordHash = hash
		existing.ActivationKey = key
		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.ErrorWithErr(err, "Failed to renew pending registration")
			return nil, err
		}
		s.logger.WithFields(map[string]interface{}{
			"user_id": existing.ID,
			"email":   existing.Email,
		}).Info("Pending registration renewed")
		return existing, nil
	case !errors.IsNotFound(err):
		return nil, err
	}

	u := &user.User{
		Email:         email,
		PasswordHash:  hash,
		ActivationKey: key,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to register user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// CreateUser creates an active user
func (s *UserService) CreateUser(ctx context.Context, email, password string, staff, superuser bool) (*user.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff || superuser,
		IsSuperuser:  superuser,
		ActivatedAt:  &now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":   u.ID,
		"email":     u.Email,
		"staff":     u.IsStaff,
		"superuser": u.IsSuperuser,
	}).Info("User created")

	return u, nil
}

// Activate activates the user owning key
func (s *UserService) Activate(ctx context.Context, key string) (*user.User, bool, error) {
	if key == "" {
		return nil, false, errors.NotFound("Activation key")
	}

	u, err := s.repo.GetByActivationKey(ctx, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, false, errors.NotFound("Activation key")
		}
		return nil, false, err
	}

	if u.IsActive {
		return u, false, nil
	}

	now := time.Now()
	u.IsActive = true
	u.ActivatedAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to activate user")
		return nil, false, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
	}).Info("User activated")

	return u, true, nil
}

// Authenticate checks credentials of an active user
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	if !u.IsActive {
		return nil, errors.Forbidden("Account has not been activated")
	}

	return u, nil
}

// Token returns the user's API token, creating it on first use
func (s *UserService) Token(ctx context.Context, userID int64) (*user.APIToken, error) {
	t, err := s.repo.GetTokenForUser(ctx, userID)
	if err == nil {
		return t, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	key, err := newTokenKey()
	if err != nil {
		return nil, errors.Internal("Failed to generate token", err)
	}

	t = &user.APIToken{Key: key, UserID: userID}
	if err := s.repo.CreateToken(ctx, t); err != nil {
		// lost a race with a concurrent login
		if existing, getErr := s.repo.GetTokenForUser(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return t, nil
}

// UserForToken resolves an API token key to its active user
func (s *UserService) UserForToken(ctx context.Context, key string) (*user.User, error) {
	t, err := s.repo.GetToken(ctx, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid token")
		}
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("User inactive or deleted")
	}
	return u, nil
}

func (s *UserService) hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.Internal("Failed to hash password", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newTokenKey returns 40 hex characters
func newTokenKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
