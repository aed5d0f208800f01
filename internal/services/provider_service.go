package services

import (
	"context"
	"strings"

	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/mail"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
)

// ProviderService implements provider.Service
type ProviderService struct {
	repo    provider.Repository
	users   user.Service
	mailer  mail.Sender
	baseURL string
	logger  *logger.Logger
}

// NewProviderService creates a new provider service. baseURL prefixes activation links.
func NewProviderService(
	repo provider.Repository,
	users user.Service,
	mailer mail.Sender,
	baseURL string,
	log *logger.Logger,
) provider.Service {
	return &ProviderService{
		repo:    repo,
		users:   users,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

// Get retrieves a provider by ID
func (s *ProviderService) Get(ctx context.Context, id int64) (*provider.Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves providers with pagination
func (s *ProviderService) List(ctx context.Context, limit, offset int) ([]*provider.Provider, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// GetByUser returns the provider owned by userID
func (s *ProviderService) GetByUser(ctx context.Context, userID int64) (*provider.Provider, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Create stores a provider for an existing user
func (s *ProviderService) Create(ctx context.Context, p *provider.Provider) error {
	if _, err := s.repo.GetType(ctx, p.TypeID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, p.UserID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create provider")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"provider_id": p.ID,
		"user_id":     p.UserID,
	}).Info("Provider created")

	return nil
}

// Register creates an inactive user and its provider, then mails the activation link.
// Registering again before activation renews the key, replaces the provider details and
// resends the link, so a failed delivery never locks the email out.
func (s *ProviderService) Register(ctx context.Context, reg provider.Registration) (*provider.Provider, *user.User, error) {
	if _, err := s.repo.GetType(ctx, reg.Provider.TypeID); err != nil {
		return nil, nil, err
	}

	u, err := s.users.Register(ctx, reg.Email, reg.Password)
	if err != nil {
		return nil, nil, err
	}

	p := reg.Provider
	p.UserID = u.ID
	existing, err := s.repo.GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		err = s.repo.Update(ctx, &p)
	case errors.IsNotFound(err):
		err = s.repo.Create(ctx, &p)
	}
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": u.ID,
		}).ErrorWithErr(err, "Failed to store provider for registered user")
		return nil, nil, err
	}

	metrics.RecordRegistration()
	s.logger.WithFields(map[string]interface{}{
		"provider_id": p.ID,
		"user_id":     u.ID,
	}).Info("Provider registered")

	msg, err := mail.Activation(u.Email, p.String(), s.baseURL+u.ActivationPath())
	if err != nil {
		return nil, nil, errors.Internal("Failed to render activation email", err)
	}
	err = s.mailer.Send(ctx, msg)
	metrics.RecordMail(msg.Kind, err)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": u.ID,
		}).ErrorWithErr(err, "Failed to send activation email")
		return nil, nil, errors.MailError("Failed to send activation email", err)
	}

	return &p, u, nil
}

// GetType retrieves a provider type by ID
func (s *ProviderService) GetType(ctx context.Context, id int64) (*provider.ProviderType, error) {
	return s.repo.GetType(ctx, id)
}

// ListTypes returns every provider type
func (s *ProviderService) ListTypes(ctx context.Context) ([]*provider.ProviderType, error) {
	return s.repo.ListTypes(ctx)
}
