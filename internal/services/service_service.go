package services

import (
	"context"
	"fmt"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/domain/provider"
	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/domain/service"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/mail"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
)

// MailQueue schedules mail for background delivery
type MailQueue interface {
	Enqueue(msg mail.Message) error
}

// ServiceService implements service.Manager
type ServiceService struct {
	repo      service.Repository
	providers provider.Repository
	areas     area.Repository
	users     user.Repository
	queue     MailQueue
	index     search.Service
	logger    *logger.Logger
}

// NewServiceService creates a new service service. index may be nil, in which case
// approvals do not refresh the search index.
func NewServiceService(
	repo service.Repository,
	providers provider.Repository,
	areas area.Repository,
	users user.Repository,
	queue MailQueue,
	index search.Service,
	log *logger.Logger,
) service.Manager {
	return &ServiceService{
		repo:      repo,
		providers: providers,
		areas:     areas,
		users:     users,
		queue:     queue,
		index:     index,
		logger:    log,
	}
}

// Get retrieves a service by ID
func (s *ServiceService) Get(ctx context.Context, id int64) (*service.Service, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves services with filtering and pagination
func (s *ServiceService) List(ctx context.Context, filter service.Filter, limit, offset int) ([]*service.Service, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, errors.BadRequest(fmt.Sprintf("Unknown status %q", filter.Status))
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Create stores a new draft service after checking its references
func (s *ServiceService) Create(ctx context.Context, svc *service.Service) error {
	if _, err := s.providers.GetByID(ctx, svc.ProviderID); err != nil {
		return err
	}
	if _, err := s.areas.GetByID(ctx, svc.AreaID); err != nil {
		return err
	}
	if svc.TypeID != nil {
		if _, err := s.repo.GetType(ctx, *svc.TypeID); err != nil {
			return err
		}
	}

	svc.Status = service.StatusDraft
	if err := s.repo.Create(ctx, svc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create service")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"service_id":  svc.ID,
		"provider_id": svc.ProviderID,
	}).Info("Service created")
	return nil
}

// Approve makes a draft service current, notifies its provider and refreshes the index
func (s *ServiceService) Approve(ctx context.Context, id int64) (*service.Service, error) {
	svc, err := s.transition(ctx, id, service.StatusCurrent)
	if err != nil {
		return nil, err
	}

	s.notifyApproved(ctx, svc)

	if s.index != nil {
		if _, err := s.index.Rebuild(ctx); err != nil {
			s.logger.ErrorWithErr(err, "Failed to rebuild search index after approval")
		}
	}

	return svc, nil
}

// Reject marks a draft service rejected
func (s *ServiceService) Reject(ctx context.Context, id int64) (*service.Service, error) {
	return s.transition(ctx, id, service.StatusRejected)
}

func (s *ServiceService) transition(ctx context.Context, id int64, to service.Status) (*service.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.Status != service.StatusDraft {
		return nil, errors.Conflict(fmt.Sprintf("Service is %s; only draft services can be %s", svc.Status, verbFor(to)))
	}

	// a concurrent transition may have won since the read
	if err := s.repo.UpdateStatus(ctx, id, service.StatusDraft, to); err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Code == errors.ErrCodeConflict {
			return nil, errors.Conflict(fmt.Sprintf("Service is no longer a draft; it cannot be %s", verbFor(to)))
		}
		s.logger.ErrorWithErr(err, "Failed to update service status")
		return nil, err
	}
	svc.Status = to

	metrics.RecordServiceTransition(string(to))
	s.logger.WithFields(map[string]interface{}{
		"service_id": id,
		"status":     to,
	}).Info("Service status changed")

	return svc, nil
}

// notifyApproved queues the approval email. Failures are logged, never returned.
func (s *ServiceService) notifyApproved(ctx context.Context, svc *service.Service) {
	fields := map[string]interface{}{"service_id": svc.ID}

	p, err := s.providers.GetByID(ctx, svc.ProviderID)
	if err != nil {
		s.logger.WithFields(fields).ErrorWithErr(err, "Failed to load provider for approval email")
		return
	}
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		s.logger.WithFields(fields).ErrorWithErr(err, "Failed to load user for approval email")
		return
	}

	msg, err := mail.ServiceApproved(u.Email, svc.String())
	if err != nil {
		s.logger.WithFields(fields).ErrorWithErr(err, "Failed to render approval email")
		return
	}
	if err := s.queue.Enqueue(msg); err != nil {
		s.logger.WithFields(fields).ErrorWithErr(err, "Failed to queue approval email")
	}
}

// GetType retrieves a service type by ID
func (s *ServiceService) GetType(ctx context.Context, id int64) (*service.ServiceType, error) {
	return s.repo.GetType(ctx, id)
}

// ListTypes returns every service type
func (s *ServiceService) ListTypes(ctx context.Context) ([]*service.ServiceType, error) {
	return s.repo.ListTypes(ctx)
}

func verbFor(status service.Status) string {
	switch status {
	case service.StatusCurrent:
		return "approved"
	case service.StatusRejected:
		return "rejected"
	}
	return string(status)
}
