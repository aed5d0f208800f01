package services

import (
	"context"

	"github.com/serviceinfo/serviceinfo/internal/domain/area"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// AreaService implements area.Service
type AreaService struct {
	repo   area.Repository
	logger *logger.Logger
}

// NewAreaService creates a new service area service
func NewAreaService(repo area.Repository, log *logger.Logger) area.Service {
	return &AreaService{repo: repo, logger: log}
}

// Get returns an area with its children
func (s *AreaService) Get(ctx context.Context, id int64) (*area.Node, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.node(ctx, a)
}

// List returns a page of areas with their children
func (s *AreaService) List(ctx context.Context, limit, offset int) ([]*area.Node, int64, error) {
	areas, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	nodes := make([]*area.Node, 0, len(areas))
	for _, a := range areas {
		n, err := s.node(ctx, a)
		if err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, n)
	}
	return nodes, total, nil
}

// Create stores an area; its parent must exist
func (s *AreaService) Create(ctx context.Context, a *area.ServiceArea) error {
	if a.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *a.ParentID); err != nil {
			return err
		}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create service area")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"area_id": a.ID,
	}).Info("Service area created")
	return nil
}

func (s *AreaService) node(ctx context.Context, a *area.ServiceArea) (*area.Node, error) {
	children, err := s.repo.ChildIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &area.Node{ServiceArea: a, ChildIDs: children}, nil
}
