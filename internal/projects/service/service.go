// Package service provides business logic for the projects bounded context.
package service

import (
	"context"

	"github.com/google/uuid"

	"callcenter_backend/internal/projects/repository"
	"callcenter_backend/internal/projects/transport"
	"callcenter_backend/internal/relationships"
)

// EdgeManager is the subset of the relationship manager used by projects.
type EdgeManager interface {
	Link(ctx context.Context, kind relationships.EdgeKind, ownerID, memberID uuid.UUID) error
	Unlink(ctx context.Context, kind relationships.EdgeKind, ownerID, memberID uuid.UUID) error
}

// Service implements project business logic.
type Service struct {
	repo  repository.Repository
	edges EdgeManager
}

// New creates a new projects service.
func New(repo repository.Repository, edges EdgeManager) *Service {
	return &Service{repo: repo, edges: edges}
}

// Create registers a new project owned by the calling user.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateProjectRequest) (transport.ProjectResponse, error) {
	project, err := s.repo.Create(ctx, repository.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Status:      "active",
		CreatedBy:   createdBy,
	})
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

// GetByID retrieves a project scoped to its creator.
func (s *Service) GetByID(ctx context.Context, createdBy, id uuid.UUID) (transport.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, createdBy, id)
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

// List retrieves the caller's projects.
func (s *Service) List(ctx context.Context, createdBy uuid.UUID) ([]transport.ProjectResponse, error) {
	projects, err := s.repo.List(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	responses := make([]transport.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, toResponse(project))
	}
	return responses, nil
}

// Update applies a partial update scoped to the creator.
func (s *Service) Update(ctx context.Context, createdBy, id uuid.UUID, req transport.UpdateProjectRequest) (transport.ProjectResponse, error) {
	project, err := s.repo.Update(ctx, repository.UpdateProjectParams{
		ID:          id,
		CreatedBy:   createdBy,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

// Delete removes a project and its membership references.
func (s *Service) Delete(ctx context.Context, createdBy, id uuid.UUID) error {
	return s.repo.Delete(ctx, createdBy, id)
}

// LinkCustomer attaches a customer to the project on both sides.
func (s *Service) LinkCustomer(ctx context.Context, createdBy, projectID, customerID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, projectID); err != nil {
		return err
	}
	return s.edges.Link(ctx, relationships.EdgeProjectCustomer, projectID, customerID)
}

// UnlinkCustomer detaches a customer from the project on both sides.
func (s *Service) UnlinkCustomer(ctx context.Context, createdBy, projectID, customerID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, projectID); err != nil {
		return err
	}
	return s.edges.Unlink(ctx, relationships.EdgeProjectCustomer, projectID, customerID)
}

func toResponse(p repository.Project) transport.ProjectResponse {
	return transport.ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Status:         p.Status,
		CreatedBy:      p.CreatedBy,
		CustomerIDs:    p.CustomerIDs,
		SearchGroupIDs: p.SearchGroupIDs,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
