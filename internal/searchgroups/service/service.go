// Package service provides business logic for the search groups bounded
// context, including bulk membership imports.
package service

import (
	"context"

	"github.com/google/uuid"

	"callcenter_backend/internal/relationships"
	"callcenter_backend/internal/searchgroups/repository"
	"callcenter_backend/internal/searchgroups/transport"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/phone"
)

const defaultMaxCustomers = 1000

// EdgeManager is the subset of the relationship manager used by search groups.
type EdgeManager interface {
	Link(ctx context.Context, kind relationships.EdgeKind, ownerID, memberID uuid.UUID) error
	Unlink(ctx context.Context, kind relationships.EdgeKind, ownerID, memberID uuid.UUID) error
	BulkLink(ctx context.Context, kind relationships.EdgeKind, ownerID uuid.UUID, memberIDs []uuid.UUID) relationships.BulkOutcome
}

// CustomerUpserter creates or refreshes customers for external imports.
type CustomerUpserter interface {
	UpsertExternal(ctx context.Context, name, phoneNumber, note string) (uuid.UUID, error)
}

// Service implements search group business logic.
type Service struct {
	repo      repository.Repository
	edges     EdgeManager
	customers CustomerUpserter
	log       *logger.Logger
}

// New creates a new search groups service.
func New(repo repository.Repository, edges EdgeManager, customers CustomerUpserter, log *logger.Logger) *Service {
	return &Service{repo: repo, edges: edges, customers: customers, log: log}
}

// Create registers a new search group owned by the calling user.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req transport.CreateSearchGroupRequest) (transport.SearchGroupResponse, error) {
	settings := repository.Settings{
		MaxCustomers:        defaultMaxCustomers,
		NotificationEnabled: true,
	}
	if req.Settings != nil {
		settings = repository.Settings{
			MaxCustomers:        req.Settings.MaxCustomers,
			AutoAssignProjects:  req.Settings.AutoAssignProjects,
			NotificationEnabled: req.Settings.NotificationEnabled,
		}
	}

	group, err := s.repo.Create(ctx, repository.CreateSearchGroupParams{
		Name:        req.Name,
		Description: req.Description,
		Status:      "active",
		CreatedBy:   createdBy,
		Settings:    settings,
	})
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(group), nil
}

// GetByID retrieves a search group scoped to its creator.
func (s *Service) GetByID(ctx context.Context, createdBy, id uuid.UUID) (transport.SearchGroupResponse, error) {
	group, err := s.repo.GetByID(ctx, createdBy, id)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(group), nil
}

// List retrieves the caller's search groups.
func (s *Service) List(ctx context.Context, createdBy uuid.UUID) ([]transport.SearchGroupResponse, error) {
	groups, err := s.repo.List(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	responses := make([]transport.SearchGroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, toResponse(group))
	}
	return responses, nil
}

// Update applies a partial update. Shrinking maxCustomers below the current
// membership size is rejected rather than silently orphaning members.
func (s *Service) Update(ctx context.Context, createdBy, id uuid.UUID, req transport.UpdateSearchGroupRequest) (transport.SearchGroupResponse, error) {
	params := repository.UpdateSearchGroupParams{
		ID:          id,
		CreatedBy:   createdBy,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.Settings != nil {
		existing, err := s.repo.GetByID(ctx, createdBy, id)
		if err != nil {
			return transport.SearchGroupResponse{}, err
		}
		if req.Settings.MaxCustomers < len(existing.CustomerIDs) {
			return transport.SearchGroupResponse{}, apperr.Validation("maxCustomers below current membership size")
		}
		params.Settings = &repository.Settings{
			MaxCustomers:        req.Settings.MaxCustomers,
			AutoAssignProjects:  req.Settings.AutoAssignProjects,
			NotificationEnabled: req.Settings.NotificationEnabled,
		}
	}

	group, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(group), nil
}

// Delete removes a search group and its membership references.
func (s *Service) Delete(ctx context.Context, createdBy, id uuid.UUID) error {
	return s.repo.Delete(ctx, createdBy, id)
}

// ReplaceFlows overwrites the bounded flow sub-list.
func (s *Service) ReplaceFlows(ctx context.Context, createdBy, id uuid.UUID, req transport.ReplaceFlowsRequest) (transport.SearchGroupResponse, error) {
	if len(req.Flows) > repository.MaxFlows {
		return transport.SearchGroupResponse{}, apperr.Validation("too many flows")
	}

	flows := make([]repository.Flow, 0, len(req.Flows))
	for _, payload := range req.Flows {
		flows = append(flows, repository.Flow{
			ID:          uuid.New(),
			Name:        payload.Name,
			Description: payload.Description,
			AgentID:     payload.AgentID,
			Enabled:     payload.Enabled,
		})
	}

	group, err := s.repo.ReplaceFlows(ctx, createdBy, id, flows)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(group), nil
}

// AddFlow appends one flow to the group's sub-list, enforcing the bound.
func (s *Service) AddFlow(ctx context.Context, createdBy, id uuid.UUID, payload transport.FlowPayload) (transport.SearchGroupResponse, error) {
	group, err := s.repo.GetByID(ctx, createdBy, id)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	if len(group.Flows) >= repository.MaxFlows {
		return transport.SearchGroupResponse{}, apperr.Validation("too many flows")
	}

	flows := append(group.Flows, repository.Flow{
		ID:          uuid.New(),
		Name:        payload.Name,
		Description: payload.Description,
		AgentID:     payload.AgentID,
		Enabled:     payload.Enabled,
	})

	updated, err := s.repo.ReplaceFlows(ctx, createdBy, id, flows)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(updated), nil
}

// RemoveFlow deletes one flow from the group's sub-list by id.
func (s *Service) RemoveFlow(ctx context.Context, createdBy, id, flowID uuid.UUID) (transport.SearchGroupResponse, error) {
	group, err := s.repo.GetByID(ctx, createdBy, id)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}

	flows := make([]repository.Flow, 0, len(group.Flows))
	found := false
	for _, flow := range group.Flows {
		if flow.ID == flowID {
			found = true
			continue
		}
		flows = append(flows, flow)
	}
	if !found {
		return transport.SearchGroupResponse{}, apperr.NotFound("flow not found")
	}

	updated, err := s.repo.ReplaceFlows(ctx, createdBy, id, flows)
	if err != nil {
		return transport.SearchGroupResponse{}, err
	}
	return toResponse(updated), nil
}

// CallDetails lists call records for the group's member customers.
func (s *Service) CallDetails(ctx context.Context, createdBy, id uuid.UUID) ([]repository.MemberCallDetail, error) {
	return s.repo.MemberCallDetails(ctx, createdBy, id)
}

// Stats aggregates membership counts and member call outcomes.
func (s *Service) Stats(ctx context.Context, createdBy, id uuid.UUID) (repository.GroupStats, error) {
	return s.repo.Stats(ctx, createdBy, id)
}

// LinkCustomer attaches a customer, enforcing the maxCustomers bound.
func (s *Service) LinkCustomer(ctx context.Context, createdBy, groupID, customerID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return err
	}
	return s.edges.Link(ctx, relationships.EdgeSearchGroupCustomer, groupID, customerID)
}

// UnlinkCustomer detaches a customer.
func (s *Service) UnlinkCustomer(ctx context.Context, createdBy, groupID, customerID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return err
	}
	return s.edges.Unlink(ctx, relationships.EdgeSearchGroupCustomer, groupID, customerID)
}

// LinkProject attaches a project.
func (s *Service) LinkProject(ctx context.Context, createdBy, groupID, projectID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return err
	}
	return s.edges.Link(ctx, relationships.EdgeSearchGroupProject, groupID, projectID)
}

// UnlinkProject detaches a project.
func (s *Service) UnlinkProject(ctx context.Context, createdBy, groupID, projectID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return err
	}
	return s.edges.Unlink(ctx, relationships.EdgeSearchGroupProject, groupID, projectID)
}

// BulkLinkCustomers links many existing customers, partitioning the outcome
// per item and continuing past failures.
func (s *Service) BulkLinkCustomers(ctx context.Context, createdBy, groupID uuid.UUID, req transport.BulkCustomersRequest) (relationships.BulkOutcome, error) {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return relationships.BulkOutcome{}, err
	}

	memberIDs := make([]uuid.UUID, 0, len(req.CustomerIDs))
	for _, raw := range req.CustomerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return relationships.BulkOutcome{}, apperr.Validation("invalid customer id: " + raw)
		}
		memberIDs = append(memberIDs, id)
	}

	return s.edges.BulkLink(ctx, relationships.EdgeSearchGroupCustomer, groupID, memberIDs), nil
}

// ImportExternalCustomers upserts customers by phone number, then links them.
// Per-item upsert failures are reported, not fatal.
func (s *Service) ImportExternalCustomers(ctx context.Context, createdBy, groupID uuid.UUID, req transport.ExternalCustomersRequest) (relationships.BulkOutcome, error) {
	if _, err := s.repo.GetByID(ctx, createdBy, groupID); err != nil {
		return relationships.BulkOutcome{}, err
	}

	outcome := relationships.BulkOutcome{
		Added:    make([]uuid.UUID, 0, len(req.Customers)),
		Existing: make([]uuid.UUID, 0),
		Failed:   make([]relationships.BulkError, 0),
	}
	memberIDs := make([]uuid.UUID, 0, len(req.Customers))
	for _, payload := range req.Customers {
		normalized := phone.NormalizeE164(payload.PhoneNumber)
		customerID, err := s.customers.UpsertExternal(ctx, payload.Name, normalized, payload.Note)
		if err != nil {
			outcome.Failed = append(outcome.Failed, relationships.BulkError{Error: err.Error()})
			continue
		}
		memberIDs = append(memberIDs, customerID)
	}

	linked := s.edges.BulkLink(ctx, relationships.EdgeSearchGroupCustomer, groupID, memberIDs)
	outcome.Added = linked.Added
	outcome.Existing = linked.Existing
	outcome.Failed = append(outcome.Failed, linked.Failed...)
	return outcome, nil
}

func toResponse(g repository.SearchGroup) transport.SearchGroupResponse {
	return transport.SearchGroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Status:      g.Status,
		CreatedBy:   g.CreatedBy,
		CustomerIDs: g.CustomerIDs,
		ProjectIDs:  g.ProjectIDs,
		Flows:       g.Flows,
		Settings:    g.Settings,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
