// Package service provides business logic for the customers bounded context.
package service

import (
	"context"

	"github.com/google/uuid"

	"callcenter_backend/internal/customers/repository"
	"callcenter_backend/internal/customers/transport"
	"callcenter_backend/internal/events"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/phone"
)

// Service implements customer business logic.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new customers service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Repository exposes the repository for cross-module wiring.
func (s *Service) Repository() repository.Repository {
	return s.repo
}

// Create registers a new customer with a normalized phone number.
func (s *Service) Create(ctx context.Context, req transport.CreateCustomerRequest) (transport.CustomerResponse, error) {
	normalized := phone.NormalizeE164(req.PhoneNumber)
	if normalized == "" {
		return transport.CustomerResponse{}, apperr.Validation("invalid phone number")
	}

	customer, err := s.repo.Create(ctx, repository.CreateCustomerParams{
		Name:        req.Name,
		PhoneNumber: normalized,
		Note:        req.Note,
		Record:      req.Record,
		Status:      "pending",
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

// List retrieves customers with pagination.
func (s *Service) List(ctx context.Context, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	params := repository.ListCustomersParams{
		Search: req.Search,
		Status: req.Status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.ProjectID != "" {
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return transport.CustomerListResponse{}, apperr.Validation("invalid project id")
		}
		params.ProjectID = &projectID
	}

	customers, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	items := make([]transport.CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		items = append(items, toResponse(customer))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.CustomerListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update applies a partial update. An explicit status here is the
// administrative override path; it publishes the same status-change event
// as call-driven updates so downstream consumers stay in sync.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	var prevStatus string
	if req.Status != nil {
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return transport.CustomerResponse{}, err
		}
		prevStatus = existing.Status
	}

	customer, err := s.repo.Update(ctx, repository.UpdateCustomerParams{
		ID:     id,
		Name:   req.Name,
		Note:   req.Note,
		Record: req.Record,
		Status: req.Status,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	if req.Status != nil && prevStatus != *req.Status {
		s.bus.Publish(ctx, events.CustomerStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			CustomerID: customer.ID,
			FromStatus: prevStatus,
			ToStatus:   *req.Status,
		})
	}
	return toResponse(customer), nil
}

// UpdateSearchResults overwrites the operator-facing note and record fields
// without touching name, phone or status.
func (s *Service) UpdateSearchResults(ctx context.Context, id uuid.UUID, req transport.UpdateSearchResultsRequest) (transport.CustomerResponse, error) {
	customer, err := s.repo.Update(ctx, repository.UpdateCustomerParams{
		ID:     id,
		Note:   req.Note,
		Record: req.Record,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return toResponse(customer), nil
}

// UpsertExternal creates or refreshes a customer for an external import,
// keyed by phone number. Existing customers keep their status; new ones
// start pending.
func (s *Service) UpsertExternal(ctx context.Context, name, phoneNumber, note string) (uuid.UUID, error) {
	if phoneNumber == "" {
		return uuid.Nil, apperr.Validation("invalid phone number")
	}

	existing, err := s.repo.GetByPhone(ctx, phoneNumber)
	if err == nil {
		return existing.ID, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return uuid.Nil, err
	}

	customer, err := s.repo.Create(ctx, repository.CreateCustomerParams{
		Name:        name,
		PhoneNumber: phoneNumber,
		Note:        note,
		Status:      "pending",
	})
	if err != nil {
		return uuid.Nil, err
	}
	return customer.ID, nil
}

// Delete removes a customer and cascades to its call records.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCascade(ctx, id)
}

func toResponse(c repository.Customer) transport.CustomerResponse {
	return transport.CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		PhoneNumber:    c.PhoneNumber,
		Note:           c.Note,
		Record:         c.Record,
		Status:         c.Status,
		ProjectIDs:     c.ProjectIDs,
		SearchGroupIDs: c.SearchGroupIDs,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
