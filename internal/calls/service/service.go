// Package service implements call lifecycle reconciliation: deriving the
// canonical {call record, customer} status pair from the three independent
// writers (initiation, polling, webhook deliveries).
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/calls/domain"
	"callcenter_backend/internal/calls/repository"
	"callcenter_backend/internal/calls/transport"
	customersrepo "callcenter_backend/internal/customers/repository"
	"callcenter_backend/internal/events"
	"callcenter_backend/internal/relationships"
	"callcenter_backend/internal/telephony"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/phone"
)

// Gateway is the provider RPC surface the reconciler needs.
type Gateway interface {
	CreatePhoneCall(ctx context.Context, params telephony.CreateCallParams) (telephony.Call, error)
	GetCall(ctx context.Context, callID string) (telephony.Call, error)
	EndCall(ctx context.Context, callID string) (telephony.Call, error)
}

// EdgeManager links a customer into a project at initiation time.
type EdgeManager interface {
	Link(ctx context.Context, kind relationships.EdgeKind, ownerID, memberID uuid.UUID) error
}

// Service is the call lifecycle reconciler.
type Service struct {
	repo      repository.Repository
	customers customersrepo.Repository
	gateway   Gateway
	edges     EdgeManager
	bus       events.Bus
	log       *logger.Logger
}

// New creates the reconciler service.
func New(repo repository.Repository, customers customersrepo.Repository, gateway Gateway, edges EdgeManager, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, customers: customers, gateway: gateway, edges: edges, bus: bus, log: log}
}

// Initiate starts an outbound call. The provider RPC runs first: if it
// fails, nothing is persisted and the customer keeps its prior status. On
// success the customer is upserted by phone number to processing and a call
// record is created carrying the provider-assigned call id.
func (s *Service) Initiate(ctx context.Context, req transport.InitiateCallRequest) (transport.InitiateCallResponse, error) {
	toNumber := phone.NormalizeE164(req.PhoneNumber)
	if toNumber == "" {
		return transport.InitiateCallResponse{}, apperr.Validation("invalid phone number")
	}

	var projectID *uuid.UUID
	if req.ProjectID != "" {
		parsed, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return transport.InitiateCallResponse{}, apperr.Validation("invalid project id")
		}
		projectID = &parsed
	}

	call, err := s.gateway.CreatePhoneCall(ctx, telephony.CreateCallParams{
		ToNumber:     toNumber,
		CustomerName: req.Name,
		AgentID:      req.AgentID,
	})
	if err != nil {
		return transport.InitiateCallResponse{}, err
	}

	customer, err := s.customers.UpsertByPhone(ctx, req.Name, toNumber, domain.CustomerStatusProcessing)
	if err != nil {
		return transport.InitiateCallResponse{}, err
	}

	now := time.Now().UTC()
	var startedAt *time.Time
	if call.StartTimestamp > 0 {
		started := time.UnixMilli(call.StartTimestamp).UTC()
		startedAt = &started
	}

	status := call.CallStatus
	if status == "" {
		status = domain.CallStatusStarted
	}

	rec, err := s.repo.Create(ctx, repository.CreateCallRecordParams{
		ProviderCallID: call.CallID,
		CustomerID:     customer.ID,
		ProjectID:      projectID,
		Status:         status,
		FromNumber:     call.FromNumber,
		ToNumber:       toNumber,
		StartedAt:      startedAt,
		LastUpdated:    now,
	})
	if err != nil {
		return transport.InitiateCallResponse{}, err
	}

	if projectID != nil {
		if err := s.edges.Link(ctx, relationships.EdgeProjectCustomer, *projectID, customer.ID); err != nil {
			s.log.Error("project link at initiation failed", "project", *projectID, "customer", customer.ID, "error", err)
		}
	}

	s.bus.Publish(ctx, events.CallInitiated{
		BaseEvent:      events.NewBaseEvent(),
		CallRecordID:   rec.ID,
		ProviderCallID: rec.ProviderCallID,
		CustomerID:     customer.ID,
		ToNumber:       toNumber,
	})

	return transport.InitiateCallResponse{
		Call: call,
		Customer: transport.CustomerSummary{
			ID:          customer.ID,
			Name:        customer.Name,
			PhoneNumber: customer.PhoneNumber,
			Status:      domain.CustomerStatusProcessing,
		},
		CallDetail: transport.ToCallRecordResponse(rec),
	}, nil
}

// ApplyEvent evaluates one status-bearing event against the stored record
// and applies it when it advances the lifecycle. It is safe to call with
// duplicated or reordered deliveries: those come back applied=false with no
// state change. The owning customer's status follows the fixed mapping.
func (s *Service) ApplyEvent(ctx context.Context, providerCallID, newStatus string, payload repository.EventPayload, eventTime time.Time) (repository.CallRecord, bool, error) {
	rec, err := s.repo.GetByProviderCallID(ctx, providerCallID)
	if err != nil {
		return repository.CallRecord{}, false, err
	}

	decision := domain.Decide(rec.Status, rec.LastUpdated, newStatus, eventTime)
	if !decision.Apply {
		s.log.CallEvent("event discarded: "+decision.Reason, providerCallID, newStatus)
		s.repairCustomerStatus(ctx, rec)
		return rec, false, nil
	}

	updated, applied, err := s.repo.ApplyEvent(ctx, repository.ApplyEventParams{
		ProviderCallID: providerCallID,
		Status:         decision.CallStatus,
		Payload:        payload,
		EventTimestamp: eventTime,
	})
	if err != nil {
		return repository.CallRecord{}, false, err
	}
	if !applied {
		// A concurrent writer won the conditional update.
		s.log.CallEvent("event lost conditional update", providerCallID, newStatus)
		s.repairCustomerStatus(ctx, updated)
		return updated, false, nil
	}

	if err := s.customers.UpdateStatus(ctx, updated.CustomerID, decision.CustomerStatus); err != nil {
		// The call record advanced but the customer did not. Reporting
		// applied=false with the error keeps the caller returning 500, and
		// the provider's retry lands on the stale path where the customer
		// mapping is repaired from the stored record.
		s.log.Error("customer status update failed", "customer", updated.CustomerID, "error", err)
		return updated, false, err
	}

	s.bus.Publish(ctx, events.CallStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		CallRecordID:   updated.ID,
		ProviderCallID: updated.ProviderCallID,
		CustomerID:     updated.CustomerID,
		FromStatus:     rec.Status,
		ToStatus:       updated.Status,
		Terminal:       decision.Terminal,
		EventTimestamp: eventTime,
	})
	s.log.CallEvent("event applied", providerCallID, updated.Status)
	return updated, true, nil
}

// repairCustomerStatus re-derives the owning customer's status from the
// stored call record. A discarded retry can follow a delivery whose record
// update landed but whose customer update did not; the mapping is fixed, so
// a disagreement is always repairable from the record alone. Best effort:
// failures are logged and the next event or poll tries again.
func (s *Service) repairCustomerStatus(ctx context.Context, rec repository.CallRecord) {
	want := domain.CustomerStatusFor(rec.Status)
	customer, err := s.customers.GetByID(ctx, rec.CustomerID)
	if err != nil {
		s.log.Error("customer status repair lookup failed", "customer", rec.CustomerID, "error", err)
		return
	}
	if customer.Status == want {
		return
	}
	if err := s.customers.UpdateStatus(ctx, rec.CustomerID, want); err != nil {
		s.log.Error("customer status repair failed", "customer", rec.CustomerID, "error", err)
		return
	}
	s.log.CallEvent("customer status repaired", rec.ProviderCallID, rec.Status)
}

// Get returns the provider's live view alongside the local record. The poll
// response is fed through ApplyEvent, making reads a reconciliation writer:
// a missed webhook is caught up on the next poll.
func (s *Service) Get(ctx context.Context, providerCallID string) (transport.CallDetailResponse, error) {
	rec, err := s.repo.GetByProviderCallID(ctx, providerCallID)
	if err != nil {
		return transport.CallDetailResponse{}, err
	}

	call, err := s.gateway.GetCall(ctx, providerCallID)
	if err != nil {
		// Provider unavailable: serve the local view.
		s.log.CallEvent("poll failed, serving local state", providerCallID, rec.Status)
		return transport.CallDetailResponse{
			Call:       telephony.Call{CallID: rec.ProviderCallID, CallStatus: rec.Status},
			CallDetail: transport.ToCallRecordResponse(rec),
		}, nil
	}

	updated, _, err := s.ApplyEvent(ctx, providerCallID, call.CallStatus, payloadFromCall(call), time.Now().UTC())
	if err != nil {
		return transport.CallDetailResponse{}, err
	}

	return transport.CallDetailResponse{
		Call:       call,
		CallDetail: transport.ToCallRecordResponse(updated),
	}, nil
}

// GetLocal returns the stored record without contacting the provider.
func (s *Service) GetLocal(ctx context.Context, providerCallID string) (transport.CallRecordResponse, error) {
	rec, err := s.repo.GetByProviderCallID(ctx, providerCallID)
	if err != nil {
		return transport.CallRecordResponse{}, err
	}
	return transport.ToCallRecordResponse(rec), nil
}

// End terminates a live call on the provider, then records the terminal
// outcome through ApplyEvent with the current time.
func (s *Service) End(ctx context.Context, providerCallID string) (transport.CallDetailResponse, error) {
	if _, err := s.repo.GetByProviderCallID(ctx, providerCallID); err != nil {
		return transport.CallDetailResponse{}, err
	}

	call, err := s.gateway.EndCall(ctx, providerCallID)
	if err != nil {
		return transport.CallDetailResponse{}, err
	}

	status := call.CallStatus
	if !domain.IsTerminal(status) {
		status = domain.CallStatusEnded
	}

	updated, _, err := s.ApplyEvent(ctx, providerCallID, status, payloadFromCall(call), time.Now().UTC())
	if err != nil {
		return transport.CallDetailResponse{}, err
	}

	return transport.CallDetailResponse{
		Call:       call,
		CallDetail: transport.ToCallRecordResponse(updated),
	}, nil
}

// List retrieves call records with filters.
func (s *Service) List(ctx context.Context, req transport.ListCallsRequest) (transport.CallListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	params := repository.ListCallRecordsParams{
		Status: req.Status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return transport.CallListResponse{}, apperr.Validation("invalid customer id")
		}
		params.CustomerID = &id
	}
	if req.ProjectID != "" {
		id, err := uuid.Parse(req.ProjectID)
		if err != nil {
			return transport.CallListResponse{}, apperr.Validation("invalid project id")
		}
		params.ProjectID = &id
	}

	records, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CallListResponse{}, err
	}

	items := make([]transport.CallRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, transport.ToCallRecordResponse(rec))
	}
	return transport.CallListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// payloadFromCall lifts a provider call into the whole-record merge payload.
func payloadFromCall(call telephony.Call) repository.EventPayload {
	return repository.EventPayload{
		Transcript:   call.Transcript,
		RecordingURL: call.RecordingURL,
		Analysis: repository.Analysis{
			CallSummary:    call.CallAnalysis.CallSummary,
			UserSentiment:  call.CallAnalysis.UserSentiment,
			CallSuccessful: call.CallAnalysis.CallSuccessful,
			InVoicemail:    call.CallAnalysis.InVoicemail,
			CustomAnalysisData: repository.CustomAnalysisData{
				Note:   call.CallAnalysis.CustomAnalysisData.Note,
				Result: call.CallAnalysis.CustomAnalysisData.Result,
			},
		},
	}
}
