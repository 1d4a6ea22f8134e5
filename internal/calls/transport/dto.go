package transport

import (
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/calls/repository"
	"callcenter_backend/internal/telephony"
)

type InitiateCallRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
	ProjectID   string `json:"projectId" validate:"omitempty,uuid"`
	AgentID     string `json:"agentId" validate:"omitempty,max=200"`
}

type ListCallsRequest struct {
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	ProjectID  string `form:"projectId" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,max=50"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CallRecordResponse struct {
	ID             uuid.UUID           `json:"id"`
	ProviderCallID string              `json:"providerCallId"`
	CustomerID     uuid.UUID           `json:"customerId"`
	ProjectID      *uuid.UUID          `json:"projectId,omitempty"`
	Status         string              `json:"status"`
	Transcript     string              `json:"transcript"`
	RecordingURL   string              `json:"recordingUrl"`
	Analysis       repository.Analysis `json:"analysis"`
	FromNumber     string              `json:"fromNumber"`
	ToNumber       string              `json:"toNumber"`
	StartedAt      *time.Time          `json:"startedAt,omitempty"`
	LastUpdated    time.Time           `json:"lastUpdated"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// CustomerSummary is the slim customer view returned with call responses.
type CustomerSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
}

type InitiateCallResponse struct {
	Call       telephony.Call     `json:"call"`
	Customer   CustomerSummary    `json:"customer"`
	CallDetail CallRecordResponse `json:"callDetail"`
}

type CallDetailResponse struct {
	Call       telephony.Call     `json:"call"`
	CallDetail CallRecordResponse `json:"callDetail"`
}

type CallListResponse struct {
	Items      []CallRecordResponse `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// ToCallRecordResponse maps a persisted record to its API shape.
func ToCallRecordResponse(rec repository.CallRecord) CallRecordResponse {
	return CallRecordResponse{
		ID:             rec.ID,
		ProviderCallID: rec.ProviderCallID,
		CustomerID:     rec.CustomerID,
		ProjectID:      rec.ProjectID,
		Status:         rec.Status,
		Transcript:     rec.Transcript,
		RecordingURL:   rec.RecordingURL,
		Analysis:       rec.Analysis,
		FromNumber:     rec.FromNumber,
		ToNumber:       rec.ToNumber,
		StartedAt:      rec.StartedAt,
		LastUpdated:    rec.LastUpdated,
		CreatedAt:      rec.CreatedAt,
	}
}
