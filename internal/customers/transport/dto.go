package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
	Note        string `json:"note" validate:"max=2000"`
	Record      string `json:"record" validate:"max=2000"`
}

type UpdateCustomerRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=2000"`
	Record *string `json:"record,omitempty" validate:"omitempty,max=2000"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=pending processing completed failed"`
}

// UpdateSearchResultsRequest carries the call-derived annotations written by
// operators reviewing a finished search pass.
type UpdateSearchResultsRequest struct {
	Note   *string `json:"note,omitempty" validate:"omitempty,max=2000"`
	Record *string `json:"record,omitempty" validate:"omitempty,max=2000"`
}

type ListCustomersRequest struct {
	Search    string `form:"search" validate:"max=100"`
	Status    string `form:"status" validate:"omitempty,oneof=pending processing completed failed"`
	ProjectID string `form:"projectId" validate:"omitempty,uuid"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CustomerResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	PhoneNumber    string      `json:"phoneNumber"`
	Note           string      `json:"note"`
	Record         string      `json:"record"`
	Status         string      `json:"status"`
	ProjectIDs     []uuid.UUID `json:"projectIds"`
	SearchGroupIDs []uuid.UUID `json:"searchGroupIds"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type CustomerListResponse struct {
	Items      []CustomerResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}
