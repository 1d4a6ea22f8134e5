package transport

import (
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/searchgroups/repository"
)

type SettingsPayload struct {
	MaxCustomers        int  `json:"maxCustomers" validate:"required,min=1,max=100000"`
	AutoAssignProjects  bool `json:"autoAssignProjects"`
	NotificationEnabled bool `json:"notificationEnabled"`
}

type CreateSearchGroupRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"max=2000"`
	Settings    *SettingsPayload `json:"settings,omitempty"`
}

type UpdateSearchGroupRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *string          `json:"status,omitempty" validate:"omitempty,oneof=active paused archived"`
	Settings    *SettingsPayload `json:"settings,omitempty"`
}

type FlowPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AgentID     string `json:"agentId" validate:"max=200"`
	Enabled     bool   `json:"enabled"`
}

type ReplaceFlowsRequest struct {
	Flows []FlowPayload `json:"flows" validate:"required,max=20,dive"`
}

type LinkCustomerRequest struct {
	CustomerID string `json:"customerId" validate:"required,uuid"`
}

type LinkProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
}

type BulkCustomersRequest struct {
	CustomerIDs []string `json:"customerIds" validate:"required,min=1,max=1000,dive,uuid"`
}

// ExternalCustomerPayload is a customer not yet in the system; the bulk
// external import upserts it by phone number before linking.
type ExternalCustomerPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
	Note        string `json:"note" validate:"max=2000"`
}

type ExternalCustomersRequest struct {
	Customers []ExternalCustomerPayload `json:"customers" validate:"required,min=1,max=1000,dive"`
}

type SearchGroupResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	CreatedBy   uuid.UUID           `json:"createdBy"`
	CustomerIDs []uuid.UUID         `json:"customerIds"`
	ProjectIDs  []uuid.UUID         `json:"projectIds"`
	Flows       []repository.Flow   `json:"flows"`
	Settings    repository.Settings `json:"settings"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}
