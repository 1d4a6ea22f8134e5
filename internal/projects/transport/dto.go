package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=active paused archived"`
}

type LinkCustomerRequest struct {
	CustomerID string `json:"customerId" validate:"required,uuid"`
}

type ProjectResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Status         string      `json:"status"`
	CreatedBy      uuid.UUID   `json:"createdBy"`
	CustomerIDs    []uuid.UUID `json:"customerIds"`
	SearchGroupIDs []uuid.UUID `json:"searchGroupIds"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
