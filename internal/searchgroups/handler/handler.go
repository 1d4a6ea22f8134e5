// Package handler provides HTTP handlers for the search groups bounded context.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcenter_backend/internal/searchgroups/service"
	"callcenter_backend/internal/searchgroups/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid search group id"
)

// Handler handles HTTP requests for search groups.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new search groups handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts search group routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.GetByID)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.PUT("/:id/flows", h.ReplaceFlows)
	group.POST("/:id/flows", h.AddFlow)
	group.DELETE("/:id/flows/:flowId", h.RemoveFlow)
	group.GET("/:id/stats", h.Stats)
	group.GET("/:id/call-details", h.CallDetails)
	group.POST("/:id/customers", h.LinkCustomer)
	group.DELETE("/:id/customers", h.UnlinkCustomer)
	group.POST("/:id/projects", h.LinkProject)
	group.DELETE("/:id/projects", h.UnlinkProject)
	group.POST("/:id/bulk-customers", h.BulkCustomers)
	group.POST("/:id/external-customers", h.ExternalCustomers)
}

// scoped extracts the caller id and the :id path parameter.
func scoped(c *gin.Context) (userID, groupID uuid.UUID, ok bool) {
	userID, ok = httpkit.MustGetUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, groupID, true
}

// Create registers a search group.
// POST /api/v1/search-groups
func (h *Handler) Create(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	var req transport.CreateSearchGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List retrieves the caller's search groups.
// GET /api/v1/search-groups
func (h *Handler) List(c *gin.Context) {
	userID, ok := httpkit.MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a search group.
// GET /api/v1/search-groups/:id
func (h *Handler) GetByID(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), userID, groupID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update applies a partial search group update.
// PUT /api/v1/search-groups/:id
func (h *Handler) Update(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.UpdateSearchGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), userID, groupID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a search group.
// DELETE /api/v1/search-groups/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, groupID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// ReplaceFlows overwrites the flow sub-list.
// PUT /api/v1/search-groups/:id/flows
func (h *Handler) ReplaceFlows(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.ReplaceFlowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ReplaceFlows(c.Request.Context(), userID, groupID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddFlow appends a single flow to the group.
// POST /api/v1/search-groups/:id/flows
func (h *Handler) AddFlow(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.FlowPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AddFlow(c.Request.Context(), userID, groupID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RemoveFlow deletes a single flow from the group.
// DELETE /api/v1/search-groups/:id/flows/:flowId
func (h *Handler) RemoveFlow(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}
	flowID, err := uuid.Parse(c.Param("flowId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid flow id", nil)
		return
	}

	result, err := h.svc.RemoveFlow(c.Request.Context(), userID, groupID, flowID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CallDetails lists call records for the group's member customers.
// GET /api/v1/search-groups/:id/call-details
func (h *Handler) CallDetails(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	result, err := h.svc.CallDetails(c.Request.Context(), userID, groupID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Stats aggregates membership counts and call outcomes.
// GET /api/v1/search-groups/:id/stats
func (h *Handler) Stats(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), userID, groupID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// LinkCustomer attaches a customer, enforcing capacity.
// POST /api/v1/search-groups/:id/customers
func (h *Handler) LinkCustomer(c *gin.Context) {
	h.mutateCustomerEdge(c, h.svc.LinkCustomer)
}

// UnlinkCustomer detaches a customer.
// DELETE /api/v1/search-groups/:id/customers
func (h *Handler) UnlinkCustomer(c *gin.Context) {
	h.mutateCustomerEdge(c, h.svc.UnlinkCustomer)
}

func (h *Handler) mutateCustomerEdge(c *gin.Context, op func(ctx context.Context, createdBy, groupID, customerID uuid.UUID) error) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.LinkCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid customer id", nil)
		return
	}

	if err := op(c.Request.Context(), userID, groupID, customerID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// LinkProject attaches a project.
// POST /api/v1/search-groups/:id/projects
func (h *Handler) LinkProject(c *gin.Context) {
	h.mutateProjectEdge(c, h.svc.LinkProject)
}

// UnlinkProject detaches a project.
// DELETE /api/v1/search-groups/:id/projects
func (h *Handler) UnlinkProject(c *gin.Context) {
	h.mutateProjectEdge(c, h.svc.UnlinkProject)
}

func (h *Handler) mutateProjectEdge(c *gin.Context, op func(ctx context.Context, createdBy, groupID, projectID uuid.UUID) error) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.LinkProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return
	}

	if err := op(c.Request.Context(), userID, groupID, projectID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// BulkCustomers links many existing customers in one request.
// POST /api/v1/search-groups/:id/bulk-customers
func (h *Handler) BulkCustomers(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.BulkCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.BulkLinkCustomers(c.Request.Context(), userID, groupID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ExternalCustomers imports and links customers not yet in the system.
// POST /api/v1/search-groups/:id/external-customers
func (h *Handler) ExternalCustomers(c *gin.Context) {
	userID, groupID, ok := scoped(c)
	if !ok {
		return
	}

	var req transport.ExternalCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ImportExternalCustomers(c.Request.Context(), userID, groupID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
