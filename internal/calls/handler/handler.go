// Package handler provides HTTP handlers for the calls bounded context.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"callcenter_backend/internal/calls/service"
	"callcenter_backend/internal/calls/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingCallID    = "missing call id"
)

// Handler handles HTTP requests for calls.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new calls handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts call routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Initiate)
	group.GET("/:callId", h.Get)
	group.DELETE("/:callId", h.End)
	group.GET("/provider/:providerCallId", h.GetLocal)
}

// RegisterScopedRoutes mounts the per-entity call listings alongside the
// customers and projects route groups.
func (h *Handler) RegisterScopedRoutes(protected *gin.RouterGroup) {
	protected.GET("/customers/:id/calls", h.ListByCustomer)
	protected.GET("/projects/:id/calls", h.ListByProject)
}

// Initiate starts an outbound call.
// POST /api/v1/calls
func (h *Handler) Initiate(c *gin.Context) {
	var req transport.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Initiate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List retrieves call records.
// GET /api/v1/calls
func (h *Handler) List(c *gin.Context) {
	var req transport.ListCallsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns the provider's live view and the local record, reconciling
// the two as a side effect.
// GET /api/v1/calls/:callId
func (h *Handler) Get(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingCallID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), callID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetLocal returns the stored record without a provider round-trip. This is
// the cheap lookup for dashboards that do not need live reconciliation.
// GET /api/v1/calls/provider/:providerCallId
func (h *Handler) GetLocal(c *gin.Context) {
	callID := c.Param("providerCallId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingCallID, nil)
		return
	}

	result, err := h.svc.GetLocal(c.Request.Context(), callID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListByCustomer retrieves the call records placed to one customer.
// GET /api/v1/customers/:id/calls
func (h *Handler) ListByCustomer(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), transport.ListCallsRequest{
		CustomerID: c.Param("id"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListByProject retrieves the call records initiated under one project.
// GET /api/v1/projects/:id/calls
func (h *Handler) ListByProject(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), transport.ListCallsRequest{
		ProjectID: c.Param("id"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// End terminates a live call and records the terminal outcome.
// DELETE /api/v1/calls/:callId
func (h *Handler) End(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingCallID, nil)
		return
	}

	result, err := h.svc.End(c.Request.Context(), callID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
