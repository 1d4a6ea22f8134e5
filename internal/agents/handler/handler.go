// Package handler provides HTTP handlers for provider agent management.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"callcenter_backend/internal/agents/service"
	"callcenter_backend/internal/agents/transport"
	"callcenter_backend/internal/telephony"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for agents and LLM configurations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new agents handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts agent routes on the given group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/agents", h.ListAgents)
	group.POST("/agents", h.CreateAgent)
	group.PATCH("/agents/:agentId", h.UpdateAgent)
	group.DELETE("/agents/:agentId", h.DeleteAgent)
	group.GET("/llms", h.ListLLMSnapshots)
	group.POST("/llms", h.CreateLLM)
	group.GET("/llms/:llmId", h.GetLLM)
	group.PATCH("/llms/:llmId", h.UpdateLLM)
}

// ListAgents returns the provider's agent roster.
// GET /api/v1/admin/agents
func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.svc.ListAgents(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agents)
}

// CreateAgent registers a new provider agent.
// POST /api/v1/admin/agents
func (h *Handler) CreateAgent(c *gin.Context) {
	var req transport.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agent := telephony.Agent{
		AgentName: req.AgentName,
		Voice:     req.Voice,
		Language:  req.Language,
	}
	if req.LLMID != "" {
		agent.ResponseEngine.Type = "retell-llm"
		agent.ResponseEngine.LLMID = req.LLMID
	}

	created, err := h.svc.CreateAgent(c.Request.Context(), agent)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, created)
}

// UpdateAgent applies changes to a provider agent.
// PATCH /api/v1/admin/agents/:agentId
func (h *Handler) UpdateAgent(c *gin.Context) {
	var req transport.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	updated, err := h.svc.UpdateAgent(c.Request.Context(), c.Param("agentId"), telephony.Agent{
		AgentName: req.AgentName,
		Voice:     req.Voice,
		Language:  req.Language,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, updated)
}

// DeleteAgent removes a provider agent.
// DELETE /api/v1/admin/agents/:agentId
func (h *Handler) DeleteAgent(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.DeleteAgent(c.Request.Context(), c.Param("agentId"))) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// ListLLMSnapshots returns the locally mirrored LLM configurations.
// GET /api/v1/admin/llms
func (h *Handler) ListLLMSnapshots(c *gin.Context) {
	snapshots, err := h.svc.ListLLMSnapshots(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snapshots)
}

// GetLLM returns one LLM configuration, refreshed from the provider.
// GET /api/v1/admin/llms/:llmId
func (h *Handler) GetLLM(c *gin.Context) {
	snapshot, err := h.svc.GetLLM(c.Request.Context(), c.Param("llmId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snapshot)
}

// CreateLLM registers a new LLM configuration with the provider.
// POST /api/v1/admin/llms
func (h *Handler) CreateLLM(c *gin.Context) {
	var req transport.CreateLLMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	snapshot, err := h.svc.CreateLLM(c.Request.Context(), req.ToProvider())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, snapshot)
}

// UpdateLLM pushes LLM configuration changes to the provider.
// PATCH /api/v1/admin/llms/:llmId
func (h *Handler) UpdateLLM(c *gin.Context) {
	var req transport.UpdateLLMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	snapshot, err := h.svc.UpdateLLM(c.Request.Context(), c.Param("llmId"), req.ToProvider())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snapshot)
}
