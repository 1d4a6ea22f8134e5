// Package agents provides the provider agent management module.
package agents

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/agents/handler"
	"callcenter_backend/internal/agents/repository"
	"callcenter_backend/internal/agents/service"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the agents module.
func NewModule(pool *pgxpool.Pool, gateway service.Gateway, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(gateway, repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// RegisterRoutes mounts agent management routes. All of them mutate or expose
// provider-side configuration, so the whole group is admin-scoped.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
