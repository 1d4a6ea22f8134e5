// Package calls provides the calls bounded context module: lifecycle
// reconciliation between local records and the telephony provider.
package calls

import (
	"callcenter_backend/internal/calls/handler"
	"callcenter_backend/internal/calls/repository"
	"callcenter_backend/internal/calls/service"
	customersrepo "callcenter_backend/internal/customers/repository"
	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the calls module.
func NewModule(pool *pgxpool.Pool, customers customersrepo.Repository, gateway service.Gateway, edges service.EdgeManager, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, customers, gateway, edges, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Service returns the reconciler for cross-module wiring (webhook ingress).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the calls routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/calls"))
	m.handler.RegisterScopedRoutes(ctx.Protected)
}
