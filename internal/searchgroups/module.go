// Package searchgroups provides the search groups bounded context module.
package searchgroups

import (
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/searchgroups/handler"
	"callcenter_backend/internal/searchgroups/repository"
	"callcenter_backend/internal/searchgroups/service"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the search groups bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the search groups module.
func NewModule(pool *pgxpool.Pool, edges service.EdgeManager, customers service.CustomerUpserter, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, edges, customers, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "search-groups"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the search groups routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/search-groups"))
}
