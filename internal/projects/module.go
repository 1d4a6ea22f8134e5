// Package projects provides the projects bounded context module.
package projects

import (
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/projects/handler"
	"callcenter_backend/internal/projects/repository"
	"callcenter_backend/internal/projects/service"
	"callcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the projects bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the projects module.
func NewModule(pool *pgxpool.Pool, edges service.EdgeManager, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, edges)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "projects"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the projects routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/projects"))
}
