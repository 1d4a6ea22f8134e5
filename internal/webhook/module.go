package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/calls/service"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/webhook/repository"
	"callcenter_backend/platform/logger"
)

// Module wires the webhook ingress: dedup guard, inbox journal and the
// reconciler the events feed into.
type Module struct {
	handler *Handler
}

// NewModule creates the webhook module.
func NewModule(pool *pgxpool.Pool, reconciler *service.Service, guard *Guard, log *logger.Logger) *Module {
	inbox := repository.New(pool)
	return &Module{
		handler: NewHandler(reconciler, guard, inbox, log),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return "webhook" }

// RegisterRoutes mounts the provider-facing endpoint on the bare engine; the
// provider cannot authenticate, so the route sits outside the protected
// groups. The inbox listing stays admin-only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/webhook", m.handler.Receive)
	ctx.Admin.GET("/webhook-inbox/:callId", m.handler.ListInbox)
}

var _ apphttp.Module = (*Module)(nil)
