package activity

import (
	"github.com/gin-gonic/gin"

	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/platform/httpkit"
)

// Module wires the activity tracker into the event bus and the admin API.
type Module struct {
	tracker *Tracker
}

// NewModule creates the activity module.
func NewModule() *Module {
	return &Module{tracker: NewTracker()}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterHandlers subscribes the tracker to the domain events it counts.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CallInitiated{}.EventName(), m.tracker)
	bus.Subscribe(events.CallStatusChanged{}.EventName(), m.tracker)
	bus.Subscribe(events.CustomerStatusChanged{}.EventName(), m.tracker)
	bus.Subscribe(events.EntitiesLinked{}.EventName(), m.tracker)
	bus.Subscribe(events.EntitiesUnlinked{}.EventName(), m.tracker)
	bus.Subscribe(events.EdgeAuditCompleted{}.EventName(), m.tracker)
}

// RegisterRoutes mounts the activity snapshot for administrators.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/activity", m.getActivity)
}

// getActivity returns the aggregated event counters.
// GET /api/v1/admin/activity
func (m *Module) getActivity(c *gin.Context) {
	httpkit.OK(c, m.tracker.Snapshot())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
