package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	callsrepo "callcenter_backend/internal/calls/repository"
	inboxrepo "callcenter_backend/internal/webhook/repository"
	"callcenter_backend/internal/webhook/transport"
	"callcenter_backend/platform/httpkit"
	"callcenter_backend/platform/logger"
)

// Reconciler is the call lifecycle surface webhook deliveries feed.
type Reconciler interface {
	ApplyEvent(ctx context.Context, providerCallID, newStatus string, payload callsrepo.EventPayload, eventTime time.Time) (callsrepo.CallRecord, bool, error)
}

// Inbox journals raw deliveries.
type Inbox interface {
	Insert(ctx context.Context, providerCallID, callStatus string, payload []byte, eventTimestamp time.Time) (uuid.UUID, error)
	MarkApplied(ctx context.Context, id uuid.UUID) error
	ListByCall(ctx context.Context, providerCallID string) ([]inboxrepo.InboxEntry, error)
}

// Handler handles inbound provider webhook deliveries. The provider cannot
// hold session credentials, so Receive is the one route mounted outside the
// protected groups.
type Handler struct {
	reconciler Reconciler
	guard      *Guard
	inbox      Inbox
	log        *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(reconciler Reconciler, guard *Guard, inbox Inbox, log *logger.Logger) *Handler {
	return &Handler{reconciler: reconciler, guard: guard, inbox: inbox, log: log}
}

// Receive accepts one provider delivery.
// POST /webhook (no authentication)
//
// 200: event applied, or recognized duplicate/stale (no state change).
// 400: malformed payload. 404: unknown provider call id. 500: store failure;
// the provider's own retry policy is the recovery path.
func (h *Handler) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable payload", nil)
		return
	}

	var envelope transport.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "malformed payload", nil)
		return
	}

	event, err := Normalize(envelope, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}

	ctx := c.Request.Context()

	if !h.guard.MarkIfNew(ctx, event.ProviderCallID, event.Timestamp) {
		h.log.WebhookDropped(event.ProviderCallID, "duplicate delivery")
		httpkit.OK(c, transport.Result{Applied: false, Deduplicated: true})
		return
	}

	// Failed deliveries must release the dedup key, otherwise the provider's
	// retry of the same delivery would be shed as a duplicate for the TTL.
	entryID, err := h.inbox.Insert(ctx, event.ProviderCallID, event.Status, raw, event.Timestamp)
	if err != nil {
		h.guard.Forget(ctx, event.ProviderCallID, event.Timestamp)
		httpkit.Error(c, http.StatusInternalServerError, "failed to journal delivery", nil)
		return
	}

	record, applied, err := h.reconciler.ApplyEvent(ctx, event.ProviderCallID, event.Status, event.Payload, event.Timestamp)
	if err != nil {
		h.guard.Forget(ctx, event.ProviderCallID, event.Timestamp)
		httpkit.HandleError(c, err)
		return
	}

	if applied {
		if err := h.inbox.MarkApplied(ctx, entryID); err != nil {
			h.log.Error("failed to mark inbox entry applied", "entry", entryID, "error", err)
		}
	} else {
		h.log.WebhookDropped(event.ProviderCallID, "stale or duplicate event")
	}

	httpkit.OK(c, transport.Result{Applied: applied, Status: record.Status})
}

// ListInbox returns the journaled deliveries for one provider call.
// GET /api/v1/admin/webhook-inbox/:callId
func (h *Handler) ListInbox(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing call id", nil)
		return
	}

	entries, err := h.inbox.ListByCall(c.Request.Context(), callID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}
