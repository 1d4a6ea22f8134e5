package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	callsrepo "callcenter_backend/internal/calls/repository"
	inboxrepo "callcenter_backend/internal/webhook/repository"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

type fakeReconciler struct {
	record  callsrepo.CallRecord
	applied bool
	err     error
	calls   int
}

func (f *fakeReconciler) ApplyEvent(_ context.Context, _, _ string, _ callsrepo.EventPayload, _ time.Time) (callsrepo.CallRecord, bool, error) {
	f.calls++
	return f.record, f.applied, f.err
}

type fakeInbox struct {
	inserted  int
	marked    int
	insertErr error
}

func (f *fakeInbox) Insert(_ context.Context, _, _ string, _ []byte, _ time.Time) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.inserted++
	return uuid.New(), nil
}

func (f *fakeInbox) MarkApplied(_ context.Context, _ uuid.UUID) error {
	f.marked++
	return nil
}

func (f *fakeInbox) ListByCall(_ context.Context, _ string) ([]inboxrepo.InboxEntry, error) {
	return nil, nil
}

func postWebhook(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/webhook", h.Receive)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

const validDelivery = `{"event":"call_ended","call":{"call_id":"call_abc123","call_status":"ended","last_modification_timestamp":1700000000000}}`

func TestReceiveAppliesEvent(t *testing.T) {
	reconciler := &fakeReconciler{record: callsrepo.CallRecord{Status: "ended"}, applied: true}
	inbox := &fakeInbox{}
	h := NewHandler(reconciler, NewGuard(nil, time.Minute), inbox, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if inbox.inserted != 1 || inbox.marked != 1 {
		t.Fatalf("inbox journal not updated: inserted=%d marked=%d", inbox.inserted, inbox.marked)
	}
}

func TestReceiveMalformedPayload(t *testing.T) {
	reconciler := &fakeReconciler{}
	h := NewHandler(reconciler, NewGuard(nil, time.Minute), &fakeInbox{}, logger.New("development"))

	rec := postWebhook(t, h, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if reconciler.calls != 0 {
		t.Fatal("reconciler must not run for malformed payloads")
	}
}

func TestReceiveMissingCallID(t *testing.T) {
	h := NewHandler(&fakeReconciler{}, NewGuard(nil, time.Minute), &fakeInbox{}, logger.New("development"))

	rec := postWebhook(t, h, `{"event":"call_ended","call":{"call_status":"ended"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReceiveUnknownCall(t *testing.T) {
	reconciler := &fakeReconciler{err: apperr.NotFound("call record not found")}
	h := NewHandler(reconciler, NewGuard(nil, time.Minute), &fakeInbox{}, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReceiveJournalFailure(t *testing.T) {
	inbox := &fakeInbox{insertErr: apperr.Persistence("insert inbox entry", nil)}
	reconciler := &fakeReconciler{}
	h := NewHandler(reconciler, NewGuard(nil, time.Minute), inbox, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if reconciler.calls != 0 {
		t.Fatal("reconciler must not run when the journal write fails")
	}
}

func TestReceiveRetryAfterJournalFailureIsNotShed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewGuard(rdb, time.Minute)

	inbox := &fakeInbox{insertErr: apperr.Persistence("insert inbox entry", nil)}
	reconciler := &fakeReconciler{record: callsrepo.CallRecord{Status: "ended"}, applied: true}
	h := NewHandler(reconciler, guard, inbox, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 while the journal is down, got %d", rec.Code)
	}

	inbox.insertErr = nil
	rec = postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the retry to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if reconciler.calls != 1 {
		t.Fatalf("expected the retry to reach the reconciler, got %d calls", reconciler.calls)
	}
	if inbox.inserted != 1 || inbox.marked != 1 {
		t.Fatalf("inbox journal not updated on retry: inserted=%d marked=%d", inbox.inserted, inbox.marked)
	}
}

func TestReceiveRetryAfterReconcilerFailureIsNotShed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	guard := NewGuard(rdb, time.Minute)

	reconciler := &fakeReconciler{err: apperr.Persistence("apply event", nil)}
	h := NewHandler(reconciler, guard, &fakeInbox{}, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 while the store is down, got %d", rec.Code)
	}

	reconciler.err = nil
	reconciler.record = callsrepo.CallRecord{Status: "ended"}
	reconciler.applied = true
	rec = postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the retry to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if reconciler.calls != 2 {
		t.Fatalf("expected the retry to reach the reconciler, got %d calls", reconciler.calls)
	}
}

func TestReceiveStaleEventStillReturns200(t *testing.T) {
	reconciler := &fakeReconciler{record: callsrepo.CallRecord{Status: "completed"}, applied: false}
	inbox := &fakeInbox{}
	h := NewHandler(reconciler, NewGuard(nil, time.Minute), inbox, logger.New("development"))

	rec := postWebhook(t, h, validDelivery)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a recognized stale event, got %d", rec.Code)
	}
	if inbox.marked != 0 {
		t.Fatal("stale events must not be marked applied")
	}
}
