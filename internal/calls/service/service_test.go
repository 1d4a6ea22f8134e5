package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"callcenter_backend/internal/calls/domain"
	"callcenter_backend/internal/calls/repository"
	"callcenter_backend/internal/calls/transport"
	customersrepo "callcenter_backend/internal/customers/repository"
	"callcenter_backend/internal/events"
	"callcenter_backend/internal/relationships"
	"callcenter_backend/internal/telephony"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

// fakeCallRepo mirrors the conditional-update semantics of the real store in
// memory, keyed by provider call id.
type fakeCallRepo struct {
	records map[string]repository.CallRecord
	creates int
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{records: make(map[string]repository.CallRecord)}
}

func (f *fakeCallRepo) Create(_ context.Context, params repository.CreateCallRecordParams) (repository.CallRecord, error) {
	f.creates++
	rec := repository.CallRecord{
		ID:             uuid.New(),
		ProviderCallID: params.ProviderCallID,
		CustomerID:     params.CustomerID,
		ProjectID:      params.ProjectID,
		Status:         params.Status,
		FromNumber:     params.FromNumber,
		ToNumber:       params.ToNumber,
		StartedAt:      params.StartedAt,
		LastUpdated:    params.LastUpdated,
	}
	f.records[params.ProviderCallID] = rec
	return rec, nil
}

func (f *fakeCallRepo) GetByProviderCallID(_ context.Context, providerCallID string) (repository.CallRecord, error) {
	rec, ok := f.records[providerCallID]
	if !ok {
		return repository.CallRecord{}, apperr.NotFound("call record not found")
	}
	return rec, nil
}

func (f *fakeCallRepo) GetByID(_ context.Context, id uuid.UUID) (repository.CallRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return repository.CallRecord{}, apperr.NotFound("call record not found")
}

func (f *fakeCallRepo) List(_ context.Context, _ repository.ListCallRecordsParams) ([]repository.CallRecord, int, error) {
	out := make([]repository.CallRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (f *fakeCallRepo) ApplyEvent(_ context.Context, params repository.ApplyEventParams) (repository.CallRecord, bool, error) {
	rec, ok := f.records[params.ProviderCallID]
	if !ok {
		return repository.CallRecord{}, false, apperr.NotFound("call record not found")
	}
	if !params.EventTimestamp.After(rec.LastUpdated) {
		return rec, false, nil
	}
	if domain.IsTerminal(rec.Status) && !domain.IsTerminal(params.Status) {
		return rec, false, nil
	}
	rec.Status = params.Status
	rec.Transcript = params.Payload.Transcript
	rec.RecordingURL = params.Payload.RecordingURL
	rec.Analysis = params.Payload.Analysis
	rec.LastUpdated = params.EventTimestamp
	f.records[params.ProviderCallID] = rec
	return rec, true, nil
}

type fakeCustomerRepo struct {
	customers         map[uuid.UUID]customersrepo.Customer
	statusUpdates     []string
	upserts           int
	failStatusUpdates int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]customersrepo.Customer)}
}

func (f *fakeCustomerRepo) Create(_ context.Context, params customersrepo.CreateCustomerParams) (customersrepo.Customer, error) {
	c := customersrepo.Customer{ID: uuid.New(), Name: params.Name, PhoneNumber: params.PhoneNumber, Status: params.Status}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeCustomerRepo) UpsertByPhone(_ context.Context, name, phoneNumber, status string) (customersrepo.Customer, error) {
	f.upserts++
	for _, c := range f.customers {
		if c.PhoneNumber == phoneNumber {
			c.Name = name
			c.Status = status
			f.customers[c.ID] = c
			return c, nil
		}
	}
	c := customersrepo.Customer{ID: uuid.New(), Name: name, PhoneNumber: phoneNumber, Status: status}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (customersrepo.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customersrepo.Customer{}, apperr.NotFound("customer not found")
	}
	return c, nil
}

func (f *fakeCustomerRepo) GetByPhone(_ context.Context, phoneNumber string) (customersrepo.Customer, error) {
	for _, c := range f.customers {
		if c.PhoneNumber == phoneNumber {
			return c, nil
		}
	}
	return customersrepo.Customer{}, apperr.NotFound("customer not found")
}

func (f *fakeCustomerRepo) List(_ context.Context, _ customersrepo.ListCustomersParams) ([]customersrepo.Customer, int, error) {
	return nil, 0, nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, params customersrepo.UpdateCustomerParams) (customersrepo.Customer, error) {
	return f.customers[params.ID], nil
}

func (f *fakeCustomerRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if f.failStatusUpdates > 0 {
		f.failStatusUpdates--
		return apperr.Persistence("update customer status", nil)
	}
	c, ok := f.customers[id]
	if !ok {
		return apperr.NotFound("customer not found")
	}
	c.Status = status
	f.customers[id] = c
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeCustomerRepo) DeleteCascade(_ context.Context, id uuid.UUID) error {
	delete(f.customers, id)
	return nil
}

type fakeGateway struct {
	createResult telephony.Call
	createErr    error
	getResult    telephony.Call
	getErr       error
	endResult    telephony.Call
	endErr       error
	createCalls  int
}

func (f *fakeGateway) CreatePhoneCall(_ context.Context, _ telephony.CreateCallParams) (telephony.Call, error) {
	f.createCalls++
	return f.createResult, f.createErr
}

func (f *fakeGateway) GetCall(_ context.Context, _ string) (telephony.Call, error) {
	return f.getResult, f.getErr
}

func (f *fakeGateway) EndCall(_ context.Context, _ string) (telephony.Call, error) {
	return f.endResult, f.endErr
}

type fakeEdges struct {
	links int
}

func (f *fakeEdges) Link(_ context.Context, _ relationships.EdgeKind, _, _ uuid.UUID) error {
	f.links++
	return nil
}

func newTestService(repo *fakeCallRepo, customers *fakeCustomerRepo, gateway *fakeGateway) *Service {
	log := logger.New("development")
	return New(repo, customers, gateway, &fakeEdges{}, events.NewInMemoryBus(log), log)
}

func seedRecord(repo *fakeCallRepo, customers *fakeCustomerRepo, status string, lastUpdated time.Time) repository.CallRecord {
	customer, _ := customers.UpsertByPhone(context.Background(), "Ayşe Yılmaz", "+905551112233", domain.CustomerStatusProcessing)
	rec := repository.CallRecord{
		ID:             uuid.New(),
		ProviderCallID: "call_abc123",
		CustomerID:     customer.ID,
		Status:         status,
		ToNumber:       customer.PhoneNumber,
		LastUpdated:    lastUpdated,
	}
	repo.records[rec.ProviderCallID] = rec
	return rec
}

func TestInitiateProviderFailureLeavesNothingPersisted(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{createErr: apperr.Upstream(503, "provider unavailable")}
	svc := newTestService(repo, customers, gateway)

	_, err := svc.Initiate(context.Background(), transport.InitiateCallRequest{
		Name:        "Ayşe Yılmaz",
		PhoneNumber: "+905551112233",
	})
	if err == nil {
		t.Fatal("expected initiation to fail")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatalf("expected no call record writes, got %d", repo.creates)
	}
	if customers.upserts != 0 {
		t.Fatalf("expected no customer writes, got %d", customers.upserts)
	}
}

func TestInitiateCreatesRecordAndCustomer(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{createResult: telephony.Call{
		CallID:     "call_abc123",
		CallStatus: "registered",
		FromNumber: "+908501234567",
	}}
	svc := newTestService(repo, customers, gateway)

	resp, err := svc.Initiate(context.Background(), transport.InitiateCallRequest{
		Name:        "Ayşe Yılmaz",
		PhoneNumber: "+905551112233",
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if resp.Customer.Status != domain.CustomerStatusProcessing {
		t.Fatalf("expected customer status %q, got %q", domain.CustomerStatusProcessing, resp.Customer.Status)
	}

	rec, err := repo.GetByProviderCallID(context.Background(), "call_abc123")
	if err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if rec.Status != "registered" {
		t.Fatalf("expected provider status kept, got %q", rec.Status)
	}
}

func TestInitiateDefaultsToStartedStatus(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{createResult: telephony.Call{CallID: "call_abc123"}}
	svc := newTestService(repo, customers, gateway)

	if _, err := svc.Initiate(context.Background(), transport.InitiateCallRequest{
		Name:        "Ayşe Yılmaz",
		PhoneNumber: "+905551112233",
	}); err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	rec, _ := repo.GetByProviderCallID(context.Background(), "call_abc123")
	if rec.Status != domain.CallStatusStarted {
		t.Fatalf("expected status %q, got %q", domain.CallStatusStarted, rec.Status)
	}
}

func TestApplyEventUnknownCall(t *testing.T) {
	svc := newTestService(newFakeCallRepo(), newFakeCustomerRepo(), &fakeGateway{})

	_, _, err := svc.ApplyEvent(context.Background(), "call_missing", "ended", repository.EventPayload{}, time.Now())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyEventDuplicateDelivery(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	svc := newTestService(repo, customers, &fakeGateway{})

	base := time.Now().UTC()
	seedRecord(repo, customers, domain.CallStatusStarted, base)

	eventTime := base.Add(time.Second)
	_, applied, err := svc.ApplyEvent(context.Background(), "call_abc123", "ended", repository.EventPayload{}, eventTime)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if !applied {
		t.Fatal("first delivery should apply")
	}

	_, applied, err = svc.ApplyEvent(context.Background(), "call_abc123", "ended", repository.EventPayload{}, eventTime)
	if err != nil {
		t.Fatalf("duplicate delivery errored: %v", err)
	}
	if applied {
		t.Fatal("duplicate delivery must not apply")
	}
}

func TestApplyEventOutOfOrderDelivery(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	svc := newTestService(repo, customers, &fakeGateway{})

	base := time.Now().UTC()
	seedRecord(repo, customers, "processing", base)

	rec, applied, err := svc.ApplyEvent(context.Background(), "call_abc123", "started", repository.EventPayload{}, base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("stale delivery errored: %v", err)
	}
	if applied {
		t.Fatal("stale delivery must not apply")
	}
	if rec.Status != "processing" {
		t.Fatalf("record mutated by stale delivery: %q", rec.Status)
	}
}

func TestApplyEventTerminalStickiness(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	svc := newTestService(repo, customers, &fakeGateway{})

	base := time.Now().UTC()
	seedRecord(repo, customers, domain.CallStatusCompleted, base)

	// Newer timestamp does not matter: a terminal record never regresses.
	rec, applied, err := svc.ApplyEvent(context.Background(), "call_abc123", "processing", repository.EventPayload{}, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("regression attempt errored: %v", err)
	}
	if applied {
		t.Fatal("terminal record must not regress")
	}
	if rec.Status != domain.CallStatusCompleted {
		t.Fatalf("expected status retained, got %q", rec.Status)
	}
}

func TestApplyEventDrivesCustomerStatus(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	svc := newTestService(repo, customers, &fakeGateway{})

	base := time.Now().UTC()
	rec := seedRecord(repo, customers, domain.CallStatusStarted, base)

	_, applied, err := svc.ApplyEvent(context.Background(), "call_abc123", "ended", repository.EventPayload{
		Transcript: "merhaba",
	}, base.Add(time.Second))
	if err != nil {
		t.Fatalf("delivery failed: %v", err)
	}
	if !applied {
		t.Fatal("delivery should apply")
	}

	customer, _ := customers.GetByID(context.Background(), rec.CustomerID)
	if customer.Status != domain.CustomerStatusCompleted {
		t.Fatalf("expected customer %q, got %q", domain.CustomerStatusCompleted, customer.Status)
	}
}

func TestApplyEventRetryRepairsCustomerStatus(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	svc := newTestService(repo, customers, &fakeGateway{})

	base := time.Now().UTC()
	rec := seedRecord(repo, customers, domain.CallStatusStarted, base)
	eventTime := base.Add(time.Minute)

	customers.failStatusUpdates = 1
	_, applied, err := svc.ApplyEvent(context.Background(), "call_abc123", "ended", repository.EventPayload{}, eventTime)
	if err == nil {
		t.Fatal("expected the customer status write failure to surface")
	}
	if applied {
		t.Fatal("a delivery that did not finish must not report applied")
	}

	// The provider retries the identical delivery. The record update is a
	// recognized duplicate, but the customer mapping must be re-derived.
	_, applied, err = svc.ApplyEvent(context.Background(), "call_abc123", "ended", repository.EventPayload{}, eventTime)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if applied {
		t.Fatal("retry should be recognized as a duplicate")
	}

	customer, _ := customers.GetByID(context.Background(), rec.CustomerID)
	if customer.Status != domain.CustomerStatusCompleted {
		t.Fatalf("expected customer repaired to %q, got %q", domain.CustomerStatusCompleted, customer.Status)
	}
}

func TestGetServesLocalViewWhenProviderUnavailable(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{getErr: apperr.Upstream(0, "connection refused")}
	svc := newTestService(repo, customers, gateway)

	base := time.Now().UTC()
	seedRecord(repo, customers, "processing", base)

	resp, err := svc.Get(context.Background(), "call_abc123")
	if err != nil {
		t.Fatalf("expected local fallback, got error: %v", err)
	}
	if resp.Call.CallStatus != "processing" {
		t.Fatalf("expected local status served, got %q", resp.Call.CallStatus)
	}
}

func TestGetReconcilesFromPoll(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{getResult: telephony.Call{
		CallID:     "call_abc123",
		CallStatus: "ended",
		Transcript: "tamam, teşekkürler",
	}}
	svc := newTestService(repo, customers, gateway)

	base := time.Now().UTC().Add(-time.Minute)
	seedRecord(repo, customers, "processing", base)

	resp, err := svc.Get(context.Background(), "call_abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if resp.CallDetail.Status != "ended" {
		t.Fatalf("poll did not reconcile, status %q", resp.CallDetail.Status)
	}
	if resp.CallDetail.Transcript != "tamam, teşekkürler" {
		t.Fatalf("payload not merged, transcript %q", resp.CallDetail.Transcript)
	}
}

func TestEndForcesTerminalStatus(t *testing.T) {
	repo := newFakeCallRepo()
	customers := newFakeCustomerRepo()
	gateway := &fakeGateway{endResult: telephony.Call{
		CallID:     "call_abc123",
		CallStatus: "ongoing",
	}}
	svc := newTestService(repo, customers, gateway)

	base := time.Now().UTC().Add(-time.Minute)
	seedRecord(repo, customers, "processing", base)

	resp, err := svc.End(context.Background(), "call_abc123")
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if resp.CallDetail.Status != domain.CallStatusEnded {
		t.Fatalf("expected %q after end, got %q", domain.CallStatusEnded, resp.CallDetail.Status)
	}
}
