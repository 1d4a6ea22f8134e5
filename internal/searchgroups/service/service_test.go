package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callcenter_backend/internal/relationships"
	"callcenter_backend/internal/searchgroups/repository"
	"callcenter_backend/internal/searchgroups/transport"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

type fakeGroupRepo struct {
	groups map[uuid.UUID]repository.SearchGroup
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]repository.SearchGroup)}
}

func (f *fakeGroupRepo) Create(_ context.Context, params repository.CreateSearchGroupParams) (repository.SearchGroup, error) {
	g := repository.SearchGroup{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Status:      params.Status,
		CreatedBy:   params.CreatedBy,
		CustomerIDs: []uuid.UUID{},
		ProjectIDs:  []uuid.UUID{},
		Flows:       []repository.Flow{},
		Settings:    params.Settings,
	}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, createdBy, id uuid.UUID) (repository.SearchGroup, error) {
	g, ok := f.groups[id]
	if !ok || g.CreatedBy != createdBy {
		return repository.SearchGroup{}, apperr.NotFound("search group not found")
	}
	return g, nil
}

func (f *fakeGroupRepo) List(_ context.Context, createdBy uuid.UUID) ([]repository.SearchGroup, error) {
	out := make([]repository.SearchGroup, 0)
	for _, g := range f.groups {
		if g.CreatedBy == createdBy {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) Update(_ context.Context, params repository.UpdateSearchGroupParams) (repository.SearchGroup, error) {
	g, ok := f.groups[params.ID]
	if !ok || g.CreatedBy != params.CreatedBy {
		return repository.SearchGroup{}, apperr.NotFound("search group not found")
	}
	if params.Name != nil {
		g.Name = *params.Name
	}
	if params.Settings != nil {
		g.Settings = *params.Settings
	}
	f.groups[params.ID] = g
	return g, nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, createdBy, id uuid.UUID) error {
	g, ok := f.groups[id]
	if !ok || g.CreatedBy != createdBy {
		return apperr.NotFound("search group not found")
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupRepo) ReplaceFlows(_ context.Context, createdBy, id uuid.UUID, flows []repository.Flow) (repository.SearchGroup, error) {
	g, ok := f.groups[id]
	if !ok || g.CreatedBy != createdBy {
		return repository.SearchGroup{}, apperr.NotFound("search group not found")
	}
	g.Flows = flows
	f.groups[id] = g
	return g, nil
}

func (f *fakeGroupRepo) Stats(_ context.Context, _, _ uuid.UUID) (repository.GroupStats, error) {
	return repository.GroupStats{}, nil
}

func (f *fakeGroupRepo) MemberCallDetails(_ context.Context, createdBy, id uuid.UUID) ([]repository.MemberCallDetail, error) {
	if _, err := f.GetByID(context.Background(), createdBy, id); err != nil {
		return nil, err
	}
	return []repository.MemberCallDetail{}, nil
}

// fakeEdgeManager splits bulk members by configured disposition.
type fakeEdgeManager struct {
	existing map[uuid.UUID]bool
	failWith map[uuid.UUID]string
}

func newFakeEdgeManager() *fakeEdgeManager {
	return &fakeEdgeManager{existing: make(map[uuid.UUID]bool), failWith: make(map[uuid.UUID]string)}
}

func (f *fakeEdgeManager) Link(_ context.Context, _ relationships.EdgeKind, _, _ uuid.UUID) error {
	return nil
}

func (f *fakeEdgeManager) Unlink(_ context.Context, _ relationships.EdgeKind, _, _ uuid.UUID) error {
	return nil
}

func (f *fakeEdgeManager) BulkLink(_ context.Context, _ relationships.EdgeKind, _ uuid.UUID, memberIDs []uuid.UUID) relationships.BulkOutcome {
	outcome := relationships.BulkOutcome{
		Added:    []uuid.UUID{},
		Existing: []uuid.UUID{},
		Failed:   []relationships.BulkError{},
	}
	for _, id := range memberIDs {
		switch {
		case f.failWith[id] != "":
			outcome.Failed = append(outcome.Failed, relationships.BulkError{MemberID: id, Error: f.failWith[id]})
		case f.existing[id]:
			outcome.Existing = append(outcome.Existing, id)
		default:
			outcome.Added = append(outcome.Added, id)
		}
	}
	return outcome
}

type fakeUpserter struct {
	failNumbers map[string]bool
	byPhone     map[string]uuid.UUID
}

func newFakeUpserter() *fakeUpserter {
	return &fakeUpserter{failNumbers: make(map[string]bool), byPhone: make(map[string]uuid.UUID)}
}

func (f *fakeUpserter) UpsertExternal(_ context.Context, _, phoneNumber, _ string) (uuid.UUID, error) {
	if f.failNumbers[phoneNumber] {
		return uuid.Nil, apperr.Validation("invalid phone number")
	}
	if id, ok := f.byPhone[phoneNumber]; ok {
		return id, nil
	}
	id := uuid.New()
	f.byPhone[phoneNumber] = id
	return id, nil
}

func seedGroup(t *testing.T, repo *fakeGroupRepo, createdBy uuid.UUID, maxCustomers int, members int) repository.SearchGroup {
	t.Helper()
	g, err := repo.Create(context.Background(), repository.CreateSearchGroupParams{
		Name:      "arama grubu",
		Status:    "active",
		CreatedBy: createdBy,
		Settings:  repository.Settings{MaxCustomers: maxCustomers, NotificationEnabled: true},
	})
	require.NoError(t, err)
	for i := 0; i < members; i++ {
		g.CustomerIDs = append(g.CustomerIDs, uuid.New())
	}
	repo.groups[g.ID] = g
	return g
}

func TestUpdateRejectsMaxCustomersBelowMembership(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 5)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	_, err := svc.Update(context.Background(), owner, group.ID, transport.UpdateSearchGroupRequest{
		Settings: &transport.SettingsPayload{MaxCustomers: 3, NotificationEnabled: true},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateAllowsMaxCustomersAtMembership(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 5)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	updated, err := svc.Update(context.Background(), owner, group.ID, transport.UpdateSearchGroupRequest{
		Settings: &transport.SettingsPayload{MaxCustomers: 5, NotificationEnabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Settings.MaxCustomers)
}

func TestBulkLinkCustomersPartitionsOutcome(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)

	edges := newFakeEdgeManager()
	added := uuid.New()
	already := uuid.New()
	full := uuid.New()
	edges.existing[already] = true
	edges.failWith[full] = "search group is at maxCustomers capacity"

	svc := New(repo, edges, newFakeUpserter(), logger.New("development"))

	outcome, err := svc.BulkLinkCustomers(context.Background(), owner, group.ID, transport.BulkCustomersRequest{
		CustomerIDs: []string{added.String(), already.String(), full.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{added}, outcome.Added)
	assert.Equal(t, []uuid.UUID{already}, outcome.Existing)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, full, outcome.Failed[0].MemberID)
}

func TestBulkLinkCustomersRejectsMalformedID(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	_, err := svc.BulkLinkCustomers(context.Background(), owner, group.ID, transport.BulkCustomersRequest{
		CustomerIDs: []string{"not-a-uuid"},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestImportExternalCustomersReportsUpsertFailures(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)

	upserter := newFakeUpserter()
	upserter.failNumbers["+905551112233"] = true

	svc := New(repo, newFakeEdgeManager(), upserter, logger.New("development"))

	outcome, err := svc.ImportExternalCustomers(context.Background(), owner, group.ID, transport.ExternalCustomersRequest{
		Customers: []transport.ExternalCustomerPayload{
			{Name: "Ayşe Yılmaz", PhoneNumber: "+905551112233"},
			{Name: "Mehmet Demir", PhoneNumber: "+905554445566"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, outcome.Added, 1)
	require.Len(t, outcome.Failed, 1)
	assert.Contains(t, outcome.Failed[0].Error, "invalid phone number")
}

func TestReplaceFlowsEnforcesBound(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	flows := make([]transport.FlowPayload, repository.MaxFlows+1)
	for i := range flows {
		flows[i] = transport.FlowPayload{Name: "akış", Enabled: true}
	}

	_, err := svc.ReplaceFlows(context.Background(), owner, group.ID, transport.ReplaceFlowsRequest{Flows: flows})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAddFlowRejectsWhenFull(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	flows := make([]transport.FlowPayload, repository.MaxFlows)
	for i := range flows {
		flows[i] = transport.FlowPayload{Name: "akış", Enabled: true}
	}
	_, err := svc.ReplaceFlows(context.Background(), owner, group.ID, transport.ReplaceFlowsRequest{Flows: flows})
	require.NoError(t, err)

	_, err = svc.AddFlow(context.Background(), owner, group.ID, transport.FlowPayload{Name: "fazla", Enabled: true})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRemoveFlowDeletesOnlyNamedFlow(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	resp, err := svc.AddFlow(context.Background(), owner, group.ID, transport.FlowPayload{Name: "birinci", Enabled: true})
	require.NoError(t, err)
	resp, err = svc.AddFlow(context.Background(), owner, group.ID, transport.FlowPayload{Name: "ikinci", Enabled: true})
	require.NoError(t, err)
	require.Len(t, resp.Flows, 2)

	removed := resp.Flows[0].ID
	resp, err = svc.RemoveFlow(context.Background(), owner, group.ID, removed)
	require.NoError(t, err)
	require.Len(t, resp.Flows, 1)
	assert.Equal(t, "ikinci", resp.Flows[0].Name)

	_, err = svc.RemoveFlow(context.Background(), owner, group.ID, removed)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestScopingHidesOtherUsersGroups(t *testing.T) {
	repo := newFakeGroupRepo()
	owner := uuid.New()
	group := seedGroup(t, repo, owner, 100, 0)
	svc := New(repo, newFakeEdgeManager(), newFakeUpserter(), logger.New("development"))

	_, err := svc.GetByID(context.Background(), uuid.New(), group.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
