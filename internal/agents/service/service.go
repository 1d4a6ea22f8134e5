// Package service manages provider voice agents and their LLM configurations.
package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"callcenter_backend/internal/agents/repository"
	"callcenter_backend/internal/telephony"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

const (
	agentListKey  = "agents"
	agentCacheTTL = time.Minute
)

// Gateway is the provider surface for agent and LLM management.
type Gateway interface {
	ListAgents(ctx context.Context) ([]telephony.Agent, error)
	CreateAgent(ctx context.Context, agent telephony.Agent) (telephony.Agent, error)
	UpdateAgent(ctx context.Context, agentID string, agent telephony.Agent) (telephony.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	GetLLM(ctx context.Context, llmID string) (telephony.LLMConfig, error)
	CreateLLM(ctx context.Context, llm telephony.LLMConfig) (telephony.LLMConfig, error)
	UpdateLLM(ctx context.Context, llmID string, llm telephony.LLMConfig) (telephony.LLMConfig, error)
}

type Service struct {
	gateway Gateway
	repo    *repository.Repository
	cache   *gocache.Cache
	log     *logger.Logger
}

func New(gateway Gateway, repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		repo:    repo,
		cache:   gocache.New(agentCacheTTL, 5*time.Minute),
		log:     log,
	}
}

// ListAgents returns the provider's agents through a short-lived cache. The
// agent roster changes rarely but is read on every call-initiation screen.
func (s *Service) ListAgents(ctx context.Context) ([]telephony.Agent, error) {
	if cached, found := s.cache.Get(agentListKey); found {
		if agents, ok := cached.([]telephony.Agent); ok {
			return agents, nil
		}
	}

	agents, err := s.gateway.ListAgents(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(agentListKey, agents, gocache.DefaultExpiration)
	return agents, nil
}

// CreateAgent registers a new agent with the provider.
func (s *Service) CreateAgent(ctx context.Context, agent telephony.Agent) (telephony.Agent, error) {
	created, err := s.gateway.CreateAgent(ctx, agent)
	if err != nil {
		return telephony.Agent{}, err
	}
	s.cache.Delete(agentListKey)
	return created, nil
}

// UpdateAgent applies changes to an existing provider agent.
func (s *Service) UpdateAgent(ctx context.Context, agentID string, agent telephony.Agent) (telephony.Agent, error) {
	if agentID == "" {
		return telephony.Agent{}, apperr.Validation("agent id is required")
	}
	updated, err := s.gateway.UpdateAgent(ctx, agentID, agent)
	if err != nil {
		return telephony.Agent{}, err
	}
	s.cache.Delete(agentListKey)
	return updated, nil
}

// DeleteAgent removes a provider agent.
func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return apperr.Validation("agent id is required")
	}
	if err := s.gateway.DeleteAgent(ctx, agentID); err != nil {
		return err
	}
	s.cache.Delete(agentListKey)
	return nil
}

// GetLLM fetches an LLM configuration from the provider and refreshes the
// local snapshot. When the provider is unreachable the stored snapshot is
// served instead so prompt inspection keeps working during outages.
func (s *Service) GetLLM(ctx context.Context, llmID string) (repository.LLMSnapshot, error) {
	llm, err := s.gateway.GetLLM(ctx, llmID)
	if err != nil {
		if apperr.Is(err, apperr.KindUpstream) {
			s.log.Warn("serving stored llm snapshot, provider unreachable",
				"llm_id", llmID, "error", err)
			return s.repo.GetByLLMID(ctx, llmID)
		}
		return repository.LLMSnapshot{}, err
	}

	snapshot, err := s.repo.Upsert(ctx, llm)
	if err != nil {
		s.log.Error("failed to refresh llm snapshot", "llm_id", llmID, "error", err)
		return snapshotFromProvider(llm), nil
	}
	return snapshot, nil
}

// CreateLLM registers a new LLM configuration with the provider and mirrors
// the accepted state locally.
func (s *Service) CreateLLM(ctx context.Context, llm telephony.LLMConfig) (repository.LLMSnapshot, error) {
	created, err := s.gateway.CreateLLM(ctx, llm)
	if err != nil {
		return repository.LLMSnapshot{}, err
	}

	snapshot, err := s.repo.Upsert(ctx, created)
	if err != nil {
		s.log.Error("failed to mirror llm create", "llm_id", created.LLMID, "error", err)
		return snapshotFromProvider(created), nil
	}
	return snapshot, nil
}

// UpdateLLM pushes changes to the provider, then mirrors the accepted state.
func (s *Service) UpdateLLM(ctx context.Context, llmID string, llm telephony.LLMConfig) (repository.LLMSnapshot, error) {
	if llmID == "" {
		return repository.LLMSnapshot{}, apperr.Validation("llm id is required")
	}

	updated, err := s.gateway.UpdateLLM(ctx, llmID, llm)
	if err != nil {
		return repository.LLMSnapshot{}, err
	}

	snapshot, err := s.repo.Upsert(ctx, updated)
	if err != nil {
		s.log.Error("failed to mirror llm update", "llm_id", llmID, "error", err)
		return snapshotFromProvider(updated), nil
	}
	return snapshot, nil
}

// ListLLMSnapshots returns the locally stored LLM configurations.
func (s *Service) ListLLMSnapshots(ctx context.Context) ([]repository.LLMSnapshot, error) {
	return s.repo.List(ctx)
}

func snapshotFromProvider(llm telephony.LLMConfig) repository.LLMSnapshot {
	snapshot := repository.LLMSnapshot{
		LLMID:            llm.LLMID,
		Version:          llm.Version,
		IsPublished:      llm.IsPublished,
		Model:            llm.Model,
		GeneralPrompt:    llm.GeneralPrompt,
		BeginMessage:     llm.BeginMessage,
		States:           llm.States,
		DynamicVariables: llm.DefaultDynamicVariables,
		LastModified:     llm.LastModificationTimestamp,
	}
	if llm.ModelTemperature != 0 {
		snapshot.Temperature = &llm.ModelTemperature
	}
	return snapshot
}
