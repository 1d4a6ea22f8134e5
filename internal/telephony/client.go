// Package telephony is the outbound RPC client for the voice-AI provider:
// start/query/end calls and manage agent/LLM configuration. Provider failures
// are surfaced with the provider's own HTTP status passed through verbatim.
package telephony

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/logger"
)

// Client talks to the provider's REST API.
type Client struct {
	http           *resty.Client
	fromNumber     string
	defaultAgentID string
	log            *logger.Logger
}

// NewClient creates a provider client from telephony configuration.
func NewClient(cfg config.TelephonyConfig, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.GetTelephonyAPIURL()).
		SetAuthToken(cfg.GetTelephonyAPIKey()).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:           httpClient,
		fromNumber:     cfg.GetTelephonyFromNumber(),
		defaultAgentID: cfg.GetTelephonyDefaultAgentID(),
		log:            log,
	}
}

// CreatePhoneCall starts an outbound call and returns the provider's call
// record, including the assigned call id.
func (c *Client) CreatePhoneCall(ctx context.Context, params CreateCallParams) (Call, error) {
	agentID := params.AgentID
	if agentID == "" {
		agentID = c.defaultAgentID
	}

	body := map[string]interface{}{
		"from_number": c.fromNumber,
		"to_number":   params.ToNumber,
		"agent_id":    agentID,
		"retell_llm_dynamic_variables": map[string]string{
			"customer_name": params.CustomerName,
		},
	}

	var call Call
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&call).
		SetError(&provErr).
		Post("/v2/create-phone-call")
	if err != nil {
		return Call{}, apperr.Upstream(0, fmt.Sprintf("create phone call: %v", err))
	}
	if resp.IsError() {
		return Call{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}

	c.log.CallEvent("provider call created", call.CallID, call.CallStatus)
	return call, nil
}

// GetCall queries the provider's current view of a call.
func (c *Client) GetCall(ctx context.Context, callID string) (Call, error) {
	var call Call
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&call).
		SetError(&provErr).
		Get("/v2/call/" + callID)
	if err != nil {
		return Call{}, apperr.Upstream(0, fmt.Sprintf("get call: %v", err))
	}
	if resp.IsError() {
		return Call{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return call, nil
}

// EndCall asks the provider to terminate a live call. The provider responds
// with the call's final state when it has one.
func (c *Client) EndCall(ctx context.Context, callID string) (Call, error) {
	var call Call
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&call).
		SetError(&provErr).
		Delete("/v2/call/" + callID)
	if err != nil {
		return Call{}, apperr.Upstream(0, fmt.Sprintf("end call: %v", err))
	}
	if resp.IsError() {
		return Call{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}

	c.log.CallEvent("provider call ended", callID, call.CallStatus)
	return call, nil
}

// ListAgents retrieves all voice agents configured on the provider.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&agents).
		SetError(&provErr).
		Get("/list-agents")
	if err != nil {
		return nil, apperr.Upstream(0, fmt.Sprintf("list agents: %v", err))
	}
	if resp.IsError() {
		return nil, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return agents, nil
}

// CreateAgent creates a voice agent on the provider.
func (c *Client) CreateAgent(ctx context.Context, agent Agent) (Agent, error) {
	var created Agent
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(agent).
		SetResult(&created).
		SetError(&provErr).
		Post("/create-agent")
	if err != nil {
		return Agent{}, apperr.Upstream(0, fmt.Sprintf("create agent: %v", err))
	}
	if resp.IsError() {
		return Agent{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return created, nil
}

// UpdateAgent patches a voice agent on the provider.
func (c *Client) UpdateAgent(ctx context.Context, agentID string, agent Agent) (Agent, error) {
	var updated Agent
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(agent).
		SetResult(&updated).
		SetError(&provErr).
		Patch("/update-agent/" + agentID)
	if err != nil {
		return Agent{}, apperr.Upstream(0, fmt.Sprintf("update agent: %v", err))
	}
	if resp.IsError() {
		return Agent{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return updated, nil
}

// DeleteAgent removes a voice agent from the provider.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&provErr).
		Delete("/delete-agent/" + agentID)
	if err != nil {
		return apperr.Upstream(0, fmt.Sprintf("delete agent: %v", err))
	}
	if resp.IsError() {
		return apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return nil
}

// GetLLM retrieves a prompt/LLM configuration from the provider.
func (c *Client) GetLLM(ctx context.Context, llmID string) (LLMConfig, error) {
	var llm LLMConfig
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&llm).
		SetError(&provErr).
		Get("/get-retell-llm/" + llmID)
	if err != nil {
		return LLMConfig{}, apperr.Upstream(0, fmt.Sprintf("get llm: %v", err))
	}
	if resp.IsError() {
		return LLMConfig{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return llm, nil
}

// CreateLLM registers a new prompt/LLM configuration with the provider.
func (c *Client) CreateLLM(ctx context.Context, llm LLMConfig) (LLMConfig, error) {
	var created LLMConfig
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(llm).
		SetResult(&created).
		SetError(&provErr).
		Post("/create-retell-llm")
	if err != nil {
		return LLMConfig{}, apperr.Upstream(0, fmt.Sprintf("create llm: %v", err))
	}
	if resp.IsError() {
		return LLMConfig{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return created, nil
}

// UpdateLLM patches a prompt/LLM configuration on the provider.
func (c *Client) UpdateLLM(ctx context.Context, llmID string, llm LLMConfig) (LLMConfig, error) {
	var updated LLMConfig
	var provErr providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(llm).
		SetResult(&updated).
		SetError(&provErr).
		Patch("/update-retell-llm/" + llmID)
	if err != nil {
		return LLMConfig{}, apperr.Upstream(0, fmt.Sprintf("update llm: %v", err))
	}
	if resp.IsError() {
		return LLMConfig{}, apperr.Upstream(resp.StatusCode(), provErr.text())
	}
	return updated, nil
}
