package transport

import "callcenter_backend/internal/telephony"

type CreateAgentRequest struct {
	AgentName string `json:"agentName" validate:"required,min=2,max=100"`
	Voice     string `json:"voice" validate:"omitempty,max=100"`
	Language  string `json:"language" validate:"omitempty,max=20"`
	LLMID     string `json:"llmId" validate:"omitempty,max=100"`
}

type UpdateAgentRequest struct {
	AgentName string `json:"agentName" validate:"omitempty,min=2,max=100"`
	Voice     string `json:"voice" validate:"omitempty,max=100"`
	Language  string `json:"language" validate:"omitempty,max=20"`
}

type CreateLLMRequest struct {
	Model            string               `json:"model" validate:"required,max=100"`
	Temperature      *float64             `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	GeneralPrompt    string               `json:"generalPrompt" validate:"required"`
	BeginMessage     string               `json:"beginMessage"`
	States           []telephony.LLMState `json:"states" validate:"omitempty,max=50"`
	DynamicVariables map[string]string    `json:"dynamicVariables"`
}

// ToProvider maps the request onto the provider's LLM payload.
func (r CreateLLMRequest) ToProvider() telephony.LLMConfig {
	llm := telephony.LLMConfig{
		Model:                   r.Model,
		GeneralPrompt:           r.GeneralPrompt,
		BeginMessage:            r.BeginMessage,
		States:                  r.States,
		DefaultDynamicVariables: r.DynamicVariables,
	}
	if r.Temperature != nil {
		llm.ModelTemperature = *r.Temperature
	}
	return llm
}

type UpdateLLMRequest struct {
	Model            string               `json:"model" validate:"omitempty,max=100"`
	Temperature      *float64             `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	GeneralPrompt    string               `json:"generalPrompt"`
	BeginMessage     string               `json:"beginMessage"`
	States           []telephony.LLMState `json:"states" validate:"omitempty,max=50"`
	DynamicVariables map[string]string    `json:"dynamicVariables"`
}

// ToProvider maps the request onto the provider's LLM payload.
func (r UpdateLLMRequest) ToProvider() telephony.LLMConfig {
	llm := telephony.LLMConfig{
		Model:                   r.Model,
		GeneralPrompt:           r.GeneralPrompt,
		BeginMessage:            r.BeginMessage,
		States:                  r.States,
		DefaultDynamicVariables: r.DynamicVariables,
	}
	if r.Temperature != nil {
		llm.ModelTemperature = *r.Temperature
	}
	return llm
}
