package telephony

// CustomAnalysisData carries the provider's free-form per-call annotations.
type CustomAnalysisData struct {
	Note   string `json:"note,omitempty"`
	Result string `json:"result,omitempty"`
}

// CallAnalysis is the provider's post-call analysis payload.
type CallAnalysis struct {
	CallSummary        string             `json:"call_summary,omitempty"`
	UserSentiment      string             `json:"user_sentiment,omitempty"`
	CallSuccessful     bool               `json:"call_successful,omitempty"`
	InVoicemail        bool               `json:"in_voicemail,omitempty"`
	CustomAnalysisData CustomAnalysisData `json:"custom_analysis_data,omitempty"`
}

// Call is the provider's representation of one outbound call attempt.
type Call struct {
	CallID         string       `json:"call_id"`
	CallStatus     string       `json:"call_status"`
	AgentID        string       `json:"agent_id,omitempty"`
	FromNumber     string       `json:"from_number,omitempty"`
	ToNumber       string       `json:"to_number,omitempty"`
	Transcript     string       `json:"transcript,omitempty"`
	RecordingURL   string       `json:"recording_url,omitempty"`
	StartTimestamp int64        `json:"start_timestamp,omitempty"`
	EndTimestamp   int64        `json:"end_timestamp,omitempty"`
	CallAnalysis   CallAnalysis `json:"call_analysis,omitempty"`
}

// CreateCallParams are the inputs for starting an outbound call.
type CreateCallParams struct {
	ToNumber     string
	CustomerName string
	AgentID      string
}

// Agent mirrors the provider's voice-agent configuration.
type Agent struct {
	AgentID       string `json:"agent_id"`
	AgentName     string `json:"agent_name,omitempty"`
	Voice         string `json:"voice_id,omitempty"`
	Language      string `json:"language,omitempty"`
	ResponseEngine struct {
		Type  string `json:"type,omitempty"`
		LLMID string `json:"llm_id,omitempty"`
	} `json:"response_engine,omitempty"`
	LastModificationTimestamp int64 `json:"last_modification_timestamp,omitempty"`
}

// LLMConfig mirrors the provider's prompt/LLM configuration.
type LLMConfig struct {
	LLMID                     string            `json:"llm_id"`
	Version                   int               `json:"version,omitempty"`
	IsPublished               bool              `json:"is_published,omitempty"`
	Model                     string            `json:"model,omitempty"`
	ModelTemperature          float64           `json:"model_temperature,omitempty"`
	GeneralPrompt             string            `json:"general_prompt,omitempty"`
	BeginMessage              string            `json:"begin_message,omitempty"`
	States                    []LLMState        `json:"states,omitempty"`
	DefaultDynamicVariables   map[string]string `json:"default_dynamic_variables,omitempty"`
	LastModificationTimestamp int64             `json:"last_modification_timestamp,omitempty"`
}

// LLMState is one node of the provider's conversational state machine.
type LLMState struct {
	Name        string `json:"name"`
	StatePrompt string `json:"state_prompt,omitempty"`
	Edges       []struct {
		DestinationStateName string `json:"destination_state_name"`
		Description          string `json:"description,omitempty"`
	} `json:"edges,omitempty"`
}

// providerError is the provider's error response body.
type providerError struct {
	Message      string `json:"message"`
	ErrorMessage string `json:"error_message"`
}

func (e providerError) text() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return "telephony provider request failed"
}
