package transport

// Envelope is the raw provider webhook body. Event names the delivery kind
// (call_started, call_ended, call_analyzed); only the call object matters
// for reconciliation.
type Envelope struct {
	Event string `json:"event"`
	Call  *Call  `json:"call"`
}

// Call is the provider's call object as delivered on the webhook.
type Call struct {
	CallID                    string       `json:"call_id"`
	CallStatus                string       `json:"call_status"`
	Transcript                string       `json:"transcript"`
	RecordingURL              string       `json:"recording_url"`
	CallAnalysis              CallAnalysis `json:"call_analysis"`
	StartTimestamp            int64        `json:"start_timestamp"`
	EndTimestamp              int64        `json:"end_timestamp"`
	LastModificationTimestamp int64        `json:"last_modification_timestamp"`
}

// CallAnalysis is the post-call analysis sub-object.
type CallAnalysis struct {
	CallSummary        string             `json:"call_summary"`
	UserSentiment      string             `json:"user_sentiment"`
	CallSuccessful     bool               `json:"call_successful"`
	InVoicemail        bool               `json:"in_voicemail"`
	CustomAnalysisData CustomAnalysisData `json:"custom_analysis_data"`
}

// CustomAnalysisData carries free-form per-call annotations.
type CustomAnalysisData struct {
	Note   string `json:"note"`
	Result string `json:"result"`
}

// Result is the webhook response body.
type Result struct {
	Applied      bool   `json:"applied"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	Status       string `json:"status,omitempty"`
}
