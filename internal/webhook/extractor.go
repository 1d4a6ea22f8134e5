// Package webhook accepts inbound provider notifications: it validates the
// delivery shape, deduplicates replays, journals the raw payload, and hands
// a normalized event to the call lifecycle reconciler.
package webhook

import (
	"time"

	"callcenter_backend/internal/calls/repository"
	"callcenter_backend/internal/webhook/transport"
	"callcenter_backend/platform/apperr"
)

// NormalizedEvent is one provider delivery reduced to what the reconciler
// consumes.
type NormalizedEvent struct {
	ProviderCallID string
	Status         string
	Payload        repository.EventPayload
	// Timestamp is the delivery's own last-modified time, falling back to
	// arrival time when the provider omits it.
	Timestamp time.Time
}

// Normalize validates the envelope and lifts it into a NormalizedEvent.
// A missing call object or call id is a malformed delivery.
func Normalize(envelope transport.Envelope, arrival time.Time) (NormalizedEvent, error) {
	if envelope.Call == nil {
		return NormalizedEvent{}, apperr.Validation("missing call envelope")
	}
	if envelope.Call.CallID == "" {
		return NormalizedEvent{}, apperr.Validation("missing call_id")
	}

	timestamp := arrival
	if envelope.Call.LastModificationTimestamp > 0 {
		timestamp = time.UnixMilli(envelope.Call.LastModificationTimestamp).UTC()
	}

	return NormalizedEvent{
		ProviderCallID: envelope.Call.CallID,
		Status:         envelope.Call.CallStatus,
		Timestamp:      timestamp,
		Payload: repository.EventPayload{
			Transcript:   envelope.Call.Transcript,
			RecordingURL: envelope.Call.RecordingURL,
			Analysis: repository.Analysis{
				CallSummary:    envelope.Call.CallAnalysis.CallSummary,
				UserSentiment:  envelope.Call.CallAnalysis.UserSentiment,
				CallSuccessful: envelope.Call.CallAnalysis.CallSuccessful,
				InVoicemail:    envelope.Call.CallAnalysis.InVoicemail,
				CustomAnalysisData: repository.CustomAnalysisData{
					Note:   envelope.Call.CallAnalysis.CustomAnalysisData.Note,
					Result: envelope.Call.CallAnalysis.CustomAnalysisData.Result,
				},
			},
		},
	}, nil
}
