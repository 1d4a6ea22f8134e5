package webhook

import (
	"testing"
	"time"

	"callcenter_backend/internal/webhook/transport"
	"callcenter_backend/platform/apperr"
)

func TestNormalizeMissingCallEnvelope(t *testing.T) {
	_, err := Normalize(transport.Envelope{Event: "call_ended"}, time.Now())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeMissingCallID(t *testing.T) {
	envelope := transport.Envelope{
		Event: "call_ended",
		Call:  &transport.Call{CallStatus: "ended"},
	}
	_, err := Normalize(envelope, time.Now())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeUsesProviderTimestamp(t *testing.T) {
	arrival := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	envelope := transport.Envelope{
		Event: "call_ended",
		Call: &transport.Call{
			CallID:                    "call_abc123",
			CallStatus:                "ended",
			LastModificationTimestamp: 1700000000000,
		},
	}

	event, err := Normalize(envelope, arrival)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !event.Timestamp.Equal(want) {
		t.Fatalf("expected provider timestamp %v, got %v", want, event.Timestamp)
	}
}

func TestNormalizeFallsBackToArrivalTime(t *testing.T) {
	arrival := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	envelope := transport.Envelope{
		Event: "call_started",
		Call:  &transport.Call{CallID: "call_abc123", CallStatus: "started"},
	}

	event, err := Normalize(envelope, arrival)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !event.Timestamp.Equal(arrival) {
		t.Fatalf("expected arrival fallback %v, got %v", arrival, event.Timestamp)
	}
}

func TestNormalizeCarriesPayload(t *testing.T) {
	envelope := transport.Envelope{
		Event: "call_analyzed",
		Call: &transport.Call{
			CallID:       "call_abc123",
			CallStatus:   "ended",
			Transcript:   "merhaba",
			RecordingURL: "https://recordings.example/call_abc123.wav",
			CallAnalysis: transport.CallAnalysis{
				CallSummary:   "customer agreed to a follow-up",
				UserSentiment: "Positive",
				CustomAnalysisData: transport.CustomAnalysisData{
					Note:   "call back next week",
					Result: "interested",
				},
			},
		},
	}

	event, err := Normalize(envelope, time.Now())
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if event.Payload.Transcript != "merhaba" {
		t.Fatalf("transcript not carried: %q", event.Payload.Transcript)
	}
	if event.Payload.Analysis.CustomAnalysisData.Result != "interested" {
		t.Fatalf("analysis not carried: %+v", event.Payload.Analysis)
	}
}
