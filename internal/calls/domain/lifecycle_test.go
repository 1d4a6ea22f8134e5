package domain

import (
	"testing"
	"time"
)

func TestDecide_AppliesNewerEvent(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := Decide(CallStatusStarted, base, CallStatusEnded, base.Add(time.Minute))
	if !d.Apply {
		t.Fatalf("expected newer event to apply, got reason %q", d.Reason)
	}
	if d.CallStatus != CallStatusEnded {
		t.Fatalf("expected call status ended, got %q", d.CallStatus)
	}
	if d.CustomerStatus != CustomerStatusCompleted {
		t.Fatalf("expected customer status completed, got %q", d.CustomerStatus)
	}
	if !d.Terminal {
		t.Fatal("expected ended to be terminal")
	}
}

func TestDecide_DiscardsEqualTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := Decide(CallStatusEnded, base, CallStatusEnded, base)
	if d.Apply {
		t.Fatal("replay with identical timestamp must be a no-op")
	}
	if d.Reason != ReasonStaleTimestamp {
		t.Fatalf("expected stale_timestamp, got %q", d.Reason)
	}
}

func TestDecide_DiscardsOlderTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := Decide(CallStatusEnded, base, CallStatusStarted, base.Add(-time.Minute))
	if d.Apply {
		t.Fatal("older delivery must never revert a newer state")
	}
}

func TestDecide_TerminalStateSticky(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Even a timestamp-newer non-terminal status must not reopen a
	// terminal record: clocks on the provider side are not trusted to
	// order a restart after an end.
	d := Decide(CallStatusFailed, base, CallStatusStarted, base.Add(time.Hour))
	if d.Apply {
		t.Fatal("non-terminal event must not regress a terminal record")
	}
	if d.Reason != ReasonTerminalRegression {
		t.Fatalf("expected terminal_regression, got %q", d.Reason)
	}
}

func TestDecide_TerminalToTerminalStillAdvances(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	d := Decide(CallStatusEnded, base, CallStatusFailed, base.Add(time.Minute))
	if !d.Apply {
		t.Fatalf("newer terminal status should apply, got reason %q", d.Reason)
	}
	if d.CustomerStatus != CustomerStatusFailed {
		t.Fatalf("expected customer status failed, got %q", d.CustomerStatus)
	}
}

func TestCustomerStatusFor_UnknownDefaultsToProcessing(t *testing.T) {
	if got := CustomerStatusFor("transferring"); got != CustomerStatusProcessing {
		t.Fatalf("unknown provider status should map to processing, got %q", got)
	}
}

func TestCustomerStatusFor_Mapping(t *testing.T) {
	cases := map[string]string{
		CallStatusStarted: CustomerStatusProcessing,
		CallStatusEnded:   CustomerStatusCompleted,
		CallStatusFailed:  CustomerStatusFailed,
		CallStatusError:   CustomerStatusFailed,
	}
	for in, want := range cases {
		if got := CustomerStatusFor(in); got != want {
			t.Fatalf("CustomerStatusFor(%q) = %q, want %q", in, got, want)
		}
	}
}
