// Package domain provides core business rules for the calls bounded context:
// the call lifecycle state machine and the call-to-customer status mapping.
package domain

import "time"

// CallRecord statuses. The provider vocabulary (started/ended/error) is kept
// as a passthrough; completed and failed are local terminal designations.
const (
	CallStatusPending    = "pending"
	CallStatusStarted    = "started"
	CallStatusProcessing = "processing"
	CallStatusEnded      = "ended"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusError      = "error"
)

// Customer contact statuses derived from call outcomes.
const (
	CustomerStatusPending    = "pending"
	CustomerStatusProcessing = "processing"
	CustomerStatusCompleted  = "completed"
	CustomerStatusFailed     = "failed"
)

// terminalCallStatuses are call statuses after which the record must not be
// reverted to an in-flight state by reordered deliveries.
var terminalCallStatuses = map[string]bool{
	CallStatusEnded:     true,
	CallStatusCompleted: true,
	CallStatusFailed:    true,
	CallStatusError:     true,
}

// IsTerminal reports whether a call status is terminal.
func IsTerminal(status string) bool {
	return terminalCallStatuses[status]
}

// CustomerStatusFor maps a call status onto the owning customer's contact
// status. Unrecognized provider statuses map to processing: an unknown status
// means the provider is still doing something with the call.
func CustomerStatusFor(callStatus string) string {
	switch callStatus {
	case CallStatusStarted, CallStatusPending, CallStatusProcessing:
		return CustomerStatusProcessing
	case CallStatusEnded, CallStatusCompleted:
		return CustomerStatusCompleted
	case CallStatusFailed, CallStatusError:
		return CustomerStatusFailed
	default:
		return CustomerStatusProcessing
	}
}

// Decision reason codes.
const (
	ReasonApplied            = "applied"
	ReasonStaleTimestamp     = "stale_timestamp"
	ReasonTerminalRegression = "terminal_regression"
)

// Decision is the outcome of evaluating one lifecycle event against the
// current state of a call record.
type Decision struct {
	// Apply is true when the event must be persisted.
	Apply bool
	// CallStatus is the next call record status when Apply is true.
	CallStatus string
	// CustomerStatus is the next customer status when Apply is true.
	CustomerStatus string
	// Terminal is true when the next call status is terminal.
	Terminal bool
	// Reason explains why the event was applied or discarded.
	Reason string
}

// Decide evaluates one status-bearing event against the stored call state.
//
// Events whose timestamp does not strictly advance lastUpdated are duplicates
// or reordered stale deliveries and are discarded. Once a record is terminal,
// a non-terminal status can never be applied regardless of timestamp; a later
// terminal status (e.g. failed after ended) still wins on timestamp. The
// staleness check must also be enforced by the store as a conditional update;
// this function is the single authority on WHAT to write, the repository on
// whether the write races another writer.
func Decide(currentStatus string, lastUpdated time.Time, incomingStatus string, eventTime time.Time) Decision {
	if !eventTime.After(lastUpdated) {
		return Decision{Apply: false, Reason: ReasonStaleTimestamp}
	}

	if IsTerminal(currentStatus) && !IsTerminal(incomingStatus) {
		return Decision{Apply: false, Reason: ReasonTerminalRegression}
	}

	return Decision{
		Apply:          true,
		CallStatus:     incomingStatus,
		CustomerStatus: CustomerStatusFor(incomingStatus),
		Terminal:       IsTerminal(incomingStatus),
		Reason:         ReasonApplied,
	}
}
