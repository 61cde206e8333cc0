package events

import "time"

// EventType enumerates run observability events. The orchestrator emits
// these at its defined checkpoints; consumers (logging, the outcome
// webhook) subscribe and must never influence the run.
type EventType string

const (
	EventRunStarted        EventType = "run_started"
	EventTicketMatched     EventType = "ticket_matched"
	EventTicketNotFound    EventType = "ticket_not_found"
	EventTransitionApplied EventType = "transition_applied"
	EventHoursReconciled   EventType = "hours_reconciled"
	EventItemError         EventType = "item_error"
	EventVisitCreated      EventType = "visit_created"
)

// Event represents one run observation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Ref       string      `json:"ref,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketMatchedPayload payload.
type TicketMatchedPayload struct {
	TicketID string `json:"ticket_id"`
	Status   int    `json:"status"`
}

// TransitionAppliedPayload payload.
type TransitionAppliedPayload struct {
	TicketID string `json:"ticket_id"`
	Status   int    `json:"status"`
}

// HoursReconciledPayload payload.
type HoursReconciledPayload struct {
	TicketID string `json:"ticket_id"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
}

// ItemErrorPayload payload.
type ItemErrorPayload struct {
	TicketID string `json:"ticket_id,omitempty"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// VisitCreatedPayload payload.
type VisitCreatedPayload struct {
	EventID      string `json:"event_id"`
	ThirdpartyID string `json:"thirdparty_id"`
	UserID       string `json:"user_id"`
}

// RunStartedPayload payload.
type RunStartedPayload struct {
	Submissions int `json:"submissions"`
}
