package domain

// OutcomeStatus classifies what happened to one submission. Every value
// here is a normal business outcome, reported with HTTP 200.
type OutcomeStatus string

const (
	OutcomeClosed     OutcomeStatus = "CLOSED"
	OutcomeNotFound   OutcomeStatus = "NOT_FOUND"
	OutcomeMissingRef OutcomeStatus = "NO_REF"
	OutcomeError      OutcomeStatus = "ERROR"
)

// Outcome is the per-submission result of a close-ticket run. A
// submission reaches exactly one terminal outcome and is never retried
// within the run.
type Outcome struct {
	TicketRef    string
	TicketID     string
	Status       OutcomeStatus
	Transitions  []int
	HoursUpdated bool
	Error        string
}

// RunReport aggregates a batch run.
type RunReport struct {
	Items        []Outcome
	Processed    int
	Closed       int
	HoursUpdated int
}

// Tally recomputes the aggregate counters from the items.
func (r *RunReport) Tally() {
	r.Processed = len(r.Items)
	r.Closed = 0
	r.HoursUpdated = 0
	for _, item := range r.Items {
		if item.Status == OutcomeClosed {
			r.Closed++
		}
		if item.HoursUpdated {
			r.HoursUpdated++
		}
	}
}

// VisitOutcome is the result of one visit-creation request.
type VisitOutcome struct {
	Status         string
	EventID        string
	ThirdpartyRef  string
	ThirdpartyID   string
	ThirdpartyName string
	UserLogin      string
	UserID         string
	Location       string
}
