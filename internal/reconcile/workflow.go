package reconcile

// Ticket status codes as stored by the remote ticketing system.
const (
	StatusNew        = 0
	StatusRead       = 1
	StatusAssigned   = 2
	StatusInProgress = 3
	StatusClosed     = 8
)

// The remote system enforces workflow ordering, so a ticket cannot jump
// straight to closed; each intermediate status must be written as its
// own transition.
var closingSteps = map[int][]int{
	StatusNew:        {StatusRead, StatusInProgress, StatusClosed},
	StatusRead:       {StatusInProgress, StatusClosed},
	StatusAssigned:   {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusClosed},
}

// NextSteps returns the ordered status transitions that move a ticket
// from currentStatus to closed. A terminal or unrecognized status yields
// no steps.
func NextSteps(currentStatus int) []int {
	steps, ok := closingSteps[currentStatus]
	if !ok {
		return nil
	}
	out := make([]int, len(steps))
	copy(out, steps)
	return out
}

// StatusLabel names a status code for reports and logs.
func StatusLabel(status int) string {
	switch status {
	case StatusNew:
		return "new"
	case StatusRead:
		return "read"
	case StatusAssigned:
		return "assigned"
	case StatusInProgress:
		return "in-progress"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}
