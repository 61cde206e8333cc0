package dto

import "github.com/fieldops/kobo-dolibarr-bridge/internal/domain"

// OutcomeResponse is the per-submission entry of a close-ticket report.
type OutcomeResponse struct {
	TicketRef    string `json:"ticketRef"`
	TicketID     string `json:"ticketId,omitempty"`
	Status       string `json:"status"`
	Transitions  []int  `json:"transitions,omitempty"`
	HoursUpdated bool   `json:"hoursUpdated"`
	Error        string `json:"error,omitempty"`
}

// RunReportResponse aggregates a batch run.
type RunReportResponse struct {
	Items        []OutcomeResponse `json:"items"`
	Processed    int               `json:"processed"`
	Closed       int               `json:"closed"`
	HoursUpdated int               `json:"hoursUpdated"`
}

// VisitResponse reports a visit-creation request.
type VisitResponse struct {
	Status         string `json:"status"`
	EventID        string `json:"eventId,omitempty"`
	ThirdpartyRef  string `json:"thirdpartyRef,omitempty"`
	ThirdpartyID   string `json:"thirdpartyId,omitempty"`
	ThirdpartyName string `json:"thirdpartyName,omitempty"`
	UserLogin      string `json:"userLogin,omitempty"`
	UserID         string `json:"userId,omitempty"`
	Location       string `json:"location,omitempty"`
}

// OutcomeFrom maps a domain outcome to its response shape.
func OutcomeFrom(outcome domain.Outcome) OutcomeResponse {
	return OutcomeResponse{
		TicketRef:    outcome.TicketRef,
		TicketID:     outcome.TicketID,
		Status:       string(outcome.Status),
		Transitions:  outcome.Transitions,
		HoursUpdated: outcome.HoursUpdated,
		Error:        outcome.Error,
	}
}

// ReportFrom maps a batch report.
func ReportFrom(report *domain.RunReport) RunReportResponse {
	items := make([]OutcomeResponse, 0, len(report.Items))
	for _, item := range report.Items {
		items = append(items, OutcomeFrom(item))
	}
	return RunReportResponse{
		Items:        items,
		Processed:    report.Processed,
		Closed:       report.Closed,
		HoursUpdated: report.HoursUpdated,
	}
}

// VisitFrom maps a visit outcome.
func VisitFrom(outcome *domain.VisitOutcome) VisitResponse {
	return VisitResponse{
		Status:         outcome.Status,
		EventID:        outcome.EventID,
		ThirdpartyRef:  outcome.ThirdpartyRef,
		ThirdpartyID:   outcome.ThirdpartyID,
		ThirdpartyName: outcome.ThirdpartyName,
		UserLogin:      outcome.UserLogin,
		UserID:         outcome.UserID,
		Location:       outcome.Location,
	}
}
