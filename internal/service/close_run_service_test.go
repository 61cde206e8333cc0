package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/observability"
)

type statusCall struct {
	id     string
	status int
}

type fakeTicketClient struct {
	tickets    []domain.RemoteTicket
	searchErr  error
	failStatus int
	writeErr   error

	statusCalls []statusCall
	written     map[string]any
	writtenID   string
}

func (f *fakeTicketClient) SearchTicketByRef(ctx context.Context, ref string) (*domain.RemoteTicket, error) {
	// always defer to the paginated scan in tests
	return nil, f.searchErr
}

func (f *fakeTicketClient) ListTickets(ctx context.Context, page, limit int) ([]domain.RemoteTicket, error) {
	from := page * limit
	if from >= len(f.tickets) {
		return nil, nil
	}
	to := from + limit
	if to > len(f.tickets) {
		to = len(f.tickets)
	}
	return f.tickets[from:to], nil
}

func (f *fakeTicketClient) GetTicket(ctx context.Context, id string) (*domain.RemoteTicket, error) {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			ticket := f.tickets[i]
			return &ticket, nil
		}
	}
	return nil, errors.New("no such ticket")
}

func (f *fakeTicketClient) UpdateTicketStatus(ctx context.Context, id string, status int) error {
	if f.failStatus != 0 && status == f.failStatus {
		return errors.New("transition rejected")
	}
	f.statusCalls = append(f.statusCalls, statusCall{id: id, status: status})
	return nil
}

func (f *fakeTicketClient) WriteTicketOptions(ctx context.Context, id string, options map[string]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writtenID = id
	f.written = options
	return nil
}

type fakeLister struct {
	submissions []domain.Submission
	err         error
}

func (f *fakeLister) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return f.submissions, f.err
}

func runConfig() config.RunConfig {
	offset := -360
	return config.RunConfig{
		CloseStatus:            8,
		StepwiseClose:          true,
		DefaultTZOffsetMinutes: &offset,
		PageSize:               50,
		TicketMaxPages:         500,
		DirectoryMaxPages:      300,
		ExtraFieldStart:        "options_hora_inicio",
		ExtraFieldEnd:          "options_hora_fin",
	}
}

func newCloseRun(cfg config.RunConfig, tickets *fakeTicketClient, lister *fakeLister) (*CloseRunService, *observability.Metrics) {
	metrics := observability.NewMetrics()
	svc := NewCloseRunService(cfg, CloseRunDependencies{
		TicketClient: tickets,
		KoboLister:   lister,
		Dispatcher:   events.NewInMemoryDispatcher(),
		Logger:       zap.NewNop(),
		Metrics:      metrics,
	})
	return svc, metrics
}

func TestProcessOneMissingReference(t *testing.T) {
	tickets := &fakeTicketClient{}
	svc, metrics := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{"other": "x"})

	assert.Equal(t, domain.OutcomeMissingRef, outcome.Status)
	assert.Empty(t, tickets.statusCalls)
	assert.Equal(t, int64(1), metrics.OutcomeCount("NO_REF"))
}

func TestProcessOneTicketNotFound(t *testing.T) {
	tickets := &fakeTicketClient{}
	svc, _ := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{"ticket_ref": "T-100"})

	assert.Equal(t, "T-100", outcome.TicketRef)
	assert.Equal(t, domain.OutcomeNotFound, outcome.Status)
	assert.Empty(t, tickets.statusCalls, "no transition may be issued for an unmatched ticket")
}

func TestProcessOneClosesOpenTicketAndReconcilesHours(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets: []domain.RemoteTicket{
			{ID: "40", Ref: "T-099", Status: 0},
			{ID: "41", Ref: "T-100", Status: 0, Options: map[string]any{"options_note": "keep"}},
		},
		// the fast path failing must only skip to the paginated scan
		searchErr: errors.New("sqlfilters unsupported"),
	}
	svc, metrics := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{
		"ticket_ref": "t-100",
		"hora_de":    "08:00",
		"hora_a":     "07:00",
		"anio":       float64(2024),
		"mes":        float64(1),
		"dia":        float64(5),
	})

	assert.Equal(t, domain.OutcomeClosed, outcome.Status)
	assert.Equal(t, "41", outcome.TicketID)
	assert.Equal(t, []int{1, 3, 8}, outcome.Transitions)
	assert.True(t, outcome.HoursUpdated)
	assert.Empty(t, outcome.Error)

	require.Len(t, tickets.statusCalls, 3)
	for i, want := range []int{1, 3, 8} {
		assert.Equal(t, statusCall{id: "41", status: want}, tickets.statusCalls[i])
	}

	require.NotNil(t, tickets.written)
	assert.Equal(t, "41", tickets.writtenID)
	assert.Equal(t, "keep", tickets.written["options_note"], "unrelated extension fields must survive")

	start, ok := tickets.written["options_hora_inicio"].(int64)
	require.True(t, ok)
	end, ok := tickets.written["options_hora_fin"].(int64)
	require.True(t, ok)

	wantStart := time.Date(2024, 1, 5, 8, 0, 0, 0, time.FixedZone("", -6*3600)).Unix()
	assert.Equal(t, wantStart, start)
	// 08:00 -> 07:00 wraps to the next calendar day
	assert.Equal(t, int64(23*3600), end-start)

	assert.Equal(t, int64(1), metrics.OutcomeCount("CLOSED"))
}

func TestProcessOneStopsWorkflowOnFailedTransition(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets:    []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 0}},
		failStatus: 3,
	}
	svc, _ := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{"ticket_ref": "T-100"})

	assert.Equal(t, domain.OutcomeError, outcome.Status)
	assert.Equal(t, []int{1}, outcome.Transitions)
	assert.NotEmpty(t, outcome.Error)
	assert.Equal(t, []statusCall{{id: "41", status: 1}}, tickets.statusCalls)
}

func TestProcessOneDirectOverwrite(t *testing.T) {
	cfg := runConfig()
	cfg.StepwiseClose = false
	tickets := &fakeTicketClient{
		tickets: []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 0}},
	}
	svc, _ := newCloseRun(cfg, tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{"ticket_ref": "T-100"})

	assert.Equal(t, domain.OutcomeClosed, outcome.Status)
	assert.Equal(t, []int{8}, outcome.Transitions)
	assert.Equal(t, []statusCall{{id: "41", status: 8}}, tickets.statusCalls)
}

func TestProcessOneAlreadyClosedTicketIssuesNoTransitions(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets: []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 8}},
	}
	svc, _ := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{"ticket_ref": "T-100"})

	assert.Equal(t, domain.OutcomeClosed, outcome.Status)
	assert.Empty(t, outcome.Transitions)
	assert.Empty(t, tickets.statusCalls)
}

func TestProcessOneInvalidTimeSkipsHours(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets: []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 3}},
	}
	svc, _ := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{
		"ticket_ref": "T-100",
		"hora_de":    "25:00",
		"hora_a":     "17:00",
		"anio":       float64(2024),
		"mes":        float64(1),
		"dia":        float64(5),
	})

	assert.Equal(t, domain.OutcomeClosed, outcome.Status)
	assert.False(t, outcome.HoursUpdated)
	assert.Empty(t, outcome.Error)
	assert.Nil(t, tickets.written)
}

func TestProcessOneHoursWriteFailureKeepsClosedOutcome(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets:  []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 3}},
		writeErr: errors.New("extrafield rejected"),
	}
	svc, _ := newCloseRun(runConfig(), tickets, nil)

	outcome := svc.ProcessOne(context.Background(), "run-1", domain.Submission{
		"ticket_ref": "T-100",
		"hora_de":    "08:00",
		"hora_a":     "09:00",
		"anio":       float64(2024),
		"mes":        float64(1),
		"dia":        float64(5),
	})

	assert.Equal(t, domain.OutcomeClosed, outcome.Status)
	assert.False(t, outcome.HoursUpdated)
	assert.Contains(t, outcome.Error, "extrafield rejected")
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	tickets := &fakeTicketClient{
		tickets: []domain.RemoteTicket{{ID: "41", Ref: "T-100", Status: 3}},
	}
	lister := &fakeLister{submissions: []domain.Submission{
		{"other": "no reference here"},
		{"ticket_ref": "T-404"},
		{"ticket_ref": "T-100"},
	}}
	svc, _ := newCloseRun(runConfig(), tickets, lister)

	report, err := svc.ProcessBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Items, 3)
	assert.Equal(t, domain.OutcomeMissingRef, report.Items[0].Status)
	assert.Equal(t, domain.OutcomeNotFound, report.Items[1].Status)
	assert.Equal(t, domain.OutcomeClosed, report.Items[2].Status)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Closed)
	assert.Equal(t, 0, report.HoursUpdated)
}

func TestProcessBatchListingFailure(t *testing.T) {
	svc, _ := newCloseRun(runConfig(), &fakeTicketClient{}, &fakeLister{err: errors.New("listing down")})

	_, err := svc.ProcessBatch(context.Background())
	assert.Error(t, err)
}
