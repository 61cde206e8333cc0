package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/dolibarr"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/kobo"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/observability"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/reconcile"
)

// Field paths for each value the close run reads from a submission, in
// priority order. Later entries cover the historical payload shapes
// (flattened "group/field" keys and nested groups).
var (
	ticketRefPaths = []string{
		"ticket_ref",
		"datos_tecnico/ticket_ref",
		"datos_tecnico.ticket_ref",
		"dolibarr/ticket_ref",
		"dolibarr.ticket_ref",
	}
	yearPaths      = []string{"anio", "datos_tecnico/anio", "datos_tecnico.anio"}
	monthPaths     = []string{"mes", "datos_tecnico/mes", "datos_tecnico.mes"}
	dayPaths       = []string{"dia", "datos_tecnico/dia", "datos_tecnico.dia"}
	startTimePaths = []string{"hora_de", "datos_tecnico/hora_de", "datos_tecnico.hora_de"}
	endTimePaths   = []string{"hora_a", "datos_tecnico/hora_a", "datos_tecnico.hora_a"}
)

// CloseRunService orchestrates the ticket-closing run: locate the
// remote ticket by reference, walk it through the closing workflow and
// reconcile reported work hours into its extension fields.
type CloseRunService struct {
	tickets    dolibarr.TicketClient
	kobo       kobo.Lister
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.RunConfig
}

// CloseRunDependencies bundles collaborators for the close run service.
type CloseRunDependencies struct {
	TicketClient dolibarr.TicketClient
	KoboLister   kobo.Lister
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewCloseRunService constructs the service.
func NewCloseRunService(cfg config.RunConfig, deps CloseRunDependencies) *CloseRunService {
	return &CloseRunService{
		tickets:    deps.TicketClient,
		kobo:       deps.KoboLister,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
	}
}

// ProcessBatch pulls all submissions from the survey platform and
// processes them strictly sequentially. The extension-field update is a
// read-modify-write, so per-record serialization is a correctness
// requirement, not a simplification. One submission's failure never
// stops the rest of the batch.
func (s *CloseRunService) ProcessBatch(ctx context.Context) (*domain.RunReport, error) {
	runID := uuid.NewString()

	submissions, err := s.kobo.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.EventRunStarted, runID, "", events.RunStartedPayload{Submissions: len(submissions)})

	report := &domain.RunReport{Items: make([]domain.Outcome, 0, len(submissions))}
	for _, submission := range submissions {
		report.Items = append(report.Items, s.ProcessOne(ctx, runID, submission))
	}
	report.Tally()
	return report, nil
}

// ProcessOne runs a single submission to its terminal outcome. Missing
// references and unmatched tickets are normal business outcomes; only
// remote-call failures produce an ERROR outcome, and even those are
// confined to the one submission.
func (s *CloseRunService) ProcessOne(ctx context.Context, runID string, submission domain.Submission) domain.Outcome {
	ref, ok := submission.First(ticketRefPaths...)
	if !ok {
		return s.finish(domain.Outcome{Status: domain.OutcomeMissingRef})
	}

	ticket, err := s.locateTicket(ctx, runID, ref)
	if err != nil {
		s.emit(ctx, events.EventItemError, runID, ref, events.ItemErrorPayload{Stage: "search", Error: err.Error()})
		return s.finish(domain.Outcome{TicketRef: ref, Status: domain.OutcomeError, Error: err.Error()})
	}
	if ticket == nil {
		s.emit(ctx, events.EventTicketNotFound, runID, ref, nil)
		return s.finish(domain.Outcome{TicketRef: ref, Status: domain.OutcomeNotFound})
	}
	s.logger.Debug("ticket matched",
		zap.String("run_id", runID), zap.String("ref", ref),
		zap.String("ticket_id", ticket.ID), zap.String("status", reconcile.StatusLabel(ticket.Status)))
	s.emit(ctx, events.EventTicketMatched, runID, ref, events.TicketMatchedPayload{TicketID: ticket.ID, Status: ticket.Status})

	outcome := domain.Outcome{TicketRef: ref, TicketID: ticket.ID, Status: domain.OutcomeClosed}

	outcome.Transitions, err = s.closeTicket(ctx, runID, ticket)
	if err != nil {
		s.emit(ctx, events.EventItemError, runID, ref, events.ItemErrorPayload{TicketID: ticket.ID, Stage: "close", Error: err.Error()})
		outcome.Status = domain.OutcomeError
		outcome.Error = err.Error()
		return s.finish(outcome)
	}

	if start, end, ok := s.workWindow(submission); ok {
		if err := s.writeHours(ctx, ticket.ID, start, end); err != nil {
			// Closing succeeded; surface the hours failure as a detail
			// on an otherwise CLOSED outcome.
			s.emit(ctx, events.EventItemError, runID, ref, events.ItemErrorPayload{TicketID: ticket.ID, Stage: "hours", Error: err.Error()})
			outcome.Error = err.Error()
		} else {
			s.emit(ctx, events.EventHoursReconciled, runID, ref, events.HoursReconciledPayload{TicketID: ticket.ID, Start: start, End: end})
			outcome.HoursUpdated = true
		}
	}
	return s.finish(outcome)
}

// locateTicket tries the server-side filtered query first; any fast-path
// failure only skips to the paginated scan, never aborts the search.
func (s *CloseRunService) locateTicket(ctx context.Context, runID, ref string) (*domain.RemoteTicket, error) {
	ticket, err := s.tickets.SearchTicketByRef(ctx, ref)
	if err != nil {
		s.logger.Warn("ticket search fast path failed, falling back to scan",
			zap.String("run_id", runID), zap.String("ref", ref), zap.Error(err))
	} else if ticket != nil {
		return ticket, nil
	}

	found, ok, err := reconcile.FindByRef(ctx, ref, s.tickets.ListTickets,
		func(t domain.RemoteTicket) []string { return []string{t.Ref} },
		s.cfg.PageSize, s.cfg.TicketMaxPages)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &found, nil
}

// closeTicket applies the closing workflow. Stepwise mode walks the
// resolver's transition sequence one remote call at a time; a failed
// step stops the walk with the applied prefix recorded. Direct mode
// overwrites the status in a single call.
func (s *CloseRunService) closeTicket(ctx context.Context, runID string, ticket *domain.RemoteTicket) ([]int, error) {
	if !s.cfg.StepwiseClose {
		if err := s.tickets.UpdateTicketStatus(ctx, ticket.ID, s.cfg.CloseStatus); err != nil {
			return nil, err
		}
		s.emit(ctx, events.EventTransitionApplied, runID, ticket.Ref,
			events.TransitionAppliedPayload{TicketID: ticket.ID, Status: s.cfg.CloseStatus})
		return []int{s.cfg.CloseStatus}, nil
	}

	applied := []int{}
	for _, step := range reconcile.NextSteps(ticket.Status) {
		if err := s.tickets.UpdateTicketStatus(ctx, ticket.ID, step); err != nil {
			return applied, err
		}
		applied = append(applied, step)
		s.emit(ctx, events.EventTransitionApplied, runID, ticket.Ref,
			events.TransitionAppliedPayload{TicketID: ticket.ID, Status: step})
	}
	return applied, nil
}

// workWindow extracts and composes the reported work-hour window. Any
// missing or unparseable piece means "skip reconciliation", never a
// failure.
func (s *CloseRunService) workWindow(submission domain.Submission) (int64, int64, bool) {
	year, okYear := submission.FirstInt(yearPaths...)
	month, okMonth := submission.FirstInt(monthPaths...)
	day, okDay := submission.FirstInt(dayPaths...)
	rawStart, okStart := submission.First(startTimePaths...)
	rawEnd, okEnd := submission.First(endTimePaths...)
	if !okYear || !okMonth || !okDay || !okStart || !okEnd {
		return 0, 0, false
	}

	startFrag, err := reconcile.ParseClock(rawStart)
	if err != nil {
		s.logger.Debug("skipping hours, invalid start time", zap.String("raw", rawStart))
		return 0, 0, false
	}
	endFrag, err := reconcile.ParseClock(rawEnd)
	if err != nil {
		s.logger.Debug("skipping hours, invalid end time", zap.String("raw", rawEnd))
		return 0, 0, false
	}

	date := reconcile.CivilDate{Year: year, Month: month, Day: day}
	start, end, localFallback := reconcile.ComposeWindow(date, startFrag, endFrag, s.cfg.DefaultTZOffsetMinutes)
	if localFallback {
		s.logger.Warn("composed work window in process-local time; set DEFAULT_TZ_OFFSET_MINUTES for reproducible output")
	}
	return start, end, true
}

// writeHours merges the composed instants into the ticket's extension
// fields. The current map is fetched first so unrelated extension
// fields survive the write.
func (s *CloseRunService) writeHours(ctx context.Context, ticketID string, start, end int64) error {
	current, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	options := current.Options
	if options == nil {
		options = make(map[string]any, 2)
	}
	options[s.cfg.ExtraFieldStart] = start
	options[s.cfg.ExtraFieldEnd] = end
	return s.tickets.WriteTicketOptions(ctx, ticketID, options)
}

func (s *CloseRunService) finish(outcome domain.Outcome) domain.Outcome {
	s.metrics.RecordOutcome(string(outcome.Status))
	return outcome
}

func (s *CloseRunService) emit(ctx context.Context, eventType events.EventType, runID, ref string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Ref:       ref,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
