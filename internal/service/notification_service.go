package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
)

// NotificationService observes run events: every event is logged, and
// noteworthy ones are forwarded to an optional webhook. It is a pure
// observer; nothing here can affect a run.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to run events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRunStarted, n.handleLogged)
	n.dispatcher.Subscribe(events.EventTicketMatched, n.handleLogged)
	n.dispatcher.Subscribe(events.EventTicketNotFound, n.handleLogged)
	n.dispatcher.Subscribe(events.EventTransitionApplied, n.handleLogged)
	n.dispatcher.Subscribe(events.EventHoursReconciled, n.handleLogged)
	n.dispatcher.Subscribe(events.EventVisitCreated, n.handleNotified)
	n.dispatcher.Subscribe(events.EventItemError, n.handleNotified)
}

func (n *NotificationService) handleLogged(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("run_id", event.RunID),
		zap.String("ref", event.Ref),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleNotified(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("run_id", event.RunID),
		zap.String("ref", event.Ref),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ref", event.Ref),
		zap.String("event_type", string(event.Type)))
}
