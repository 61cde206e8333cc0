package worker

import (
	"github.com/fieldops/kobo-dolibarr-bridge/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// run event stream.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
