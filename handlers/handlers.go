// handlers/handlers.go - Local API wiring
package handlers

import (
	"civicsync/services"
)

var (
	reportService       *services.ReportService
	subscriptionService *services.SubscriptionService
	syncService         *services.SyncService
	session             *services.Session
	state               *services.StateStore
	notifier            *services.Notifier
	queue               *services.DurableQueue
)

// Deps carries everything the handler package needs.
type Deps struct {
	Reports       *services.ReportService
	Subscriptions *services.SubscriptionService
	Sync          *services.SyncService
	Session       *services.Session
	State         *services.StateStore
	Notifier      *services.Notifier
	Queue         *services.DurableQueue
}

// InitHandlers injects the service dependencies.
func InitHandlers(deps Deps) {
	reportService = deps.Reports
	subscriptionService = deps.Subscriptions
	syncService = deps.Sync
	session = deps.Session
	state = deps.State
	notifier = deps.Notifier
	queue = deps.Queue
}
