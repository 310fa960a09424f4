package app

import (
	"time"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/services"
)

// TickMsg is sent periodically to expire toasts and redraw countdowns.
type TickMsg struct {
	Time time.Time
}

// ViewsLoadedMsg carries freshly built quota views.
type ViewsLoadedMsg struct {
	Views []models.QuotaView
	Stats services.StatsEvent
}

// RefreshResultMsg reports the outcome of a manual refresh.
type RefreshResultMsg struct {
	Error error
}

// SelectionChangedMsg is sent when the selected auth file changes.
type SelectionChangedMsg struct {
	Index int
}

// TabActivatedMsg is delivered to a tab when it becomes active.
type TabActivatedMsg struct {
	Tab TabID
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg carries the subscriber channel once subscribed.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}
