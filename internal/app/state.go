// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for the loading notification.
const LoadingNotificationID = "__loading__"

// maxNotifications caps the toast stack.
const maxNotifications = 5

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing toast.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is shared between the root model and its tabs.
type State struct {
	lastUpdated     time.Time
	stats           *services.StatsEvent
	views           []models.QuotaView
	notifications   []Notification
	selected        int
	notificationSeq int
	mu              sync.RWMutex
	loading         bool
}

// NewState creates an empty state that is loading.
func NewState() *State {
	return &State{loading: true}
}

// SetViews replaces the views and keeps the selection on the same auth file
// when it still exists.
func (s *State) SetViews(views []models.QuotaView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selectedKey string
	if s.selected < len(s.views) {
		selectedKey = s.views[s.selected].AuthFile.Key()
	}

	s.views = views
	s.lastUpdated = time.Now()
	s.loading = false

	s.selected = 0
	for i := range views {
		if views[i].AuthFile.Key() == selectedKey {
			s.selected = i
			break
		}
	}
}

// Views returns a copy of the views.
func (s *State) Views() []models.QuotaView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]models.QuotaView, len(s.views))
	copy(views, s.views)
	return views
}

// ViewCount returns the number of views.
func (s *State) ViewCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// SelectedIndex returns the index of the selected view.
func (s *State) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select moves the selection, clamped to the available views.
func (s *State) Select(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = min(max(idx, 0), max(len(s.views)-1, 0))
}

// SelectedView returns the selected view.
func (s *State) SelectedView() (models.QuotaView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected >= len(s.views) {
		return models.QuotaView{}, false
	}
	return s.views[s.selected], true
}

// SetStats updates the statistics.
func (s *State) SetStats(stats services.StatsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &stats
}

// Stats returns the current statistics.
func (s *State) Stats() *services.StatsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetLoading marks views as loading.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// IsLoading reports whether views are loading.
func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastUpdated returns the time views were last replaced.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := fmt.Sprintf("n-%d", s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.notifications[:0]
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// Notifications returns the active notifications.
func (s *State) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification shows or updates the loading toast.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading toast.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
