package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/services"
)

const (
	// DefaultTickInterval drives notification expiry.
	DefaultTickInterval = 2 * time.Second

	refreshTimeout = 30 * time.Second
)

// Backend is the service surface the root model drives. *services.Manager
// implements it.
type Backend interface {
	InitialState() ([]models.QuotaView, services.StatsEvent)
	Refresh(ctx context.Context) error
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
}

// notificationDurations is how long each toast type stays on screen.
var notificationDurations = map[NotificationType]time.Duration{
	NotificationSuccess: 3 * time.Second,
	NotificationInfo:    5 * time.Second,
	NotificationWarning: 5 * time.Second,
	NotificationError:   10 * time.Second,
}

// Notify returns a command that shows a toast of the given type.
func Notify(t NotificationType, message string) tea.Cmd {
	d := notificationDurations[t]
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func loadViewsCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		views, stats := b.InitialState()
		return ViewsLoadedMsg{Views: views, Stats: stats}
	}
}

// refreshCmd rescans auth files and payloads, bounded by refreshTimeout.
func refreshCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return RefreshResultMsg{Error: b.Refresh(ctx)}
	}
}

func subscribeCmd(b Backend) tea.Cmd {
	ch, _ := b.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd blocks for the next service event. A closed channel
// ends the subscription.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}
