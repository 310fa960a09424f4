// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/db"
	"github.com/j-veylop/authquota/internal/logger"
	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/services/authfiles"
	"github.com/j-veylop/authquota/internal/services/payloads"
)

// snapshotRetention bounds how long group snapshots are kept.
const snapshotRetention = 90 * 24 * time.Hour

type (
	// ViewsChangedEvent is emitted when the quota views were rebuilt.
	ViewsChangedEvent struct {
		RefreshID string
		Views     []models.QuotaView
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}

	// StatsEvent summarizes the current views.
	StatsEvent struct {
		AuthFiles int
		WithQuota int
		Exhausted int
		Disabled  int
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ViewsChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()        {}
func (StatsEvent) isServiceEvent()        {}

// NotifyFunc delivers a desktop notification.
type NotifyFunc func(title, body string) error

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	rebuildMu   sync.Mutex
	authFiles   *authfiles.Service
	payloads    *payloads.Service
	database    *db.DB
	notify      NotifyFunc
	now         func() time.Time
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	views       []models.QuotaView
	// exhausted holds the last known state per auth::group.
	exhausted map[string]bool
	// recorded holds the newest payload fetch time written per auth.
	recorded        map[string]time.Time
	refreshInterval time.Duration
	closeOnce       sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		now:             time.Now,
		stopChan:        make(chan struct{}),
		exhausted:       make(map[string]bool),
		recorded:        make(map[string]time.Time),
		refreshInterval: cfg.RefreshInterval,
	}
	if cfg.Notifications {
		m.notify = beeepNotify
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if n, err := m.database.Maintain(m.now().Add(-snapshotRetention)); err != nil {
		logger.Warn("failed to prune snapshots", "error", err)
	} else if n > 0 {
		logger.Info("pruned old snapshots", "rows", n)
	}

	m.authFiles, err = authfiles.New(cfg.AuthDir)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	m.payloads, err = payloads.New(context.Background(), cfg.PayloadDir, cfg.Rules)
	if err != nil {
		_ = m.authFiles.Close()
		_ = m.database.Close()
		return nil, err
	}

	m.rebuild()

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	var tick <-chan time.Time
	if m.refreshInterval > 0 {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case event := <-m.authFiles.Events():
			m.handleAuthFileEvent(event)

		case event := <-m.payloads.Events():
			m.handlePayloadEvent(event)

		case <-tick:
			if err := m.payloads.Refresh(context.Background()); err != nil {
				logger.Warn("periodic payload refresh failed", "error", err)
			}

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleAuthFileEvent(event authfiles.Event) {
	switch event.Type {
	case authfiles.EventAuthFilesLoaded, authfiles.EventAuthFilesChanged:
		m.rebuild()

	case authfiles.EventError:
		m.broadcast(ErrorEvent{
			Service: "authfiles",
			Error:   event.Error,
		})
	}
}

func (m *Manager) handlePayloadEvent(event payloads.Event) {
	switch event.Type {
	case payloads.EventPayloadsUpdated:
		m.rebuild()

	case payloads.EventError:
		m.broadcast(ErrorEvent{
			Service: "payloads",
			Error:   event.Error,
		})
	}
}

// rebuild recomputes every view, records new snapshots, fires transition
// notifications and broadcasts the result.
func (m *Manager) rebuild() {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	views := BuildViews(m.authFiles.Files(), m.payloads.All(), m.now())
	refreshID := uuid.NewString()

	m.recordSnapshots(refreshID, views)
	m.checkNotifications(views)

	m.mu.Lock()
	m.views = views
	m.mu.Unlock()

	m.broadcast(ViewsChangedEvent{RefreshID: refreshID, Views: views})
}

// BuildViews joins auth files with their decoded payloads.
func BuildViews(files []models.AuthFile, results map[string]payloads.Result, now time.Time) []models.QuotaView {
	views := make([]models.QuotaView, 0, len(files))
	for i := range files {
		f := &files[i]
		view := models.QuotaView{
			AuthFile:       *f,
			ExhaustedError: quota.IsExhaustedError(f),
			NeverRecover:   quota.IsNeverRecoverQuota(f),
			Tier:           quota.TierUnknown,
		}
		if r, ok := payloadFor(f, results); ok {
			view.FetchedAt = r.FetchedAt
			view.Groups = r.Groups
			view.Tier = quota.TierFromGroups(r.Groups, now)
			if r.Err != nil {
				view.PayloadError = r.Err.Error()
			}
		}
		views = append(views, view)
	}
	return views
}

// payloadFor matches a payload by auth name, id, or name without extension.
func payloadFor(f *models.AuthFile, results map[string]payloads.Result) (payloads.Result, bool) {
	keys := lo.Uniq(lo.Compact([]string{
		f.Name,
		f.ID,
		strings.TrimSuffix(f.Name, filepath.Ext(f.Name)),
	}))
	for _, key := range keys {
		if r, ok := results[key]; ok {
			return r, true
		}
	}
	return payloads.Result{}, false
}

// recordSnapshots writes each view whose payload is newer than the last one
// recorded for that auth.
func (m *Manager) recordSnapshots(refreshID string, views []models.QuotaView) {
	if m.database == nil {
		return
	}
	for _, v := range views {
		if !v.HasGroups() || v.FetchedAt.IsZero() {
			continue
		}
		key := v.AuthFile.Key()
		if last, ok := m.recorded[key]; ok && !v.FetchedAt.After(last) {
			continue
		}
		if _, err := m.database.InsertGroupSnapshots(refreshID, v, v.FetchedAt); err != nil {
			logger.Error("failed to record snapshots", "auth", key, "error", err)
			m.broadcast(ErrorEvent{Service: "db", Error: err})
			continue
		}
		m.recorded[key] = v.FetchedAt
	}
}

// checkNotifications fires on transitions into and out of exhaustion. The
// first observation of a group only sets the baseline, and groups with an
// unknown fraction keep their previous state.
func (m *Manager) checkNotifications(views []models.QuotaView) {
	for _, v := range views {
		name := v.AuthFile.DisplayName()
		for _, g := range v.Groups {
			if g.RemainingFraction == nil {
				continue
			}
			key := v.AuthFile.Key() + "::" + g.ID
			exhausted := quota.IsExhausted(g)
			prev, seen := m.exhausted[key]
			m.exhausted[key] = exhausted

			if !seen || prev == exhausted || m.notify == nil {
				continue
			}

			label := lo.Ternary(g.Label != "", g.Label, g.ID)
			var title, body string
			if exhausted {
				title = fmt.Sprintf("Quota Exhausted: %s", name)
				body = fmt.Sprintf("%s has no remaining quota. Resets in %s.", label, quota.FormatResetTime(g.ResetTime, m.now()))
			} else {
				title = fmt.Sprintf("Quota Recovered: %s", name)
				body = fmt.Sprintf("%s is back at %.0f%%.", label, *g.RemainingFraction*100)
			}
			if err := m.notify(title, body); err != nil {
				logger.Debug("notification failed", "error", err)
			}
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Views returns the most recently built quota views.
func (m *Manager) Views() []models.QuotaView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.views
}

// Refresh reloads auth files and payloads, then rebuilds the views.
func (m *Manager) Refresh(ctx context.Context) error {
	if err := m.authFiles.Reload(); err != nil {
		return fmt.Errorf("failed to reload auth files: %w", err)
	}
	if err := m.payloads.Refresh(ctx); err != nil {
		return err
	}
	m.rebuild()
	return nil
}

// GetStats returns aggregated statistics over the current views.
func (m *Manager) GetStats() StatsEvent {
	return ComputeStats(m.Views())
}

// ComputeStats summarizes a set of views.
func ComputeStats(views []models.QuotaView) StatsEvent {
	return StatsEvent{
		AuthFiles: len(views),
		WithQuota: lo.CountBy(views, func(v models.QuotaView) bool { return v.HasGroups() }),
		Exhausted: lo.CountBy(views, func(v models.QuotaView) bool {
			return v.ExhaustedError || v.NeverRecover || len(v.ExhaustedGroups()) > 0
		}),
		Disabled: lo.CountBy(views, func(v models.QuotaView) bool { return v.AuthFile.Disabled }),
	}
}

// GetGroupHistory returns the recorded snapshots of one group.
func (m *Manager) GetGroupHistory(authName, groupID string, timeRange models.TimeRange) ([]models.GroupSnapshot, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetGroupHistory(authName, groupID, timeRange.Since(m.now()))
}

// InitialState returns the initial state of all services for TUI initialization.
func (m *Manager) InitialState() ([]models.QuotaView, StatsEvent) {
	return m.Views(), m.GetStats()
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.authFiles.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := m.payloads.Close(); err != nil {
			errs = append(errs, err)
		}
		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
