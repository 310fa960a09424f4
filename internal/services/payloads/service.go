// Package payloads loads cached raw quota payloads written by an external
// fetcher and turns them into quota groups.
package payloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/logger"
	"github.com/j-veylop/authquota/internal/providers"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/services/dirwatch"
)

// maxConcurrentParses bounds parallel payload decoding.
const maxConcurrentParses = 4

// ErrMissingProvider is recorded for envelopes that do not name a provider.
var ErrMissingProvider = errors.New("payload envelope has no provider")

// Envelope is the on-disk wrapper around one raw provider response.
type Envelope struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Auth      string          `json:"auth"`
	Provider  string          `json:"provider"`
	Payload   json.RawMessage `json:"payload"`
}

// Result is the decoded quota state for one auth file.
type Result struct {
	FetchedAt time.Time
	Err       error
	Auth      string
	Provider  string
	Path      string
	Groups    []quota.Group
}

// Event represents a payload service event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of payload event.
type EventType int

const (
	// EventPayloadsUpdated fires after a refresh replaced the cache.
	EventPayloadsUpdated EventType = iota
	// EventError reports a watcher or refresh failure.
	EventError
)

// Service caches decoded payloads keyed by auth name.
type Service struct {
	rules     *config.Rules
	watcher   *dirwatch.Watcher
	now       func() time.Time
	cache     map[string]Result
	eventChan chan Event
	dir       string
	mu        sync.RWMutex
}

// New creates the service, runs an initial refresh and starts watching dir.
func New(ctx context.Context, dir string, rules *config.Rules) (*Service, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create payload directory: %w", err)
	}
	if rules == nil {
		rules = config.DefaultRules()
	}

	s := &Service{
		rules:     rules,
		now:       time.Now,
		cache:     make(map[string]Result),
		eventChan: make(chan Event, 100),
		dir:       dir,
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	w, err := dirwatch.Start(dir, ".json", dirwatch.DefaultDebounce, func() {
		if err := s.Refresh(context.Background()); err != nil {
			logger.Error("payload refresh failed", "error", err)
		}
	}, func(err error) {
		s.sendEvent(Event{Type: EventError, Error: err})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	s.watcher = w

	return s, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Get returns the cached result for an auth name.
func (s *Service) Get(auth string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.cache[auth]
	return r, ok
}

// All returns a copy of the cache.
func (s *Service) All() map[string]Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.cache)
}

// Refresh re-reads every envelope in the directory. Per-file failures are
// recorded on the result rather than failing the refresh.
func (s *Service) Refresh(ctx context.Context) error {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list payloads: %w", err)
	}

	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParses)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = LoadFile(path, s.rules, s.now())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return fmt.Errorf("failed to refresh payloads: %w", err)
	}

	cache := make(map[string]Result, len(results))
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("payload decode failed", "path", r.Path, "error", r.Err)
		}
		if prev, ok := cache[r.Auth]; ok && prev.FetchedAt.After(r.FetchedAt) {
			continue
		}
		cache[r.Auth] = r
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventPayloadsUpdated})
	return nil
}

// LoadFile reads and decodes one envelope. The auth name falls back to the
// file name without extension.
func LoadFile(path string, rules *config.Rules, now time.Time) Result {
	r := Result{
		Path: path,
		Auth: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = fmt.Errorf("failed to read payload: %w", err)
		return r
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.Err = fmt.Errorf("failed to decode envelope: %w", err)
		return r
	}
	if env.Auth != "" {
		r.Auth = env.Auth
	}
	r.Provider = env.Provider
	r.FetchedAt = env.FetchedAt
	if r.FetchedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			r.FetchedAt = info.ModTime()
		}
	}

	if env.Provider == "" {
		r.Err = ErrMissingProvider
		return r
	}

	groups, err := providers.Decode(env.Provider, env.Payload, rules, now)
	if err != nil {
		r.Err = err
		return r
	}
	r.Groups = groups
	return r
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher.
func (s *Service) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
